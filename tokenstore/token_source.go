package tokenstore

import (
	"context"

	"github.com/jrsteele09/fee-portal/internal/errors"
	"golang.org/x/oauth2"
)

type storeTokenSource struct {
	ctx   context.Context
	store *TokenStore
}

// TokenSource exposes the stored access token as an oauth2.TokenSource. It
// reads the store on every call so rotated tokens are picked up immediately.
func TokenSource(ctx context.Context, store *TokenStore) oauth2.TokenSource {
	return &storeTokenSource{ctx: ctx, store: store}
}

func (s *storeTokenSource) Token() (*oauth2.Token, error) {
	access, err := s.store.AccessToken(s.ctx)
	if err != nil {
		return nil, err
	}
	if access == "" {
		return nil, errors.ErrNoAccessToken
	}
	refresh, err := s.store.RefreshToken(s.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken:  access,
		TokenType:    "Bearer",
		RefreshToken: refresh,
	}, nil
}
