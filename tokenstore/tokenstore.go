package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/fee-portal/internal/errors"
	"github.com/jrsteele09/fee-portal/users"
)

// Storage keys of the persisted token layout
const (
	KeyAuthToken    = "authToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
)

// TokenStore is one browser's view of Storage. It is written by the session
// manager only; the refresh scheduler reads it.
type TokenStore struct {
	storage   Storage
	namespace string
	sealer    *Sealer
}

type Option func(*TokenStore)

// WithSealer seals every value written through the store
func WithSealer(s *Sealer) Option {
	return func(t *TokenStore) {
		t.sealer = s
	}
}

func New(storage Storage, namespace string, opts ...Option) (*TokenStore, error) {
	if namespace == "" {
		return nil, errors.ErrInvalidNamespace
	}
	t := &TokenStore{storage: storage, namespace: namespace}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *TokenStore) Namespace() string {
	return t.namespace
}

// Get returns the raw value of key; errors.ErrNotFound when absent
func (t *TokenStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := t.storage.Get(ctx, t.namespace, key)
	if err != nil {
		return nil, err
	}
	if t.sealer == nil {
		return value, nil
	}
	return t.sealer.Open(value)
}

func (t *TokenStore) Set(ctx context.Context, key string, value []byte) error {
	if t.sealer != nil {
		sealed, err := t.sealer.Seal(value)
		if err != nil {
			return err
		}
		value = sealed
	}
	return t.storage.Set(ctx, t.namespace, key, value)
}

func (t *TokenStore) Delete(ctx context.Context, key string) error {
	return t.storage.Delete(ctx, t.namespace, key)
}

// AccessToken returns "" when no token is stored
func (t *TokenStore) AccessToken(ctx context.Context) (string, error) {
	return t.getString(ctx, KeyAuthToken)
}

// RefreshToken returns "" when no token is stored
func (t *TokenStore) RefreshToken(ctx context.Context) (string, error) {
	return t.getString(ctx, KeyRefreshToken)
}

// User returns nil when no profile is cached
func (t *TokenStore) User(ctx context.Context) (*users.User, error) {
	data, err := t.Get(ctx, KeyUser)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var u users.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("tokenstore: decode user: %w", err)
	}
	return &u, nil
}

// SaveTokens overwrites both tokens
func (t *TokenStore) SaveTokens(ctx context.Context, access, refresh string) error {
	if err := t.Set(ctx, KeyAuthToken, []byte(access)); err != nil {
		return errors.Wrapf(err, "tokenstore: save access token")
	}
	if err := t.Set(ctx, KeyRefreshToken, []byte(refresh)); err != nil {
		return errors.Wrapf(err, "tokenstore: save refresh token")
	}
	return nil
}

func (t *TokenStore) SaveUser(ctx context.Context, u *users.User) error {
	if u == nil {
		return t.Delete(ctx, KeyUser)
	}
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("tokenstore: encode user: %w", err)
	}
	return t.Set(ctx, KeyUser, data)
}

// Clear removes the tokens and the cached user. Other keys of the namespace are kept.
func (t *TokenStore) Clear(ctx context.Context) error {
	for _, key := range []string{KeyAuthToken, KeyRefreshToken, KeyUser} {
		if err := t.Delete(ctx, key); err != nil {
			return errors.Wrapf(err, "tokenstore: clear %s", key)
		}
	}
	return nil
}

func (t *TokenStore) getString(ctx context.Context, key string) (string, error) {
	data, err := t.Get(ctx, key)
	if errors.Is(err, errors.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
