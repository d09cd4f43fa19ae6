package tokenstore_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/fee-portal/internal/errors"
	"github.com/jrsteele09/fee-portal/tokenstore"
	"github.com/jrsteele09/fee-portal/users"
	"github.com/stretchr/testify/require"
)

const testNamespace = "browser-1"

func newStore(t *testing.T, opts ...tokenstore.Option) (*tokenstore.TokenStore, *tokenstore.InMemoryStorage) {
	t.Helper()
	storage := tokenstore.NewInMemoryStorage()
	store, err := tokenstore.New(storage, testNamespace, opts...)
	require.NoError(t, err)
	return store, storage
}

func TestNew_RequiresNamespace(t *testing.T) {
	_, err := tokenstore.New(tokenstore.NewInMemoryStorage(), "")
	require.ErrorIs(t, err, errors.ErrInvalidNamespace)
}

func TestTokenStore_EmptyReads(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	access, err := store.AccessToken(ctx)
	require.NoError(t, err)
	require.Empty(t, access)

	refresh, err := store.RefreshToken(ctx)
	require.NoError(t, err)
	require.Empty(t, refresh)

	u, err := store.User(ctx)
	require.NoError(t, err)
	require.Nil(t, u)
}

func TestTokenStore_SaveAndClear(t *testing.T) {
	store, storage := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTokens(ctx, "T1", "R1"))
	require.NoError(t, store.SaveUser(ctx, &users.User{ID: "1", Email: "admin@school.com", Role: users.RoleAdmin}))
	require.NoError(t, store.Set(ctx, "toasts", []byte("[]")))

	raw, err := storage.Get(ctx, testNamespace, tokenstore.KeyAuthToken)
	require.NoError(t, err)
	require.Equal(t, "T1", string(raw))

	u, err := store.User(ctx)
	require.NoError(t, err)
	require.Equal(t, users.RoleAdmin, u.Role)

	require.NoError(t, store.Clear(ctx))

	access, err := store.AccessToken(ctx)
	require.NoError(t, err)
	require.Empty(t, access)
	u, err = store.User(ctx)
	require.NoError(t, err)
	require.Nil(t, u)

	// unrelated keys survive
	_, err = store.Get(ctx, "toasts")
	require.NoError(t, err)
}

func TestTokenStore_Sealed(t *testing.T) {
	store, storage := newStore(t, tokenstore.WithSealer(tokenstore.NewSealer("s3cret")))
	ctx := context.Background()

	require.NoError(t, store.SaveTokens(ctx, "T1", "R1"))

	raw, err := storage.Get(ctx, testNamespace, tokenstore.KeyAuthToken)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "T1")

	access, err := store.AccessToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "T1", access)

	// a store with a different secret cannot open the values
	other, err := tokenstore.New(storage, testNamespace, tokenstore.WithSealer(tokenstore.NewSealer("other")))
	require.NoError(t, err)
	_, err = other.AccessToken(ctx)
	require.ErrorIs(t, err, errors.ErrSealed)
}

func TestTokenSource(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	src := tokenstore.TokenSource(ctx, store)

	_, err := src.Token()
	require.ErrorIs(t, err, errors.ErrNoAccessToken)

	require.NoError(t, store.SaveTokens(ctx, "T1", "R1"))
	tok, err := src.Token()
	require.NoError(t, err)
	require.Equal(t, "T1", tok.AccessToken)
	require.Equal(t, "Bearer", tok.TokenType)

	// rotated tokens are visible without rebuilding the source
	require.NoError(t, store.SaveTokens(ctx, "T2", "R2"))
	tok, err = src.Token()
	require.NoError(t, err)
	require.Equal(t, "T2", tok.AccessToken)
}
