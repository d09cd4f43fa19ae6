package tokenstore

import "context"

// Storage is the durable key/value surface behind a TokenStore. Values are
// grouped by namespace, one namespace per browser.
type Storage interface {
	// Get returns errors.ErrNotFound when the key is absent
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Set(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace, key string) error
	// Clear drops every key of the namespace
	Clear(ctx context.Context, namespace string) error
}
