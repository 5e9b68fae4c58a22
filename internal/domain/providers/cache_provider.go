package providers

import (
	"context"
)

// CacheProvider is the port for the interpretation cache. The analytics
// pipeline treats it as a best-effort read-through store; every method may
// fail without affecting correctness.
type CacheProvider interface {
	// Get retrieves a value, returning an error when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a TTL in seconds.
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a key is present.
	Exists(ctx context.Context, key string) (bool, error)
}
