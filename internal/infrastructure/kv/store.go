// Package kv provides the key-value store abstraction the relay keeps all
// its state in: an eventually-consistent, TTL-capable string store with
// single-key get/put/delete and no cross-operation atomicity.
package kv

import (
	"context"
	"time"
)

// Store is the minimal KV surface the relay depends on. Implementations do
// not offer transactions or compare-and-swap; callers that need
// check-then-act semantics accept the residual race (short TTLs and
// high-entropy keys keep it negligible).
type Store interface {
	// Get returns the value for key. A missing key is not an error: it is
	// reported through ok=false.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set writes value under key with the given TTL. A zero TTL means no
	// expiry. Writing restarts any previous expiry clock.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is present without reading its value.
	Exists(ctx context.Context, key string) (bool, error)
}
