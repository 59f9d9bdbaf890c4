// Package cache stores loaded histories and rendered diagrams between runs.
//
// # Backends
//
// [FileCache] keeps entries as JSON files under the user cache directory and
// is what the CLI uses. [RedisCache] serves the HTTP server when several
// instances share one cache. [NullCache] never stores anything and backs
// --no-cache.
//
// # Keys
//
// A [Keyer] derives keys from everything that determines an entry. History
// keys include the hashes of the reference tips, so moving a branch or adding
// a commit yields a new key instead of a stale hit:
//
//	key := keyer.HistoryKey(gitDir, tips, cache.HistoryKeyOpts{Refs: "*"})
//	data, ok, err := c.Get(ctx, key)
//
// [ScopedKeyer] prefixes every key, which the server uses to give each
// repository its own namespace.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long entries live when no TTL is configured.
const DefaultTTL = 24 * time.Hour

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is reported
	// as ok == false with a nil error.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}
