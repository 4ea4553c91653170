package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed keys (webhook delivery ids, payload
// digests) so that at-least-once deliveries are only acted on once per TTL.
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed with a TTL.
	// Returns true if the key was newly marked, false if it was already processed
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key has already been processed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}
