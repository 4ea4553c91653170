package cache

import (
	"context"
	"time"

	"github.com/Rafcin/openship/internal/domain/shared"
)

// InMemoryIdempotencyStore keeps processed webhook keys in process memory.
// Only suitable for single-instance deployments and tests.
type InMemoryIdempotencyStore struct {
	entries *expiringMap[struct{}]
}

// NewInMemoryIdempotencyStore creates a store with a background sweeper
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{entries: newExpiringMap[struct{}]()}
}

// MarkProcessed returns true when key was not already marked
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	return s.entries.setIfAbsent(key, struct{}{}, ttl), nil
}

// IsProcessed reports whether key is marked and not yet expired
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	_, ok := s.entries.get(key)
	return ok, nil
}

// Close stops the sweeper
func (s *InMemoryIdempotencyStore) Close() error {
	s.entries.close()
	return nil
}

// Size returns the number of stored keys, expired ones included until swept
func (s *InMemoryIdempotencyStore) Size() int {
	return s.entries.len()
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
