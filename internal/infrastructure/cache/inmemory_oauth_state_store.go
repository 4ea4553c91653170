package cache

import (
	"context"
	"time"

	"github.com/Rafcin/openship/internal/domain/integration"
)

// InMemoryOAuthStateStore holds pending OAuth flows in process memory
type InMemoryOAuthStateStore struct {
	states  *expiringMap[integration.OAuthState]
	aliases *expiringMap[string]
}

// NewInMemoryOAuthStateStore creates an empty store
func NewInMemoryOAuthStateStore() *InMemoryOAuthStateStore {
	return &InMemoryOAuthStateStore{
		states:  newExpiringMap[integration.OAuthState](),
		aliases: newExpiringMap[string](),
	}
}

func (s *InMemoryOAuthStateStore) Put(_ context.Context, key string, state integration.OAuthState, ttl time.Duration) error {
	s.states.set(key, state, ttl)
	return nil
}

func (s *InMemoryOAuthStateStore) Consume(_ context.Context, key string) (integration.OAuthState, error) {
	if target, ok := s.aliases.take(key); ok {
		key = target
	}
	state, ok := s.states.take(key)
	if !ok {
		return integration.OAuthState{}, integration.ErrOAuthStateNotFound
	}
	return state, nil
}

// Alias lives exactly as long as the state it points to
func (s *InMemoryOAuthStateStore) Alias(_ context.Context, aliasKey, key string) error {
	expiresAt, ok := s.states.expiry(key)
	if !ok {
		return integration.ErrOAuthStateNotFound
	}
	s.aliases.set(aliasKey, key, time.Until(expiresAt))
	return nil
}

// Close stops both sweepers
func (s *InMemoryOAuthStateStore) Close() error {
	s.states.close()
	s.aliases.close()
	return nil
}

var _ integration.OAuthStateStore = (*InMemoryOAuthStateStore)(nil)
