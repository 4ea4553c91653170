package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/redis/go-redis/v9"
)

// DefaultOAuthStatePrefix namespaces OAuth state and alias keys
const DefaultOAuthStatePrefix = "openship:oauth:"

// RedisOAuthStateStore keeps pending OAuth flows in Redis so that the
// callback can land on any instance
type RedisOAuthStateStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisOAuthStateStore wraps an existing client
func NewRedisOAuthStateStore(client redis.UniversalClient, keyPrefix string) *RedisOAuthStateStore {
	if keyPrefix == "" {
		keyPrefix = DefaultOAuthStatePrefix
	}
	return &RedisOAuthStateStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisOAuthStateStore) stateKey(key string) string { return s.keyPrefix + "state:" + key }
func (s *RedisOAuthStateStore) aliasKey(key string) string { return s.keyPrefix + "alias:" + key }

func (s *RedisOAuthStateStore) Put(ctx context.Context, key string, state integration.OAuthState, ttl time.Duration) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode oauth state: %w", err)
	}
	if err := s.client.Set(ctx, s.stateKey(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("store oauth state: %w", err)
	}
	return nil
}

// Consume reads and deletes atomically with GETDEL
func (s *RedisOAuthStateStore) Consume(ctx context.Context, key string) (integration.OAuthState, error) {
	target, err := s.client.GetDel(ctx, s.aliasKey(key)).Result()
	switch {
	case err == nil:
		key = target
	case !errors.Is(err, redis.Nil):
		return integration.OAuthState{}, fmt.Errorf("resolve oauth alias: %w", err)
	}

	raw, err := s.client.GetDel(ctx, s.stateKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return integration.OAuthState{}, integration.ErrOAuthStateNotFound
	}
	if err != nil {
		return integration.OAuthState{}, fmt.Errorf("consume oauth state: %w", err)
	}

	var state integration.OAuthState
	if err := json.Unmarshal(raw, &state); err != nil {
		return integration.OAuthState{}, fmt.Errorf("decode oauth state: %w", err)
	}
	return state, nil
}

// Alias copies the remaining TTL of key onto aliasKey
func (s *RedisOAuthStateStore) Alias(ctx context.Context, aliasKey, key string) error {
	ttl, err := s.client.PTTL(ctx, s.stateKey(key)).Result()
	if err != nil {
		return fmt.Errorf("read oauth state ttl: %w", err)
	}
	// PTTL returns a negative duration for missing keys and keys without expiry
	if ttl <= 0 {
		return integration.ErrOAuthStateNotFound
	}
	if err := s.client.Set(ctx, s.aliasKey(aliasKey), key, ttl).Err(); err != nil {
		return fmt.Errorf("store oauth alias: %w", err)
	}
	return nil
}

var _ integration.OAuthStateStore = (*RedisOAuthStateStore)(nil)
