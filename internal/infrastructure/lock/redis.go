package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rafcin/openship/internal/domain/order"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultKeyPrefix  = "openship:lock:order:"
	defaultRetryDelay = 50 * time.Millisecond
	releaseTimeout    = 2 * time.Second
)

// releaseScript deletes the key only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is an order lock shared between instances. The TTL bounds how
// long a crashed holder can block an order.
type RedisLocker struct {
	client     redis.UniversalClient
	ttl        time.Duration
	keyPrefix  string
	retryDelay time.Duration
	logger     *zap.Logger
}

// RedisLockerOption configures a RedisLocker
type RedisLockerOption func(*RedisLocker)

func WithKeyPrefix(prefix string) RedisLockerOption {
	return func(l *RedisLocker) { l.keyPrefix = prefix }
}

func WithRetryDelay(d time.Duration) RedisLockerOption {
	return func(l *RedisLocker) { l.retryDelay = d }
}

func WithLogger(logger *zap.Logger) RedisLockerOption {
	return func(l *RedisLocker) { l.logger = logger }
}

func NewRedisLocker(client redis.UniversalClient, ttl time.Duration, opts ...RedisLockerOption) *RedisLocker {
	l := &RedisLocker{
		client:     client,
		ttl:        ttl,
		keyPrefix:  defaultKeyPrefix,
		retryDelay: defaultRetryDelay,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock polls SET NX until it wins or ctx is done
func (l *RedisLocker) Lock(ctx context.Context, orderID uuid.UUID) (func(), error) {
	key := l.keyPrefix + orderID.String()
	token := uuid.NewString()

	ticker := time.NewTicker(l.retryDelay)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("acquire order lock: %w", err)
		}
		if ok {
			return l.unlocker(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) unlocker(key, token string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("failed to release order lock", zap.String("key", key), zap.Error(err))
		}
	}
}

var _ order.Locker = (*RedisLocker)(nil)
