package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the lock only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a best-effort Redis mutex used to keep replicas from sweeping on the same tick.
// Sweeps are idempotent, so losing the lock only costs a redundant query.
type Lock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewLock creates a lock on key that expires after ttl
func NewLock(client *redis.Client, key string, ttl time.Duration, logger *zap.Logger) *Lock {
	return &Lock{client: client, key: key, ttl: ttl, logger: logger}
}

// TryAcquire returns a release func when the lock was obtained, nil otherwise
func (l *Lock) TryAcquire(ctx context.Context) (func(context.Context), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}
	if !ok {
		return nil, nil
	}
	return func(ctx context.Context) {
		// A failed release leaves the key to expire after ttl
		if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
			l.logger.Warn("failed to release lock",
				zap.String("key", l.key),
				zap.Duration("expires_in", l.ttl),
				zap.Error(err),
			)
		}
	}, nil
}
