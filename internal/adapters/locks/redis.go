package locks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	defaultLockTTL   = 30 * time.Second
	defaultLockRetry = 50 * time.Millisecond
	lockKeyPrefix    = "dispatch:zone-lock:"
)

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisZoneLocker serializes work per zone across every process sharing a Redis.
// The lock expires after TTL so a crashed holder cannot block a zone forever.
type RedisZoneLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	retry  time.Duration
	log    logrus.FieldLogger
}

type RedisOption func(*RedisZoneLocker)

func WithTTL(ttl time.Duration) RedisOption {
	return func(l *RedisZoneLocker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

func WithRetryInterval(d time.Duration) RedisOption {
	return func(l *RedisZoneLocker) {
		if d > 0 {
			l.retry = d
		}
	}
}

func WithLogger(log logrus.FieldLogger) RedisOption {
	return func(l *RedisZoneLocker) { l.log = log }
}

func NewRedisZoneLocker(client redis.UniversalClient, opts ...RedisOption) *RedisZoneLocker {
	l := &RedisZoneLocker{
		client: client,
		ttl:    defaultLockTTL,
		retry:  defaultLockRetry,
		log:    logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *RedisZoneLocker) Lock(ctx context.Context, zoneID string) (func(), error) {
	key := lockKeyPrefix + zoneID
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("redis zone lock %q: %w", zoneID, ctxErr)
			}
			return nil, fmt.Errorf("redis zone lock %q: setnx: %w", zoneID, err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("redis zone lock %q: %w", zoneID, ctx.Err())
		}
	}
}

// release runs on its own short context so a cancelled caller still frees the zone.
func (l *RedisZoneLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		l.log.WithError(err).WithField("key", key).Error("release zone lock failed")
		return
	}
	if n == 0 {
		l.log.WithField("key", key).Warn("zone lock expired before release")
	}
}
