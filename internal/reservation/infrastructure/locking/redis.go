package locking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/reserva/internal/reservation/domain"
)

const (
	defaultLockTTL   = 10 * time.Second
	defaultLockRetry = 25 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another process is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisDateLocker serializes commits per date across processes sharing a
// Redis instance. Keys are namespaced as reserva:lock:date:{YYYY-MM-DD}.
type RedisDateLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisDateLocker creates a Redis-backed date locker. A zero ttl uses
// ten seconds, which bounds how long a crashed holder blocks the date.
func NewRedisDateLocker(client *redis.Client, ttl time.Duration) *RedisDateLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisDateLocker{client: client, ttl: ttl, retry: defaultLockRetry}
}

func (l *RedisDateLocker) key(date time.Time) string {
	return fmt.Sprintf("reserva:lock:date:%s", date.Format(domain.DateLayout))
}

// Lock polls until the date key is acquired or ctx is done.
func (l *RedisDateLocker) Lock(ctx context.Context, date time.Time) (func(), error) {
	key := l.key(date)
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			// A failed release still expires after ttl.
			_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
		})
	}, nil
}
