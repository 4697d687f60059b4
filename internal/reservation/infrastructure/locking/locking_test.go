package locking

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/reserva/internal/reservation/domain"
)

var june10 = time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

func runLockerContract(t *testing.T, locker domain.DateLocker) {
	ctx := context.Background()

	t.Run("serializes holders of the same date", func(t *testing.T) {
		var inside, maxInside int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				release, err := locker.Lock(ctx, june10)
				if !assert.NoError(t, err) {
					return
				}
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				release()
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), maxInside)
	})

	t.Run("different dates do not block each other", func(t *testing.T) {
		release, err := locker.Lock(ctx, june10)
		require.NoError(t, err)
		defer release()

		ctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		other, err := locker.Lock(ctx, june10.AddDate(0, 0, 1))
		require.NoError(t, err)
		other()
	})

	t.Run("waiting gives up when the context ends", func(t *testing.T) {
		release, err := locker.Lock(ctx, june10)
		require.NoError(t, err)
		defer release()

		ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(ctx, june10)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("release is idempotent", func(t *testing.T) {
		release, err := locker.Lock(ctx, june10)
		require.NoError(t, err)
		release()
		release()

		ctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		again, err := locker.Lock(ctx, june10)
		require.NoError(t, err)
		again()
	})
}

func TestLocalDateLocker(t *testing.T) {
	locker := NewLocalDateLocker()
	runLockerContract(t, locker)

	locker.mu.Lock()
	defer locker.mu.Unlock()
	assert.Empty(t, locker.dates)
}

func TestRedisDateLocker(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set, skipping integration test")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	locker := NewRedisDateLocker(client, 5*time.Second)
	runLockerContract(t, locker)

	t.Run("release leaves a foreign token in place", func(t *testing.T) {
		ctx := context.Background()
		release, err := locker.Lock(ctx, june10)
		require.NoError(t, err)

		key := locker.key(june10)
		require.NoError(t, client.Set(ctx, key, "someone-else", time.Second).Err())
		release()

		val, err := client.Get(ctx, key).Result()
		require.NoError(t, err)
		assert.Equal(t, "someone-else", val)
		client.Del(ctx, key)
	})
}
