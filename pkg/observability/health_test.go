package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthRegistry_Check(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	fail := func(ctx context.Context) error { return errors.New("connection refused") }

	t.Run("healthy with no checks", func(t *testing.T) {
		health := NewHealthRegistry().Check(context.Background())

		assert.Equal(t, HealthStatusHealthy, health.Status)
		assert.Empty(t, health.Checks)
	})

	t.Run("degraded when redis is down", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("database", DatabaseHealthChecker(ok))
		r.Register("redis", RedisHealthChecker(fail))

		health := r.Check(context.Background())

		assert.Equal(t, HealthStatusDegraded, health.Status)
		assert.Equal(t, HealthStatusHealthy, health.Checks["database"].Status)
		assert.Contains(t, health.Checks["redis"].Message, "connection refused")
	})

	t.Run("unhealthy when database is down", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("database", DatabaseHealthChecker(fail))
		r.Register("redis", RedisHealthChecker(fail))

		health := r.Check(context.Background())

		assert.Equal(t, HealthStatusUnhealthy, health.Status)
	})
}
