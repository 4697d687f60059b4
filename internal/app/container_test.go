package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adminApp "github.com/felixgeelhaar/reserva/internal/admin/application"
	"github.com/felixgeelhaar/reserva/internal/reservation/application/commands"
	"github.com/felixgeelhaar/reserva/internal/reservation/application/queries"
	"github.com/felixgeelhaar/reserva/internal/reservation/application/services"
	"github.com/felixgeelhaar/reserva/internal/reservation/domain"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/reserva/pkg/config"
)

type recordingSender struct {
	mu   sync.Mutex
	sent map[string][]services.Notification
}

func (s *recordingSender) Send(_ context.Context, chatID string, n services.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sent == nil {
		s.sent = make(map[string][]services.Notification)
	}
	s.sent[chatID] = append(s.sent[chatID], n)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:            "development",
		Timezone:          "UTC",
		DatabaseDriver:    "sqlite",
		SQLitePath:        filepath.Join(t.TempDir(), "reserva.db"),
		TelegramTimeout:   time.Second,
		TelegramRateLimit: 25,
		NotifyConcurrency: 2,
		CommitTimeout:     5 * time.Second,

		OutboxPollInterval: 10 * time.Millisecond,
		OutboxBatchSize:    10,
		OutboxMaxRetries:   3,
	}
}

func newTestContainer(t *testing.T) *Container {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := NewContainer(context.Background(), testConfig(t), logger)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNewContainer_LocalMode(t *testing.T) {
	c := newTestContainer(t)

	assert.Equal(t, database.DriverSQLite, c.DBDriver)
	assert.Nil(t, c.RedisClient)
	assert.NotNil(t, c.Conversation)
	assert.NotNil(t, c.DateLocker)

	health := c.Health.Check(context.Background())
	assert.Equal(t, "healthy", string(health.Status))
}

func TestContainer_BookingFlow(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer(t)

	_, err := c.RegisterAdminHandler.Handle(ctx, adminApp.RegisterAdminCommand{Username: "admin", Password: "secret"})
	require.NoError(t, err)
	_, err = c.LoginHandler.Handle(ctx, adminApp.LoginCommand{ChatID: "100", Username: "admin", Password: "secret"})
	require.NoError(t, err)

	tomorrow := domain.DateOf(time.Now().In(c.Config.Location()).AddDate(0, 0, 1))
	start := domain.NewTimeOfDay(10, 0)

	reservation, err := c.CreateReservationHandler.Handle(ctx, commands.CreateReservationCommand{
		UserID:          7,
		Username:        "player",
		Date:            tomorrow,
		Start:           start,
		DurationMinutes: 60,
		ContactInfo:     "+380000000000",
	})
	require.NoError(t, err)
	require.Positive(t, reservation.ID())

	t.Run("overlap is rejected", func(t *testing.T) {
		_, err := c.CreateReservationHandler.Handle(ctx, commands.CreateReservationCommand{
			UserID:          8,
			Date:            tomorrow,
			Start:           domain.NewTimeOfDay(10, 30),
			DurationMinutes: 60,
			ContactInfo:     "someone",
		})
		assert.ErrorIs(t, err, domain.ErrOverlapsExisting)
	})

	t.Run("slots skip the booked hour", func(t *testing.T) {
		slots, err := c.AvailableSlotsHandler.Handle(ctx, queries.AvailableSlotsQuery{Date: tomorrow, DurationMinutes: 60})
		require.NoError(t, err)
		assert.NotContains(t, slots, start)
	})

	t.Run("admins are notified through the outbox", func(t *testing.T) {
		sender := &recordingSender{}
		consumer := services.NewReservationCreatedConsumer(c.NewAdminNotifier(sender))
		publisher, err := c.NewPublisher(consumer)
		require.NoError(t, err)
		defer publisher.Close()

		require.NoError(t, c.NewOutboxRelay(publisher).Flush(ctx))

		sender.mu.Lock()
		defer sender.mu.Unlock()
		require.Len(t, sender.sent["100"], 1)
		assert.Contains(t, sender.sent["100"][0].Text, "+380000000000")
	})

	t.Run("confirm then cancel", func(t *testing.T) {
		result, err := c.DecideReservationHandler.Handle(ctx, commands.DecideReservationCommand{
			ChatID:        "100",
			ReservationID: reservation.ID(),
			Decision:      commands.DecisionConfirm,
		})
		require.NoError(t, err)
		assert.True(t, result.Changed)

		_, err = c.DecideReservationHandler.Handle(ctx, commands.DecideReservationCommand{
			ChatID:        "100",
			ReservationID: reservation.ID(),
			Decision:      commands.DecisionCancel,
		})
		require.NoError(t, err)

		list, err := c.ListReservationsHandler.Handle(ctx, queries.ListReservationsQuery{From: tomorrow})
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}
