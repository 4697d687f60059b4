package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalApp "github.com/felixgeelhaar/reserva/internal/app"
	"github.com/felixgeelhaar/reserva/internal/reservation/application/commands"
	"github.com/felixgeelhaar/reserva/internal/reservation/domain"
	"github.com/felixgeelhaar/reserva/pkg/config"
)

type stubServer struct {
	ran bool
}

func (s *stubServer) Run(ctx context.Context) error {
	s.ran = true
	return nil
}

// setupLocalModeTestApp creates a test application backed by SQLite.
func setupLocalModeTestApp(t *testing.T) *internalApp.Container {
	t.Helper()

	cfg := &config.Config{
		AppEnv:            "test",
		Timezone:          "UTC",
		DatabaseDriver:    "sqlite",
		SQLitePath:        filepath.Join(t.TempDir(), "test.db"),
		TelegramTimeout:   time.Second,
		TelegramRateLimit: 25,
		NotifyConcurrency: 1,
		CommitTimeout:     5 * time.Second,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	container, err := internalApp.NewContainer(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	cliApp := NewApp(
		container.AvailableSlotsHandler,
		container.ListReservationsHandler,
		container.RegisterAdminHandler,
		cfg.Location(),
	)
	cliApp.SetHealth(container.Health)
	SetApp(cliApp)
	t.Cleanup(func() { SetApp(nil) })

	return container
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSlotsCommand(t *testing.T) {
	container := setupLocalModeTestApp(t)
	tomorrow := domain.DateOf(time.Now().UTC().AddDate(0, 0, 1))
	date := tomorrow.Format(domain.DateLayout)

	t.Run("lists every slot of an empty day", func(t *testing.T) {
		out, err := run(t, "slots", "--date", date, "--duration", "60")
		require.NoError(t, err)
		assert.Contains(t, out, "Free slots on "+date)
		assert.Contains(t, out, "09:00 - 10:00")
	})

	t.Run("skips booked times", func(t *testing.T) {
		_, err := container.CreateReservationHandler.Handle(context.Background(), commands.CreateReservationCommand{
			UserID:          1,
			Date:            tomorrow,
			Start:           domain.NewTimeOfDay(9, 0),
			DurationMinutes: 60,
			ContactInfo:     "phone",
		})
		require.NoError(t, err)

		out, err := run(t, "slots", "--date", date, "--duration", "60")
		require.NoError(t, err)
		assert.NotContains(t, out, "09:00 - 10:00")
		assert.Contains(t, out, "10:00 - 11:00")
	})

	t.Run("rejects unknown duration", func(t *testing.T) {
		_, err := run(t, "slots", "--date", date, "--duration", "45")
		assert.ErrorContains(t, err, "invalid duration 45")
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		_, err := run(t, "slots", "--date", "10.06.2024", "--duration", "60")
		assert.ErrorContains(t, err, "expected YYYY-MM-DD")
	})
}

func TestReservationsCommand(t *testing.T) {
	container := setupLocalModeTestApp(t)
	tomorrow := domain.DateOf(time.Now().UTC().AddDate(0, 0, 1))
	date := tomorrow.Format(domain.DateLayout)

	t.Run("empty day", func(t *testing.T) {
		out, err := run(t, "reservations", "--date", date, "--days", "1")
		require.NoError(t, err)
		assert.Equal(t, "No reservations.\n", out)
	})

	t.Run("lists bookings across days", func(t *testing.T) {
		_, err := container.CreateReservationHandler.Handle(context.Background(), commands.CreateReservationCommand{
			UserID:          1,
			Username:        "player",
			Date:            tomorrow,
			Start:           domain.NewTimeOfDay(18, 0),
			DurationMinutes: 90,
			ContactInfo:     "+380501234567",
		})
		require.NoError(t, err)

		today := domain.DateOf(time.Now().UTC()).Format(domain.DateLayout)
		out, err := run(t, "reservations", "--date", today, "--days", "3")
		require.NoError(t, err)
		assert.Contains(t, out, "18:00-19:30")
		assert.Contains(t, out, "pending")
		assert.Contains(t, out, "@player")
	})

	t.Run("rejects non-positive days", func(t *testing.T) {
		_, err := run(t, "reservations", "--date", date, "--days", "0")
		assert.Error(t, err)
	})
}

func TestServeCommand(t *testing.T) {
	setupLocalModeTestApp(t)

	t.Run("requires a server factory", func(t *testing.T) {
		_, err := run(t, "serve")
		assert.ErrorContains(t, err, "not initialized")
	})

	t.Run("runs the server", func(t *testing.T) {
		server := &stubServer{}
		GetApp().SetServerFactory(func() (Server, error) { return server, nil })

		_, err := run(t, "serve")
		require.NoError(t, err)
		assert.True(t, server.ran)
	})

	t.Run("propagates factory errors", func(t *testing.T) {
		GetApp().SetServerFactory(func() (Server, error) { return nil, errors.New("BOOKING_BOT_TOKEN is required") })

		_, err := run(t, "serve")
		assert.ErrorContains(t, err, "BOOKING_BOT_TOKEN")
	})
}

func TestHealthCommand(t *testing.T) {
	setupLocalModeTestApp(t)

	out, err := run(t, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "database")
	assert.Regexp(t, `(?m)^overall +healthy`, out)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "reserva dev")
}
