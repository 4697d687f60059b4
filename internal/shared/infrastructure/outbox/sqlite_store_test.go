package outbox_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/outbox"
)

func newSQLiteStore(t *testing.T) (*outbox.SQLiteStore, database.Connection) {
	t.Helper()
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: filepath.Join(t.TempDir(), "outbox.db")})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrations.RunSQLite(ctx, conn))
	return outbox.NewSQLiteStore(conn), conn
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()

	t.Run("append and read pending", func(t *testing.T) {
		store, _ := newSQLiteStore(t)
		saved := appendEvent(t, store, "reservation.created")
		assert.NotZero(t, saved.ID)

		msgs, err := store.Pending(ctx, 10)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, saved.EventID, msgs[0].EventID)
		assert.Equal(t, "7", msgs[0].AggregateID)
		assert.JSONEq(t, string(saved.Payload), string(msgs[0].Payload))
		assert.JSONEq(t, string(saved.Metadata), string(msgs[0].Metadata))
		assert.WithinDuration(t, saved.CreatedAt, msgs[0].CreatedAt, time.Millisecond)
	})

	t.Run("append joins the unit of work and rolls back with it", func(t *testing.T) {
		store, conn := newSQLiteStore(t)
		uow := database.NewUnitOfWork(conn)

		txCtx, err := uow.Begin(ctx)
		require.NoError(t, err)
		msg, err := outbox.NewMessage(newSlotBooked("9", "2024-06-10", "12:00"))
		require.NoError(t, err)
		require.NoError(t, store.Append(txCtx, msg))
		require.NoError(t, uow.Rollback(txCtx))

		msgs, err := store.Pending(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("failed messages wait for their retry time", func(t *testing.T) {
		store, _ := newSQLiteStore(t)
		msg := appendEvent(t, store, "reservation.created")

		require.NoError(t, store.MarkFailed(ctx, msg.ID, "broker down", time.Now().Add(time.Hour)))
		pending, err := store.Pending(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, pending)

		require.NoError(t, store.MarkFailed(ctx, msg.ID, "broker still down", time.Now().Add(-time.Second)))
		pending, err = store.Pending(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, 2, pending[0].RetryCount)
		assert.Equal(t, "broker still down", pending[0].LastError)
	})

	t.Run("published and dead messages leave the queue", func(t *testing.T) {
		store, _ := newSQLiteStore(t)
		published := appendEvent(t, store, "reservation.created")
		dead := appendEvent(t, store, "reservation.created")

		require.NoError(t, store.MarkPublished(ctx, published.ID))
		require.NoError(t, store.MarkDead(ctx, dead.ID, "poison"))

		pending, err := store.Pending(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, pending)

		purged, err := store.Purge(ctx, time.Now().Add(time.Second))
		require.NoError(t, err)
		assert.Equal(t, int64(1), purged)
	})
}
