package database_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/reserva/internal/shared/infrastructure/database/sqlite"
)

func newTestConnection(t *testing.T) database.Connection {
	t.Helper()
	ctx := context.Background()

	conn, err := database.NewConnection(ctx, database.Config{
		SQLitePath: filepath.Join(t.TempDir(), "uow.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	_, err = conn.Exec(ctx, `CREATE TABLE items (value TEXT NOT NULL)`)
	require.NoError(t, err)
	return conn
}

func countItems(t *testing.T, conn database.Connection) int {
	t.Helper()
	var n int
	require.NoError(t, conn.QueryRow(context.Background(), `SELECT COUNT(*) FROM items`).Scan(&n))
	return n
}

func insert(ctx context.Context, exec database.Executor, value string) error {
	_, err := exec.Exec(ctx, `INSERT INTO items (value) VALUES (?)`, value)
	return err
}

func TestDetectDriver(t *testing.T) {
	tests := map[string]database.Driver{
		"":                              database.DriverSQLite,
		"/var/lib/reserva/data.db":      database.DriverSQLite,
		"file:reserva.db":               database.DriverSQLite,
		"postgres://u:p@localhost/db":   database.DriverPostgres,
		"postgresql://u:p@localhost/db": database.DriverPostgres,
	}
	for url, want := range tests {
		assert.Equal(t, want, database.DetectDriver(url), url)
	}
}

func TestNewConnection(t *testing.T) {
	t.Run("opens the sqlite driver by default", func(t *testing.T) {
		conn := newTestConnection(t)
		assert.Equal(t, database.DriverSQLite, conn.Driver())
		assert.NoError(t, conn.Ping(context.Background()))
	})

	t.Run("unregistered driver", func(t *testing.T) {
		_, err := database.NewConnection(context.Background(), database.Config{Driver: "mysql"})
		assert.ErrorContains(t, err, `"mysql" is not registered`)
	})

	t.Run("no rows is recognised", func(t *testing.T) {
		conn := newTestConnection(t)
		var value string
		err := conn.QueryRow(context.Background(), `SELECT value FROM items`).Scan(&value)
		assert.True(t, database.IsNoRows(err))
		assert.False(t, database.IsNoRows(errors.New("boom")))
		assert.False(t, database.IsNoRows(nil))
	})
}

func TestUnitOfWork(t *testing.T) {
	t.Run("commit persists writes made through the context executor", func(t *testing.T) {
		conn := newTestConnection(t)
		uow := database.NewUnitOfWork(conn)

		txCtx, err := uow.Begin(context.Background())
		require.NoError(t, err)
		require.NoError(t, insert(txCtx, database.ExecutorFromContext(txCtx, conn), "a"))
		require.NoError(t, uow.Commit(txCtx))

		assert.Equal(t, 1, countItems(t, conn))
	})

	t.Run("rollback discards writes", func(t *testing.T) {
		conn := newTestConnection(t)
		uow := database.NewUnitOfWork(conn)

		txCtx, err := uow.Begin(context.Background())
		require.NoError(t, err)
		require.NoError(t, insert(txCtx, database.ExecutorFromContext(txCtx, conn), "a"))
		require.NoError(t, uow.Rollback(txCtx))

		assert.Equal(t, 0, countItems(t, conn))
	})

	t.Run("nested unit leaves the outer transaction open", func(t *testing.T) {
		conn := newTestConnection(t)
		uow := database.NewUnitOfWork(conn)

		outer, err := uow.Begin(context.Background())
		require.NoError(t, err)
		inner, err := uow.Begin(outer)
		require.NoError(t, err)
		assert.Same(t, database.TxFromContext(outer), database.TxFromContext(inner))

		require.NoError(t, insert(inner, database.ExecutorFromContext(inner, conn), "a"))
		require.NoError(t, uow.Commit(inner))
		require.NoError(t, uow.Rollback(outer))

		assert.Equal(t, 0, countItems(t, conn))
	})

	t.Run("commit without transaction fails", func(t *testing.T) {
		uow := database.NewUnitOfWork(newTestConnection(t))

		assert.ErrorIs(t, uow.Commit(context.Background()), database.ErrNoTransaction)
		assert.ErrorIs(t, uow.Rollback(context.Background()), database.ErrNoTransaction)
	})
}

func TestInTx(t *testing.T) {
	t.Run("commits a new transaction", func(t *testing.T) {
		conn := newTestConnection(t)
		ctx := context.Background()

		err := database.InTx(ctx, conn, func(exec database.Executor) error {
			if err := insert(ctx, exec, "a"); err != nil {
				return err
			}
			return insert(ctx, exec, "b")
		})
		require.NoError(t, err)
		assert.Equal(t, 2, countItems(t, conn))
	})

	t.Run("rolls back on error", func(t *testing.T) {
		conn := newTestConnection(t)
		ctx := context.Background()

		err := database.InTx(ctx, conn, func(exec database.Executor) error {
			require.NoError(t, insert(ctx, exec, "a"))
			return errors.New("boom")
		})
		assert.EqualError(t, err, "boom")
		assert.Equal(t, 0, countItems(t, conn))
	})

	t.Run("joins the unit of work", func(t *testing.T) {
		conn := newTestConnection(t)
		uow := database.NewUnitOfWork(conn)

		txCtx, err := uow.Begin(context.Background())
		require.NoError(t, err)
		require.NoError(t, database.InTx(txCtx, conn, func(exec database.Executor) error {
			return insert(txCtx, exec, "a")
		}))
		require.NoError(t, uow.Rollback(txCtx))

		assert.Equal(t, 0, countItems(t, conn))
	})
}
