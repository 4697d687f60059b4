package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	_ "github.com/lib/pq" // database/sql driver for the Postgres runner

	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var migrationsFS embed.FS

// execer runs one migration file.
type execer func(ctx context.Context, query string) error

// Run applies the embedded migrations for the connection's driver. Postgres
// files hold several statements each, so they run through lib/pq on
// databaseURL rather than the pgx pool.
func Run(ctx context.Context, conn database.Connection, databaseURL string) error {
	switch conn.Driver() {
	case database.DriverSQLite:
		return RunSQLite(ctx, conn)
	case database.DriverPostgres:
		return RunPostgres(ctx, databaseURL)
	default:
		return fmt.Errorf("no migrations for driver %s", conn.Driver())
	}
}

// RunSQLite executes all SQLite migrations in order.
func RunSQLite(ctx context.Context, exec database.Executor) error {
	return apply(ctx, "sqlite", func(ctx context.Context, query string) error {
		_, err := exec.Exec(ctx, query)
		return err
	})
}

// RunPostgres executes all PostgreSQL migrations in order.
func RunPostgres(ctx context.Context, databaseURL string) error {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open postgres for migrations: %w", err)
	}
	defer db.Close()

	return apply(ctx, "postgres", func(ctx context.Context, query string) error {
		_, err := db.ExecContext(ctx, query)
		return err
	})
}

func apply(ctx context.Context, dir string, exec execer) error {
	files, err := upFiles(dir)
	if err != nil {
		return err
	}

	// Every statement is CREATE ... IF NOT EXISTS, so reapplying is a no-op.
	for _, file := range files {
		migration, err := migrationsFS.ReadFile(dir + "/" + file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		if err := exec(ctx, string(migration)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
	}
	return nil
}

func upFiles(dir string) ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
