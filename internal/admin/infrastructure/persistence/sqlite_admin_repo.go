package persistence

import (
	"context"
	"time"

	"github.com/felixgeelhaar/reserva/internal/admin/domain"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/database"
)

const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// SQLiteAdminRepository implements domain.AdminRepository using SQLite.
type SQLiteAdminRepository struct {
	conn database.Connection
}

// NewSQLiteAdminRepository creates a new SQLite admin repository.
func NewSQLiteAdminRepository(conn database.Connection) *SQLiteAdminRepository {
	return &SQLiteAdminRepository{conn: conn}
}

// Create inserts an admin. A taken username yields ErrAdminExists.
func (r *SQLiteAdminRepository) Create(ctx context.Context, admin *domain.Admin) error {
	exec := database.ExecutorFromContext(ctx, r.conn)

	var id int64
	err := exec.QueryRow(ctx, `
		INSERT INTO admins (username, password_hash, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (username) DO NOTHING
		RETURNING id`,
		admin.Username(), admin.PasswordHash(), formatTime(admin.CreatedAt()),
	).Scan(&id)
	if database.IsNoRows(err) {
		return domain.ErrAdminExists
	}
	if err != nil {
		return err
	}
	admin.AssignID(id)
	return nil
}

// FindByUsername retrieves an admin by username.
func (r *SQLiteAdminRepository) FindByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	var (
		id                 int64
		name, hash, issued string
	)
	err := exec.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at FROM admins WHERE username = ?`, username,
	).Scan(&id, &name, &hash, &issued)
	if database.IsNoRows(err) {
		return nil, domain.ErrAdminNotFound
	}
	if err != nil {
		return nil, err
	}
	return domain.RehydrateAdmin(id, name, hash, parseTime(issued)), nil
}

// List returns all admins ordered by username.
func (r *SQLiteAdminRepository) List(ctx context.Context) ([]*domain.Admin, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	rows, err := exec.Query(ctx, `SELECT id, username, password_hash, created_at FROM admins ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []*domain.Admin
	for rows.Next() {
		var (
			id                 int64
			name, hash, issued string
		)
		if err := rows.Scan(&id, &name, &hash, &issued); err != nil {
			return nil, err
		}
		admins = append(admins, domain.RehydrateAdmin(id, name, hash, parseTime(issued)))
	}
	return admins, rows.Err()
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(sqliteTimeLayout, s)
	return t
}
