package persistence

import (
	"context"
	"time"

	"github.com/felixgeelhaar/reserva/internal/admin/domain"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/database"
)

// PostgresAdminRepository implements domain.AdminRepository using PostgreSQL.
type PostgresAdminRepository struct {
	conn database.Connection
}

// NewPostgresAdminRepository creates a new PostgreSQL admin repository.
func NewPostgresAdminRepository(conn database.Connection) *PostgresAdminRepository {
	return &PostgresAdminRepository{conn: conn}
}

// Create inserts an admin. A taken username yields ErrAdminExists.
func (r *PostgresAdminRepository) Create(ctx context.Context, admin *domain.Admin) error {
	exec := database.ExecutorFromContext(ctx, r.conn)

	var id int64
	err := exec.QueryRow(ctx, `
		INSERT INTO admins (username, password_hash, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO NOTHING
		RETURNING id`,
		admin.Username(), admin.PasswordHash(), admin.CreatedAt(),
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
func (r *PostgresAdminRepository) FindByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	var (
		id         int64
		name, hash string
		createdAt  time.Time
	)
	err := exec.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at FROM admins WHERE username = $1`, username,
	).Scan(&id, &name, &hash, &createdAt)
	if database.IsNoRows(err) {
		return nil, domain.ErrAdminNotFound
	}
	if err != nil {
		return nil, err
	}
	return domain.RehydrateAdmin(id, name, hash, createdAt), nil
}

// List returns all admins ordered by username.
func (r *PostgresAdminRepository) List(ctx context.Context) ([]*domain.Admin, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	rows, err := exec.Query(ctx, `SELECT id, username, password_hash, created_at FROM admins ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []*domain.Admin
	for rows.Next() {
		var (
			id         int64
			name, hash string
			createdAt  time.Time
		)
		if err := rows.Scan(&id, &name, &hash, &createdAt); err != nil {
			return nil, err
		}
		admins = append(admins, domain.RehydrateAdmin(id, name, hash, createdAt))
	}
	return admins, rows.Err()
}
