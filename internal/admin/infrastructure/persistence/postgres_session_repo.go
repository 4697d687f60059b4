package persistence

import (
	"context"

	"github.com/felixgeelhaar/reserva/internal/admin/domain"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/database"
)

// PostgresSessionRepository implements domain.SessionRepository using PostgreSQL.
type PostgresSessionRepository struct {
	conn database.Connection
}

// NewPostgresSessionRepository creates a new PostgreSQL admin session repository.
func NewPostgresSessionRepository(conn database.Connection) *PostgresSessionRepository {
	return &PostgresSessionRepository{conn: conn}
}

// GetOrCreate stores the session unless the chat already has one.
func (r *PostgresSessionRepository) GetOrCreate(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	_, err := exec.Exec(ctx, `
		INSERT INTO admin_sessions (chat_id, admin_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (chat_id) DO NOTHING`,
		session.ChatID, nullableID(session.AdminID), session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	var stored domain.Session
	err = exec.QueryRow(ctx,
		`SELECT chat_id, COALESCE(admin_id, 0), created_at FROM admin_sessions WHERE chat_id = $1`, session.ChatID,
	).Scan(&stored.ChatID, &stored.AdminID, &stored.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// Exists reports whether chatID has a session.
func (r *PostgresSessionRepository) Exists(ctx context.Context, chatID string) (bool, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	var exists bool
	err := exec.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM admin_sessions WHERE chat_id = $1)`, chatID,
	).Scan(&exists)
	return exists, err
}

// List returns all sessions in creation order.
func (r *PostgresSessionRepository) List(ctx context.Context) ([]*domain.Session, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	rows, err := exec.Query(ctx,
		`SELECT chat_id, COALESCE(admin_id, 0), created_at FROM admin_sessions ORDER BY created_at, chat_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		var session domain.Session
		if err := rows.Scan(&session.ChatID, &session.AdminID, &session.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, &session)
	}
	return sessions, rows.Err()
}
