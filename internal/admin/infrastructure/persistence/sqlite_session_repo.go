package persistence

import (
	"context"

	"github.com/felixgeelhaar/reserva/internal/admin/domain"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/database"
)

// SQLiteSessionRepository implements domain.SessionRepository using SQLite.
type SQLiteSessionRepository struct {
	conn database.Connection
}

// NewSQLiteSessionRepository creates a new SQLite admin session repository.
func NewSQLiteSessionRepository(conn database.Connection) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{conn: conn}
}

// GetOrCreate stores the session unless the chat already has one.
func (r *SQLiteSessionRepository) GetOrCreate(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	_, err := exec.Exec(ctx, `
		INSERT INTO admin_sessions (chat_id, admin_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (chat_id) DO NOTHING`,
		session.ChatID, nullableID(session.AdminID), formatTime(session.CreatedAt),
	)
	if err != nil {
		return nil, err
	}

	return scanSession(exec.QueryRow(ctx,
		`SELECT chat_id, COALESCE(admin_id, 0), created_at FROM admin_sessions WHERE chat_id = ?`, session.ChatID,
	))
}

// Exists reports whether chatID has a session.
func (r *SQLiteSessionRepository) Exists(ctx context.Context, chatID string) (bool, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	var exists bool
	err := exec.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM admin_sessions WHERE chat_id = ?)`, chatID,
	).Scan(&exists)
	return exists, err
}

// List returns all sessions in creation order.
func (r *SQLiteSessionRepository) List(ctx context.Context) ([]*domain.Session, error) {
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
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func scanSession(row database.Row) (*domain.Session, error) {
	var (
		session domain.Session
		created string
	)
	if err := row.Scan(&session.ChatID, &session.AdminID, &created); err != nil {
		return nil, err
	}
	session.CreatedAt = parseTime(created)
	return &session, nil
}
