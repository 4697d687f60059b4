package application

import (
	"context"

	"github.com/felixgeelhaar/reserva/internal/admin/domain"
)

// SessionGate answers whether an admin chat has logged in.
type SessionGate struct {
	sessions domain.SessionRepository
}

// NewSessionGate creates a new SessionGate.
func NewSessionGate(sessions domain.SessionRepository) *SessionGate {
	return &SessionGate{sessions: sessions}
}

// IsAuthenticated reports whether chatID has a session.
func (g *SessionGate) IsAuthenticated(ctx context.Context, chatID string) (bool, error) {
	if chatID == "" {
		return false, nil
	}
	return g.sessions.Exists(ctx, chatID)
}

// Require returns ErrNotAuthenticated unless chatID has a session.
func (g *SessionGate) Require(ctx context.Context, chatID string) error {
	ok, err := g.IsAuthenticated(ctx, chatID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotAuthenticated
	}
	return nil
}
