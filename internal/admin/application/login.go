package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/reserva/internal/admin/domain"
	sharedApplication "github.com/felixgeelhaar/reserva/internal/shared/application"
)

// LoginCommand carries the arguments of /login.
type LoginCommand struct {
	ChatID   string
	Username string
	Password string
}

// LoginHandler authenticates an admin chat and records its session.
type LoginHandler struct {
	auth     *Authenticator
	sessions domain.SessionRepository
	clock    sharedApplication.Clock
	logger   *slog.Logger
}

// NewLoginHandler creates a new LoginHandler.
func NewLoginHandler(auth *Authenticator, sessions domain.SessionRepository, clock sharedApplication.Clock, logger *slog.Logger) *LoginHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoginHandler{auth: auth, sessions: sessions, clock: clock, logger: logger}
}

// Handle verifies the credentials and get-or-creates the chat's session. On
// failure no session is written.
func (h *LoginHandler) Handle(ctx context.Context, cmd LoginCommand) (*domain.Session, error) {
	admin, err := h.auth.Verify(ctx, cmd.Username, cmd.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "admin login failed", "username", cmd.Username, "error", err)
		return nil, err
	}

	session, err := domain.NewSession(cmd.ChatID, admin.ID(), h.now())
	if err != nil {
		return nil, err
	}
	stored, err := h.sessions.GetOrCreate(ctx, session)
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "admin logged in", "username", admin.Username())
	return stored, nil
}

func (h *LoginHandler) now() time.Time {
	if h.clock == nil {
		return time.Now()
	}
	return h.clock.Now()
}
