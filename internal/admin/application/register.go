package application

import (
	"context"
	"time"

	"github.com/felixgeelhaar/reserva/internal/admin/domain"
)

// RegisterAdminCommand creates operator credentials.
type RegisterAdminCommand struct {
	Username string
	Password string
}

// RegisterAdminHandler stores a new admin with a hashed password.
type RegisterAdminHandler struct {
	admins domain.AdminRepository
	hasher PasswordHasher
}

// NewRegisterAdminHandler creates a new RegisterAdminHandler.
func NewRegisterAdminHandler(admins domain.AdminRepository, hasher PasswordHasher) *RegisterAdminHandler {
	return &RegisterAdminHandler{admins: admins, hasher: hasher}
}

// Handle hashes the password and creates the admin.
func (h *RegisterAdminHandler) Handle(ctx context.Context, cmd RegisterAdminCommand) (*domain.Admin, error) {
	hash, err := h.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, err
	}
	admin, err := domain.NewAdmin(cmd.Username, hash, time.Now())
	if err != nil {
		return nil, err
	}
	if err := h.admins.Create(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}
