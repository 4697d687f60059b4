package application

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/reserva/internal/admin/domain"
)

// PasswordHasher hashes and checks admin passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Authenticator verifies admin credentials.
type Authenticator struct {
	admins domain.AdminRepository
	hasher PasswordHasher
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(admins domain.AdminRepository, hasher PasswordHasher) *Authenticator {
	return &Authenticator{admins: admins, hasher: hasher}
}

// Verify returns the admin matching username and password. An unknown user
// and a wrong password both yield ErrInvalidCredentials.
func (a *Authenticator) Verify(ctx context.Context, username, password string) (*domain.Admin, error) {
	admin, err := a.admins.FindByUsername(ctx, username)
	if errors.Is(err, domain.ErrAdminNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := a.hasher.Compare(admin.PasswordHash(), password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return admin, nil
}
