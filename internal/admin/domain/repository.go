package domain

import "context"

// AdminRepository defines the interface for admin credential storage.
type AdminRepository interface {
	// Create returns ErrAdminExists when the username is taken.
	Create(ctx context.Context, admin *Admin) error
	// FindByUsername returns ErrAdminNotFound when no admin matches.
	FindByUsername(ctx context.Context, username string) (*Admin, error)
	List(ctx context.Context) ([]*Admin, error)
}

// SessionRepository defines the interface for admin session storage.
type SessionRepository interface {
	// GetOrCreate stores session unless its chat already has one, and
	// returns the stored session either way.
	GetOrCreate(ctx context.Context, session *Session) (*Session, error)
	Exists(ctx context.Context, chatID string) (bool, error)
	// List returns every session in creation order.
	List(ctx context.Context) ([]*Session, error)
}
