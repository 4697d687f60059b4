package domain

import (
	"strings"
	"time"
)

// Admin is an operator allowed to confirm and cancel reservations.
type Admin struct {
	id           int64
	username     string
	passwordHash string
	createdAt    time.Time
}

// NewAdmin creates an admin from an already hashed password.
func NewAdmin(username, passwordHash string, createdAt time.Time) (*Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrEmptyUsername
	}
	return &Admin{username: username, passwordHash: passwordHash, createdAt: createdAt}, nil
}

// RehydrateAdmin rebuilds an admin from storage.
func RehydrateAdmin(id int64, username, passwordHash string, createdAt time.Time) *Admin {
	return &Admin{id: id, username: username, passwordHash: passwordHash, createdAt: createdAt}
}

func (a *Admin) ID() int64            { return a.id }
func (a *Admin) Username() string     { return a.username }
func (a *Admin) PasswordHash() string { return a.passwordHash }
func (a *Admin) CreatedAt() time.Time { return a.createdAt }

// AssignID sets the storage identifier.
func (a *Admin) AssignID(id int64) { a.id = id }

// Session marks an admin chat as logged in. Sessions are never removed by
// the application, so a chat stays authorized once it has logged in.
type Session struct {
	ChatID    string
	AdminID   int64
	CreatedAt time.Time
}

// NewSession creates a session for chatID.
func NewSession(chatID string, adminID int64, createdAt time.Time) (*Session, error) {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return nil, ErrEmptyChatID
	}
	return &Session{ChatID: chatID, AdminID: adminID, CreatedAt: createdAt}, nil
}
