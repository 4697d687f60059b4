package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("admin session not authenticated")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrAdminExists        = errors.New("admin already exists")
	ErrEmptyUsername      = errors.New("username is empty")
	ErrEmptyChatID        = errors.New("chat id is empty")
)
