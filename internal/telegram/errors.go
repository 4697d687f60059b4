package telegram

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrCircuitOpen is returned while the circuit breaker rejects calls.
	ErrCircuitOpen = errors.New("telegram: circuit breaker open")
	// ErrMissingToken is returned when the client has no bot token.
	ErrMissingToken = errors.New("telegram: missing bot token")
)

// APIError is an unsuccessful Bot API response.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// Temporary reports whether the failure is on Telegram's side or a throttle,
// so a later retry may succeed.
func (e *APIError) Temporary() bool {
	return e.Code >= http.StatusInternalServerError || e.Code == http.StatusTooManyRequests
}

// IsNotModified reports whether an edit failed only because the message
// already has the requested content.
func IsNotModified(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && strings.Contains(apiErr.Description, "message is not modified")
}
