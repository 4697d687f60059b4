package observability

import (
	"context"

	"github.com/google/uuid"
)

// Attribute keys shared by log records and metric tags.
const (
	CorrelationIDKey = "correlation_id"
	RequestIDKey     = "request_id"
	ChatIDKey        = "chat_id"
	OperationKey     = "operation"
	DurationKey      = "duration_ms"
	ErrorKey         = "error"
)

type ctxKey uint8

const (
	correlationKey ctxKey = iota
	requestKey
	chatKey
)

func with(ctx context.Context, key ctxKey, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

func lookup(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// WithCorrelationID tags ctx with the id that ties a user action to
// everything it causes downstream. An empty id is replaced by a new UUID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return with(ctx, correlationKey, id)
}

func CorrelationIDFromContext(ctx context.Context) string { return lookup(ctx, correlationKey) }

// WithRequestID tags ctx with the id of a single inbound update.
// An empty id is replaced by a new UUID.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return with(ctx, requestKey, id)
}

func RequestIDFromContext(ctx context.Context) string { return lookup(ctx, requestKey) }

// WithChatID tags ctx with the Telegram chat being served.
func WithChatID(ctx context.Context, chatID string) context.Context {
	return with(ctx, chatKey, chatID)
}

func ChatIDFromContext(ctx context.Context) string { return lookup(ctx, chatKey) }

// NewRequestContext starts handling of one update: a fresh request id and
// the given correlation id, or a new one.
func NewRequestContext(ctx context.Context, correlationID string) context.Context {
	return WithCorrelationID(WithRequestID(ctx, ""), correlationID)
}
