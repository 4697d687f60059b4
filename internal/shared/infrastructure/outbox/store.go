package outbox

import (
	"context"
	"time"
)

// Writer appends messages to the outbox. Appends made with a transaction
// in ctx commit or roll back with it.
type Writer interface {
	Append(ctx context.Context, msgs ...*Message) error
}

// Store is the outbox as seen by the relay.
type Store interface {
	Writer

	// Pending returns up to limit messages that are neither published nor
	// dead and whose retry time, if any, has passed. Oldest first.
	Pending(ctx context.Context, limit int) ([]*Message, error)

	MarkPublished(ctx context.Context, id int64) error

	// MarkFailed bumps the retry count and holds the message back until retryAt.
	MarkFailed(ctx context.Context, id int64, reason string, retryAt time.Time) error

	MarkDead(ctx context.Context, id int64, reason string) error

	// Purge deletes messages published before cutoff.
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}
