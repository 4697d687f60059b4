package telegram

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Handler processes one update.
type Handler interface {
	HandleUpdate(ctx context.Context, update Update)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, update Update)

// HandleUpdate calls f.
func (f HandlerFunc) HandleUpdate(ctx context.Context, update Update) { f(ctx, update) }

// UpdateSource yields updates by long polling.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, wait time.Duration) ([]Update, error)
}

// Poller feeds long-polled updates to a Handler. Each update runs in its
// own goroutine so one slow chat never stalls the others.
type Poller struct {
	source  UpdateSource
	handler Handler
	wait    time.Duration
	backoff time.Duration
	logger  *slog.Logger
}

// NewPoller creates a new Poller.
func NewPoller(source UpdateSource, handler Handler) *Poller {
	return &Poller{
		source:  source,
		handler: handler,
		wait:    30 * time.Second,
		backoff: 3 * time.Second,
		logger:  slog.Default(),
	}
}

// WithLogger sets the logger.
func (p *Poller) WithLogger(logger *slog.Logger) *Poller {
	p.logger = logger
	return p
}

// WithWait sets the long-poll wait and the pause after a failed poll.
func (p *Poller) WithWait(wait, backoff time.Duration) *Poller {
	p.wait = wait
	p.backoff = backoff
	return p
}

// Run polls until ctx is done, then waits for in-flight updates.
func (p *Poller) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	var offset int64
	for {
		updates, err := p.source.GetUpdates(ctx, offset, p.wait)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			p.logger.Warn("get updates failed", "error", err, "retry_in", p.backoff)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.backoff):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			wg.Add(1)
			go func(update Update) {
				defer wg.Done()
				p.handler.HandleUpdate(ctx, update)
			}(update)
		}
	}
}
