package outbox

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/eventbus"
)

// ErrRelayRunning is returned by Run when the relay is already running.
var ErrRelayRunning = errors.New("outbox relay already running")

// RelayConfig tunes the relay loop.
type RelayConfig struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// DefaultRelayConfig polls ten times a second and gives up on a message
// after five attempts.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		Interval:    100 * time.Millisecond,
		BatchSize:   100,
		MaxAttempts: 5,
		BackoffBase: time.Second,
		BackoffMax:  time.Minute,
	}
}

// Stats is a snapshot of relay activity.
type Stats struct {
	Running     bool
	Published   uint64
	Failed      uint64
	Dead        uint64
	LastFlushAt time.Time
	LastErrorAt time.Time
	LastError   string
	// Lag is the age of the oldest message seen in the last flush.
	Lag time.Duration
}

// Relay moves messages from the outbox to a publisher.
type Relay struct {
	store     Store
	publisher eventbus.Publisher
	cfg       RelayConfig
	logger    *slog.Logger

	running   atomic.Bool
	published atomic.Uint64
	failed    atomic.Uint64
	dead      atomic.Uint64

	mu          sync.Mutex
	lastFlushAt time.Time
	lastErrorAt time.Time
	lastError   string
	lag         time.Duration
}

func NewRelay(store Store, publisher eventbus.Publisher, cfg RelayConfig, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultRelayConfig().Interval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultRelayConfig().BatchSize
	}
	return &Relay{
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.With("component", "outbox_relay"),
	}
}

// Run flushes the outbox every interval until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrRelayRunning
	}
	defer r.running.Store(false)

	r.logger.Info("outbox relay started", "interval", r.cfg.Interval, "batch_size", r.cfg.BatchSize)
	defer r.logger.Info("outbox relay stopped")

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.Flush(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("outbox flush failed", "error", err)
			}
		}
	}
}

// Flush delivers one batch of pending messages. Only a failure to read the
// outbox is returned; delivery failures are recorded on the messages.
func (r *Relay) Flush(ctx context.Context) error {
	msgs, err := r.store.Pending(ctx, r.cfg.BatchSize)
	if err != nil {
		r.noteError(err)
		return err
	}

	now := time.Now()
	r.mu.Lock()
	r.lastFlushAt = now
	r.lag = 0
	for _, msg := range msgs {
		if age := now.Sub(msg.CreatedAt); age > r.lag {
			r.lag = age
		}
	}
	r.mu.Unlock()

	for _, msg := range msgs {
		r.deliver(ctx, msg)
	}
	return nil
}

func (r *Relay) deliver(ctx context.Context, msg *Message) {
	log := r.logger.With("id", msg.ID, "event_id", msg.EventID, "routing_key", msg.RoutingKey)

	body, err := msg.Envelope()
	if err == nil {
		err = r.publisher.Publish(ctx, msg.RoutingKey, body)
	}
	if err == nil {
		if err := r.store.MarkPublished(ctx, msg.ID); err != nil {
			log.Error("failed to mark message published", "error", err)
			return
		}
		r.published.Add(1)
		return
	}

	r.noteError(err)
	attempt := msg.RetryCount + 1
	if r.cfg.MaxAttempts <= 0 || attempt >= r.cfg.MaxAttempts {
		r.dead.Add(1)
		log.Error("message dead-lettered", "attempt", attempt, "error", err)
		if markErr := r.store.MarkDead(ctx, msg.ID, err.Error()); markErr != nil {
			log.Error("failed to mark message dead", "error", markErr)
		}
		return
	}

	r.failed.Add(1)
	retryAt := time.Now().Add(Backoff(attempt, r.cfg.BackoffBase, r.cfg.BackoffMax))
	log.Warn("publish failed, will retry", "attempt", attempt, "retry_at", retryAt, "error", err)
	if markErr := r.store.MarkFailed(ctx, msg.ID, err.Error(), retryAt); markErr != nil {
		log.Error("failed to mark message failed", "error", markErr)
	}
}

func (r *Relay) noteError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastError = err.Error()
	r.lastErrorAt = time.Now()
}

// Stats returns a snapshot of the relay counters.
func (r *Relay) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Running:     r.running.Load(),
		Published:   r.published.Load(),
		Failed:      r.failed.Load(),
		Dead:        r.dead.Load(),
		LastFlushAt: r.lastFlushAt,
		LastErrorAt: r.lastErrorAt,
		LastError:   r.lastError,
		Lag:         r.lag,
	}
}

// Backoff doubles base for every attempt after the first, capped at max.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	if max <= 0 {
		max = time.Minute
	}
	delay := base
	for i := 1; i < attempt && delay < max; i++ {
		delay *= 2
	}
	return min(delay, max)
}
