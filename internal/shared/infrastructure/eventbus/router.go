package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Router maps routing keys to handlers.
type Router struct {
	mu     sync.RWMutex
	routes map[string][]Handler
	logger *slog.Logger
}

func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{routes: map[string][]Handler{}, logger: logger}
}

// Add registers h under each of its routing keys.
func (r *Router) Add(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range h.RoutingKeys() {
		r.routes[key] = append(r.routes[key], h)
	}
}

// Handlers returns the handlers registered for key.
func (r *Router) Handlers(key string) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.routes[key]
}

// Keys returns every routing key with at least one handler.
func (r *Router) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.routes))
	for key := range r.routes {
		keys = append(keys, key)
	}
	return keys
}

// Route runs every handler for env's routing key. A failing handler does
// not stop the rest; their errors are joined.
func (r *Router) Route(ctx context.Context, env *Envelope) error {
	handlers := r.Handlers(env.RoutingKey)
	if len(handlers) == 0 {
		r.logger.Debug("no handler for event", "routing_key", env.RoutingKey)
		return nil
	}

	var errs []error
	for _, h := range handlers {
		if err := h.Handle(ctx, env); err != nil {
			r.logger.Error("event handler failed",
				"routing_key", env.RoutingKey,
				"event_id", env.EventID,
				"aggregate_id", env.AggregateID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
