package eventbus

import (
	"context"
	"log/slog"
)

// LocalBus is a Publisher that routes envelopes to handlers in the same
// process, synchronously.
type LocalBus struct {
	*Router
}

func NewLocalBus(logger *slog.Logger, handlers ...Handler) *LocalBus {
	bus := &LocalBus{Router: NewRouter(logger)}
	for _, h := range handlers {
		bus.Add(h)
	}
	return bus
}

// Publish routes body. A malformed envelope is logged and dropped since a
// retry cannot fix it; handler errors are returned so the relay retries.
func (b *LocalBus) Publish(ctx context.Context, routingKey string, body []byte) error {
	env, err := Decode(body, routingKey)
	if err != nil {
		b.logger.Error("dropping malformed envelope", "routing_key", routingKey, "error", err)
		return nil
	}
	return b.Route(ctx, env)
}

func (b *LocalBus) Close() error { return nil }
