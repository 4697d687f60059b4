package commands

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/reserva/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/reserva/internal/shared/domain"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/outbox"
)

// saveEvents writes the aggregate's pending events to the outbox within the
// transaction in ctx and clears them.
func saveEvents(ctx context.Context, w outbox.Writer, aggregate sharedDomain.EventSource, actor string) error {
	events := aggregate.DomainEvents()
	if len(events) == 0 {
		return nil
	}
	sharedApplication.Stamp(events, sharedApplication.CommandMetadata(ctx, actor))

	msgs := make([]*outbox.Message, 0, len(events))
	for _, event := range events {
		msg, err := outbox.NewMessage(event)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := w.Append(ctx, msgs...); err != nil {
		return err
	}
	aggregate.ClearDomainEvents()
	return nil
}
