package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/reserva/internal/shared/domain"
	"github.com/felixgeelhaar/reserva/pkg/observability"
)

// CommandMetadata returns the metadata for events raised by one command.
// It joins the request's correlation id when the context carries a valid
// one and gets a fresh causation id either way.
func CommandMetadata(ctx context.Context, actor string) domain.EventMetadata {
	correlationID, err := uuid.Parse(observability.CorrelationIDFromContext(ctx))
	if err != nil {
		correlationID = uuid.New()
	}
	return domain.EventMetadata{
		CorrelationID: correlationID,
		CausationID:   uuid.New(),
		Actor:         actor,
	}
}

// Stamp sets metadata on every event that accepts it.
func Stamp(events []domain.DomainEvent, metadata domain.EventMetadata) {
	for _, event := range events {
		if e, ok := event.(interface{ SetMetadata(domain.EventMetadata) }); ok {
			e.SetMetadata(metadata)
		}
	}
}
