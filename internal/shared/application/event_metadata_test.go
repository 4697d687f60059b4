package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/felixgeelhaar/reserva/internal/shared/domain"
	"github.com/felixgeelhaar/reserva/pkg/observability"
)

func TestCommandMetadata(t *testing.T) {
	t.Run("fresh ids without a request", func(t *testing.T) {
		metadata := CommandMetadata(context.Background(), "1001")

		assert.Equal(t, "1001", metadata.Actor)
		assert.NotEqual(t, uuid.Nil, metadata.CorrelationID)
		assert.NotEqual(t, uuid.Nil, metadata.CausationID)
	})

	t.Run("joins the request correlation id", func(t *testing.T) {
		correlationID := uuid.New()
		ctx := observability.WithCorrelationID(context.Background(), correlationID.String())

		assert.Equal(t, correlationID, CommandMetadata(ctx, "1001").CorrelationID)
	})

	t.Run("replaces a malformed correlation id", func(t *testing.T) {
		ctx := observability.WithCorrelationID(context.Background(), "not-a-uuid")

		assert.NotEqual(t, uuid.Nil, CommandMetadata(ctx, "1001").CorrelationID)
	})
}

type stampable struct {
	domain.BaseEvent
}

// sealed implements DomainEvent without a metadata setter.
type sealed struct{}

func (sealed) EventID() uuid.UUID             { return uuid.Nil }
func (sealed) AggregateID() string            { return "" }
func (sealed) AggregateType() string          { return "test" }
func (sealed) RoutingKey() string             { return "test.sealed" }
func (sealed) OccurredAt() time.Time          { return time.Time{} }
func (sealed) Metadata() domain.EventMetadata { return domain.EventMetadata{} }

func TestStamp(t *testing.T) {
	metadata := CommandMetadata(context.Background(), "1001")
	event := &stampable{BaseEvent: domain.NewBaseEvent("7", "test", "test.created")}

	assert.NotPanics(t, func() {
		Stamp([]domain.DomainEvent{event, sealed{}}, metadata)
		Stamp(nil, metadata)
	})
	assert.Equal(t, metadata, event.Metadata())
	assert.Equal(t, domain.EventMetadata{}, sealed{}.Metadata())
}
