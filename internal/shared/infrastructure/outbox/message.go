package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/reserva/internal/shared/domain"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/eventbus"
)

// Message is a domain event stored for later delivery.
type Message struct {
	ID            int64
	EventID       uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	RoutingKey    string
	Payload       json.RawMessage
	Metadata      json.RawMessage
	CreatedAt     time.Time
	RetryCount    int
	LastError     string
}

// NewMessage captures event for the outbox. The routing key doubles as the
// event type.
func NewMessage(event domain.DomainEvent) (*Message, error) {
	msg := &Message{
		EventID:       event.EventID(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		EventType:     event.RoutingKey(),
		RoutingKey:    event.RoutingKey(),
		CreatedAt:     event.OccurredAt(),
	}
	var err error
	if msg.Payload, err = json.Marshal(event); err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", msg.RoutingKey, err)
	}
	if msg.Metadata, err = json.Marshal(event.Metadata()); err != nil {
		return nil, fmt.Errorf("encode %s metadata: %w", msg.RoutingKey, err)
	}
	return msg, nil
}

// Envelope encodes the message as an eventbus.Envelope.
func (m *Message) Envelope() ([]byte, error) {
	return json.Marshal(eventbus.Envelope{
		EventID:       m.EventID,
		AggregateID:   m.AggregateID,
		AggregateType: m.AggregateType,
		RoutingKey:    m.RoutingKey,
		OccurredAt:    m.CreatedAt,
		Payload:       m.Payload,
		Trace:         m.trace(),
	})
}

// trace extracts the tracing fields from the stored metadata. Unreadable
// metadata yields empty fields rather than blocking delivery.
func (m *Message) trace() eventbus.Trace {
	var metadata domain.EventMetadata
	if len(m.Metadata) == 0 || json.Unmarshal(m.Metadata, &metadata) != nil {
		return eventbus.Trace{}
	}
	trace := eventbus.Trace{Actor: metadata.Actor}
	if metadata.CorrelationID != uuid.Nil {
		trace.CorrelationID = metadata.CorrelationID.String()
	}
	if metadata.CausationID != uuid.Nil {
		trace.CausationID = metadata.CausationID.String()
	}
	return trace
}
