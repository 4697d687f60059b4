// Package domain holds the building blocks shared by aggregates: events and
// the recorder that collects them until they are written to the outbox.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact recorded by an aggregate.
type DomainEvent interface {
	EventID() uuid.UUID
	AggregateID() string
	AggregateType() string
	RoutingKey() string
	OccurredAt() time.Time
	Metadata() EventMetadata
}

// EventMetadata ties an event to the command that produced it.
type EventMetadata struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	CausationID   uuid.UUID `json:"causation_id"`
	// Actor is the chat or user id behind the command.
	Actor string `json:"actor,omitempty"`
}

// BaseEvent implements DomainEvent for embedding. Its fields are unexported
// so marshalling the embedding event yields only its own payload.
type BaseEvent struct {
	id            uuid.UUID
	aggregateID   string
	aggregateType string
	routingKey    string
	at            time.Time
	metadata      EventMetadata
}

func NewBaseEvent(aggregateID, aggregateType, routingKey string) BaseEvent {
	return BaseEvent{
		id:            uuid.New(),
		aggregateID:   aggregateID,
		aggregateType: aggregateType,
		routingKey:    routingKey,
		at:            time.Now().UTC(),
	}
}

func (e BaseEvent) EventID() uuid.UUID      { return e.id }
func (e BaseEvent) AggregateID() string     { return e.aggregateID }
func (e BaseEvent) AggregateType() string   { return e.aggregateType }
func (e BaseEvent) RoutingKey() string      { return e.routingKey }
func (e BaseEvent) OccurredAt() time.Time   { return e.at }
func (e BaseEvent) Metadata() EventMetadata { return e.metadata }

func (e *BaseEvent) SetMetadata(metadata EventMetadata) {
	e.metadata = metadata
}

// EventSource is an aggregate with events waiting to be stored.
type EventSource interface {
	DomainEvents() []DomainEvent
	ClearDomainEvents()
}

// EventRecorder collects events for the aggregate that embeds it.
type EventRecorder struct {
	pending []DomainEvent
}

// Record appends an event.
func (r *EventRecorder) Record(event DomainEvent) {
	r.pending = append(r.pending, event)
}

func (r *EventRecorder) DomainEvents() []DomainEvent { return r.pending }

func (r *EventRecorder) ClearDomainEvents() { r.pending = nil }
