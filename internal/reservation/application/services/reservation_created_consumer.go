package services

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/reserva/internal/reservation/domain"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/reserva/pkg/observability"
)

// ReservationCreatedConsumer fans a committed reservation out to the admins.
type ReservationCreatedConsumer struct {
	notifier *AdminNotifier
}

// NewReservationCreatedConsumer creates a new ReservationCreatedConsumer.
func NewReservationCreatedConsumer(notifier *AdminNotifier) *ReservationCreatedConsumer {
	return &ReservationCreatedConsumer{notifier: notifier}
}

// RoutingKeys returns the routing keys handled by the consumer.
func (c *ReservationCreatedConsumer) RoutingKeys() []string {
	return []string{domain.RoutingKeyReservationCreated}
}

// Handle notifies the admins. Delivery failures are not returned, so the
// event is never redelivered because one admin chat was unreachable.
func (c *ReservationCreatedConsumer) Handle(ctx context.Context, event *eventbus.Envelope) error {
	var created domain.ReservationCreated
	if err := event.DecodePayload(&created); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.RoutingKey, err)
	}
	if event.Trace.CorrelationID != "" {
		ctx = observability.WithCorrelationID(ctx, event.Trace.CorrelationID)
	}

	c.notifier.NotifyAdmins(ctx, Summary{
		ReservationID:   created.ReservationID,
		Date:            created.Date,
		StartTime:       created.StartTime,
		DurationMinutes: created.DurationMinutes,
		ContactInfo:     created.ContactInfo,
		Username:        created.Username,
	})
	return nil
}
