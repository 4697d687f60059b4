package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/reserva/internal/reservation/domain"
	sharedApplication "github.com/felixgeelhaar/reserva/internal/shared/application"
)

// AvailableSlotsQuery contains the parameters for listing free start times.
type AvailableSlotsQuery struct {
	Date            time.Time
	DurationMinutes int
}

// AvailableSlotsHandler handles the AvailableSlotsQuery. It reads without
// locking; the commit re-validates.
type AvailableSlotsHandler struct {
	repo  domain.Repository
	clock sharedApplication.Clock
}

// NewAvailableSlotsHandler creates a new AvailableSlotsHandler.
func NewAvailableSlotsHandler(repo domain.Repository, clock sharedApplication.Clock) *AvailableSlotsHandler {
	return &AvailableSlotsHandler{repo: repo, clock: clock}
}

// Handle executes the AvailableSlotsQuery.
func (h *AvailableSlotsHandler) Handle(ctx context.Context, query AvailableSlotsQuery) ([]domain.TimeOfDay, error) {
	date := domain.DateOf(query.Date)
	existing, err := h.repo.FindByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	return domain.AvailableSlots(date, query.DurationMinutes, h.clock.Now(), domain.Intervals(existing)), nil
}

// BookingWindowHandler lists the dates that may be booked.
type BookingWindowHandler struct {
	clock sharedApplication.Clock
}

// NewBookingWindowHandler creates a new BookingWindowHandler.
func NewBookingWindowHandler(clock sharedApplication.Clock) *BookingWindowHandler {
	return &BookingWindowHandler{clock: clock}
}

// Handle returns today and the following days of the booking window.
func (h *BookingWindowHandler) Handle() []time.Time {
	return domain.BookingWindow(h.clock.Now())
}

// Contains reports whether date can currently be booked.
func (h *BookingWindowHandler) Contains(date time.Time) bool {
	return domain.InBookingWindow(date, h.clock.Now())
}
