package domain

import (
	"strconv"

	sharedDomain "github.com/felixgeelhaar/reserva/internal/shared/domain"
)

const (
	AggregateType = "Reservation"

	RoutingKeyReservationCreated   = "reservation.created"
	RoutingKeyReservationConfirmed = "reservation.confirmed"
	RoutingKeyReservationCancelled = "reservation.cancelled"
)

// ReservationCreated is emitted once a reservation is committed. It carries
// everything the admin notification needs.
type ReservationCreated struct {
	sharedDomain.BaseEvent
	ReservationID   int64  `json:"reservation_id"`
	UserID          int64  `json:"user_id"`
	Username        string `json:"username"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Price           int    `json:"price"`
	ContactInfo     string `json:"contact_info"`
}

// NewReservationCreated creates a ReservationCreated event.
func NewReservationCreated(r *Reservation) *ReservationCreated {
	return &ReservationCreated{
		BaseEvent:       sharedDomain.NewBaseEvent(aggregateID(r), AggregateType, RoutingKeyReservationCreated),
		ReservationID:   r.ID(),
		UserID:          r.UserID(),
		Username:        r.Username(),
		Date:            r.Date().Format(DateLayout),
		StartTime:       r.Start().String(),
		EndTime:         r.End().String(),
		DurationMinutes: r.Duration().Minutes,
		Price:           r.Duration().Price,
		ContactInfo:     r.ContactInfo(),
	}
}

// ReservationConfirmed is emitted when an admin confirms a reservation.
type ReservationConfirmed struct {
	sharedDomain.BaseEvent
	ReservationID int64  `json:"reservation_id"`
	ConfirmedBy   string `json:"confirmed_by"`
}

// NewReservationConfirmed creates a ReservationConfirmed event.
func NewReservationConfirmed(r *Reservation, actor string) *ReservationConfirmed {
	return &ReservationConfirmed{
		BaseEvent:     sharedDomain.NewBaseEvent(aggregateID(r), AggregateType, RoutingKeyReservationConfirmed),
		ReservationID: r.ID(),
		ConfirmedBy:   actor,
	}
}

// ReservationCancelled is emitted when an admin cancels a reservation.
type ReservationCancelled struct {
	sharedDomain.BaseEvent
	ReservationID int64  `json:"reservation_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	CancelledBy   string `json:"cancelled_by"`
}

// NewReservationCancelled creates a ReservationCancelled event.
func NewReservationCancelled(r *Reservation, actor string) *ReservationCancelled {
	return &ReservationCancelled{
		BaseEvent:     sharedDomain.NewBaseEvent(aggregateID(r), AggregateType, RoutingKeyReservationCancelled),
		ReservationID: r.ID(),
		Date:          r.Date().Format(DateLayout),
		StartTime:     r.Start().String(),
		CancelledBy:   actor,
	}
}

func aggregateID(r *Reservation) string {
	return strconv.FormatInt(r.ID(), 10)
}
