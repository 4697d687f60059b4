package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/reserva/internal/reservation/domain"
)

// ReservationDTO is a data transfer object for a reservation.
type ReservationDTO struct {
	ID              int64
	UserID          int64
	Username        string
	Date            time.Time
	Start           string
	End             string
	DurationMinutes int
	Price           int
	ContactInfo     string
	Confirmed       bool
	CreatedAt       time.Time
}

// ListReservationsQuery selects reservations from one date through another.
// A zero To lists a single day.
type ListReservationsQuery struct {
	From time.Time
	To   time.Time
}

// ListReservationsHandler handles the ListReservationsQuery.
type ListReservationsHandler struct {
	repo domain.Repository
}

// NewListReservationsHandler creates a new ListReservationsHandler.
func NewListReservationsHandler(repo domain.Repository) *ListReservationsHandler {
	return &ListReservationsHandler{repo: repo}
}

// Handle executes the ListReservationsQuery.
func (h *ListReservationsHandler) Handle(ctx context.Context, query ListReservationsQuery) ([]ReservationDTO, error) {
	from := domain.DateOf(query.From)
	to := from
	if !query.To.IsZero() {
		to = domain.DateOf(query.To)
	}

	var (
		reservations []*domain.Reservation
		err          error
	)
	if to.Equal(from) {
		reservations, err = h.repo.FindByDate(ctx, from)
	} else {
		reservations, err = h.repo.FindBetween(ctx, from, to)
	}
	if err != nil {
		return nil, err
	}

	dtos := make([]ReservationDTO, len(reservations))
	for i, r := range reservations {
		dtos[i] = ToDTO(r)
	}
	return dtos, nil
}

// ToDTO converts a reservation to its DTO.
func ToDTO(r *domain.Reservation) ReservationDTO {
	return ReservationDTO{
		ID:              r.ID(),
		UserID:          r.UserID(),
		Username:        r.Username(),
		Date:            r.Date(),
		Start:           r.Start().String(),
		End:             r.End().String(),
		DurationMinutes: r.Duration().Minutes,
		Price:           r.Duration().Price,
		ContactInfo:     r.ContactInfo(),
		Confirmed:       r.IsConfirmed(),
		CreatedAt:       r.CreatedAt(),
	}
}
