package domain

import (
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/reserva/internal/shared/domain"
)

// Reservation is one booked interval of the table.
type Reservation struct {
	sharedDomain.EventRecorder
	id          int64
	userID      int64
	username    string
	date        time.Time
	start       TimeOfDay
	duration    DurationOption
	contactInfo string
	confirmed   bool
	createdAt   time.Time
}

// NewReservation creates an unconfirmed reservation. It has no identifier
// until the repository assigns one with AssignID.
func NewReservation(
	userID int64,
	username string,
	date time.Time,
	start TimeOfDay,
	durationMinutes int,
	contactInfo string,
	createdAt time.Time,
) (*Reservation, error) {
	duration, err := LookupDuration(durationMinutes)
	if err != nil {
		return nil, reject(ErrInvalidDuration)
	}
	contactInfo = strings.TrimSpace(contactInfo)
	if contactInfo == "" {
		return nil, reject(ErrEmptyContact)
	}

	return &Reservation{
		userID:      userID,
		username:    strings.TrimPrefix(strings.TrimSpace(username), "@"),
		date:        DateOf(date),
		start:       start,
		duration:    duration,
		contactInfo: contactInfo,
		createdAt:   createdAt,
	}, nil
}

// RehydrateReservation rebuilds a reservation from storage without
// recording events.
func RehydrateReservation(
	id, userID int64,
	username string,
	date time.Time,
	start TimeOfDay,
	durationMinutes int,
	contactInfo string,
	confirmed bool,
	createdAt time.Time,
) *Reservation {
	duration, err := LookupDuration(durationMinutes)
	if err != nil {
		// Rows written before a price change keep their length.
		duration = DurationOption{Minutes: durationMinutes}
	}
	return &Reservation{
		id:          id,
		userID:      userID,
		username:    username,
		date:        DateOf(date),
		start:       start,
		duration:    duration,
		contactInfo: contactInfo,
		confirmed:   confirmed,
		createdAt:   createdAt,
	}
}

func (r *Reservation) ID() int64                { return r.id }
func (r *Reservation) UserID() int64            { return r.userID }
func (r *Reservation) Username() string         { return r.username }
func (r *Reservation) Date() time.Time          { return r.date }
func (r *Reservation) Start() TimeOfDay         { return r.start }
func (r *Reservation) End() TimeOfDay           { return r.start.Add(r.duration.Minutes) }
func (r *Reservation) Duration() DurationOption { return r.duration }
func (r *Reservation) ContactInfo() string      { return r.contactInfo }
func (r *Reservation) IsConfirmed() bool        { return r.confirmed }
func (r *Reservation) CreatedAt() time.Time     { return r.createdAt }

// Interval returns the half-open span the reservation occupies.
func (r *Reservation) Interval() Interval {
	return NewInterval(r.start, r.duration.Minutes)
}

// AssignID sets the storage identifier of a new reservation and records
// ReservationCreated.
func (r *Reservation) AssignID(id int64) {
	r.id = id
	r.Record(NewReservationCreated(r))
}

// Confirm marks the reservation confirmed. It reports whether the flag
// changed; confirming twice records a single event.
func (r *Reservation) Confirm(actor string) bool {
	if r.confirmed {
		return false
	}
	r.confirmed = true
	r.Record(NewReservationConfirmed(r, actor))
	return true
}

// Cancel records ReservationCancelled. The repository removes the row.
func (r *Reservation) Cancel(actor string) {
	r.Record(NewReservationCancelled(r, actor))
}

// Intervals returns the intervals of reservations.
func Intervals(reservations []*Reservation) []Interval {
	intervals := make([]Interval, len(reservations))
	for i, r := range reservations {
		intervals[i] = r.Interval()
	}
	return intervals
}
