package domain

import (
	"context"
	"time"
)

// Repository defines the interface for reservation persistence.
type Repository interface {
	// Create inserts r and assigns its identifier through AssignID.
	Create(ctx context.Context, r *Reservation) error

	// FindByID returns ErrReservationNotFound when no row has id.
	FindByID(ctx context.Context, id int64) (*Reservation, error)

	// FindByDate returns the reservations on date ordered by start time.
	FindByDate(ctx context.Context, date time.Time) ([]*Reservation, error)

	// FindBetween returns reservations with from <= date <= to.
	FindBetween(ctx context.Context, from, to time.Time) ([]*Reservation, error)

	// SetConfirmed persists the confirmed flag of r.
	SetConfirmed(ctx context.Context, r *Reservation) error

	// Delete removes the reservation. It reports false when nothing matched.
	Delete(ctx context.Context, id int64) (bool, error)

	// LockDate serializes writers for date until the surrounding
	// transaction ends. Call it inside a unit of work.
	LockDate(ctx context.Context, date time.Time) error
}

// DateLocker serializes commits for one calendar date across goroutines or
// processes. The returned release function is safe to call once.
type DateLocker interface {
	Lock(ctx context.Context, date time.Time) (release func(), err error)
}
