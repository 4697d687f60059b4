package domain

import "errors"

var (
	ErrInPast               = errors.New("in the past")
	ErrOverlapsExisting     = errors.New("overlaps existing")
	ErrOutsideBusinessHours = errors.New("outside business hours")
	ErrOffGrid              = errors.New("not on the slot grid")
	ErrInvalidDuration      = errors.New("unsupported duration")
	ErrEmptyContact         = errors.New("contact info is empty")
	ErrInvalidTimeOfDay     = errors.New("invalid time of day")
	ErrReservationNotFound  = errors.New("reservation not found")
)

// RejectionError reports a booking that failed validation. Callers re-prompt
// the user instead of failing the conversation.
type RejectionError struct {
	Reason error
}

func (e *RejectionError) Error() string {
	return "reservation rejected: " + e.Reason.Error()
}

func (e *RejectionError) Unwrap() error {
	return e.Reason
}

func reject(reason error) error {
	return &RejectionError{Reason: reason}
}

// IsRejection reports whether err is a validation rejection.
func IsRejection(err error) bool {
	var rejection *RejectionError
	return errors.As(err, &rejection)
}
