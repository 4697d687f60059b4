package domain

import "time"

// ValidateNewReservation checks a proposed booking against the clock and the
// bookings already on that date. It returns a *RejectionError wrapping one of
// ErrInPast, ErrOutsideBusinessHours, ErrOffGrid or ErrOverlapsExisting, and
// nil when the booking may be committed. It accepts exactly the starts that
// AvailableSlots would offer for the same inputs.
func ValidateNewReservation(date time.Time, start TimeOfDay, durationMinutes int, now time.Time, existing []Interval) error {
	if _, err := LookupDuration(durationMinutes); err != nil {
		return reject(ErrInvalidDuration)
	}
	if !start.On(date).After(now) {
		return reject(ErrInPast)
	}

	candidate := NewInterval(start, durationMinutes)
	if candidate.Start < OpeningTime || candidate.End > ClosingTime {
		return reject(ErrOutsideBusinessHours)
	}
	if int(candidate.Start-OpeningTime)%SlotStep != 0 {
		return reject(ErrOffGrid)
	}
	if overlapsAny(candidate, existing) {
		return reject(ErrOverlapsExisting)
	}
	return nil
}
