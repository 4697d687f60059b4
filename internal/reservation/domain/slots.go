package domain

import "time"

const (
	// OpeningTime is the earliest bookable start.
	OpeningTime TimeOfDay = 9 * 60
	// ClosingTime is the latest bookable end. A slot may end exactly here.
	ClosingTime TimeOfDay = 23 * 60
	// SlotStep is the spacing of candidate start times, in minutes.
	SlotStep = 30
)

// AvailableSlots lists the start times on date at which a booking of
// durationMinutes fits inside business hours without overlapping existing.
// On the current day only starts after the next SlotStep boundary past now
// are offered; past days have no slots. The result is ascending and may be
// empty.
func AvailableSlots(date time.Time, durationMinutes int, now time.Time, existing []Interval) []TimeOfDay {
	if durationMinutes <= 0 {
		return nil
	}
	start, ok := firstCandidate(date, now)
	if !ok {
		return nil
	}

	var slots []TimeOfDay
	for s := start; s.Add(durationMinutes) <= ClosingTime; s = s.Add(SlotStep) {
		if !overlapsAny(NewInterval(s, durationMinutes), existing) {
			slots = append(slots, s)
		}
	}
	return slots
}

func firstCandidate(date, now time.Time) (TimeOfDay, bool) {
	switch {
	case dayBefore(date, now):
		return 0, false
	case SameDay(date, now):
		if next := nextBoundary(now); next > OpeningTime {
			return next, true
		}
	}
	return OpeningTime, true
}

// nextBoundary is the first SlotStep boundary strictly after now. A time
// already on a boundary moves to the following one; :60 rolls into the next
// hour.
func nextBoundary(now time.Time) TimeOfDay {
	minutes := (now.Minute()/SlotStep + 1) * SlotStep
	return NewTimeOfDay(now.Hour(), 0).Add(minutes)
}

func dayBefore(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC).Before(time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC))
}

func overlapsAny(candidate Interval, existing []Interval) bool {
	for _, interval := range existing {
		if candidate.Overlaps(interval) {
			return true
		}
	}
	return false
}
