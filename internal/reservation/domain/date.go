package domain

import "time"

// DateLayout is the wire and storage format of a reservation date.
const DateLayout = "2006-01-02"

// WindowDays is how many calendar days, today included, can be booked.
const WindowDays = 14

// DateOf truncates t to midnight of its calendar day in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseDate parses a "YYYY-MM-DD" date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// BookingWindow returns the bookable dates from today through
// WindowDays-1 days ahead.
func BookingWindow(now time.Time) []time.Time {
	today := DateOf(now)
	dates := make([]time.Time, WindowDays)
	for i := range dates {
		dates[i] = today.AddDate(0, 0, i)
	}
	return dates
}

// InBookingWindow reports whether date is one of the BookingWindow dates.
func InBookingWindow(date, now time.Time) bool {
	today := DateOf(now)
	day := DateOf(date)
	return !day.Before(today) && day.Before(today.AddDate(0, 0, WindowDays))
}
