package domain

import "fmt"

// DurationOption is one of the fixed booking lengths and its price in UAH.
// The price is shown to the user only; payment is never checked.
type DurationOption struct {
	Minutes int
	Price   int
}

var durationOptions = []DurationOption{
	{Minutes: 60, Price: 300},
	{Minutes: 90, Price: 450},
	{Minutes: 120, Price: 550},
	{Minutes: 180, Price: 750},
}

// DurationOptions returns the offered durations, shortest first.
func DurationOptions() []DurationOption {
	out := make([]DurationOption, len(durationOptions))
	copy(out, durationOptions)
	return out
}

// LookupDuration returns the option for minutes.
func LookupDuration(minutes int) (DurationOption, error) {
	for _, opt := range durationOptions {
		if opt.Minutes == minutes {
			return opt, nil
		}
	}
	return DurationOption{}, fmt.Errorf("%w: %d minutes", ErrInvalidDuration, minutes)
}

// PricePerHour is the effective hourly rate, rounded down.
func (d DurationOption) PricePerHour() int {
	return d.Price * 60 / d.Minutes
}

// Hours returns the duration in hours, e.g. 1.5.
func (d DurationOption) Hours() float64 {
	return float64(d.Minutes) / 60
}
