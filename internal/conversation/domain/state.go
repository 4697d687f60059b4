package domain

// State is the step a booking conversation is waiting on.
type State int

const (
	StateNone State = iota
	StateDurationSelection
	StateDateSelection
	StateTimeSelection
	StateContactInfo
)

func (s State) String() string {
	switch s {
	case StateDurationSelection:
		return "duration_selection"
	case StateDateSelection:
		return "date_selection"
	case StateTimeSelection:
		return "time_selection"
	case StateContactInfo:
		return "contact_info"
	default:
		return "none"
	}
}
