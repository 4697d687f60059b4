package domain

import (
	"time"

	reservation "github.com/felixgeelhaar/reserva/internal/reservation/domain"
)

// Session holds the selections of one user's booking conversation. A
// selection can only be read once it has been made.
type Session struct {
	UserID int64
	State  State

	duration    int
	date        time.Time
	start       reservation.TimeOfDay
	hasDuration bool
	hasDate     bool
	hasStart    bool
}

// NewSession starts a conversation at duration selection.
func NewSession(userID int64) *Session {
	return &Session{UserID: userID, State: StateDurationSelection}
}

func (s *Session) Duration() (int, bool)                { return s.duration, s.hasDuration }
func (s *Session) Date() (time.Time, bool)              { return s.date, s.hasDate }
func (s *Session) Start() (reservation.TimeOfDay, bool) { return s.start, s.hasStart }

// SelectDuration records the duration and moves to date selection.
func (s *Session) SelectDuration(minutes int) {
	s.duration, s.hasDuration = minutes, true
	s.State = StateDateSelection
}

// SelectDate records the date and moves to time selection.
func (s *Session) SelectDate(date time.Time) {
	s.date, s.hasDate = date, true
	s.State = StateTimeSelection
}

// SelectStart records the start time and moves to contact entry.
func (s *Session) SelectStart(start reservation.TimeOfDay) {
	s.start, s.hasStart = start, true
	s.State = StateContactInfo
}

// Back returns to the previous step. Earlier selections are kept; the start
// time is dropped when leaving contact entry so a fresh slot is chosen.
func (s *Session) Back() bool {
	switch s.State {
	case StateDateSelection:
		s.State = StateDurationSelection
	case StateTimeSelection:
		s.State = StateDateSelection
	case StateContactInfo:
		s.hasStart = false
		s.State = StateTimeSelection
	default:
		return false
	}
	return true
}
