package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	conversation "github.com/felixgeelhaar/reserva/internal/conversation/domain"
	"github.com/felixgeelhaar/reserva/internal/reservation/application/commands"
	"github.com/felixgeelhaar/reserva/internal/reservation/application/queries"
	"github.com/felixgeelhaar/reserva/internal/reservation/domain"
	sharedApplication "github.com/felixgeelhaar/reserva/internal/shared/application"
	"github.com/felixgeelhaar/reserva/pkg/observability"
)

// ReservationCreator commits a finished booking.
type ReservationCreator interface {
	Handle(ctx context.Context, cmd commands.CreateReservationCommand) (*domain.Reservation, error)
}

// SlotFinder lists the free start times of a date.
type SlotFinder interface {
	Handle(ctx context.Context, query queries.AvailableSlotsQuery) ([]domain.TimeOfDay, error)
}

// MachineConfig holds the venue details shown in the booking summary.
type MachineConfig struct {
	PaymentCard  string
	AdminContact string
}

// Machine drives the booking conversation: duration, then date, then start
// time, then contact info. Each user has at most one session.
type Machine struct {
	store   *conversation.SessionStore
	slots   SlotFinder
	creator ReservationCreator
	window  *queries.BookingWindowHandler
	clock   sharedApplication.Clock
	cfg     MachineConfig
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewMachine creates a new Machine.
func NewMachine(
	store *conversation.SessionStore,
	slots SlotFinder,
	creator ReservationCreator,
	clock sharedApplication.Clock,
	cfg MachineConfig,
) *Machine {
	return &Machine{
		store:   store,
		slots:   slots,
		creator: creator,
		window:  queries.NewBookingWindowHandler(clock),
		clock:   clock,
		cfg:     cfg,
		metrics: observability.NoopMetrics{},
		logger:  slog.Default(),
	}
}

// WithMetrics sets the metrics collector.
func (m *Machine) WithMetrics(metrics observability.Metrics) *Machine {
	m.metrics = metrics
	return m
}

// WithLogger sets the logger.
func (m *Machine) WithLogger(logger *slog.Logger) *Machine {
	m.logger = logger
	return m
}

// Welcome is the answer to /start.
func (m *Machine) Welcome() Reply {
	return Reply{
		Text:     textWelcome,
		Keyboard: [][]Button{{{Text: textBookButton, Data: conversation.StartAction().Data()}}},
	}
}

// Info is the answer to /info.
func (m *Machine) Info() Reply {
	return Reply{Text: textInfo, ParseMode: ParseModeMarkdown}
}

// Handle applies one action of userID. Steps of the same user are
// serialized; a cancel interrupts the step in flight. When the step is
// interrupted before anything was saved the context error is returned and
// no reply should be sent. A booking that was saved always gets its
// confirmation.
func (m *Machine) Handle(ctx context.Context, userID int64, username string, action conversation.Action) (Reply, error) {
	if action.Kind == conversation.ActionCancel {
		m.store.Interrupt(userID)
	}

	stepCtx, done := m.store.Begin(ctx, userID)
	defer done()

	reply, err := m.step(stepCtx, userID, username, action)
	if err == nil && !reply.committed {
		err = stepCtx.Err()
	}
	if err != nil {
		return Reply{}, err
	}

	state := conversation.StateNone
	if session, ok := m.store.Get(userID); ok {
		state = session.State
	}
	m.metrics.Counter(observability.MetricConversationSteps, 1,
		observability.T("action", string(action.Kind)),
		observability.T("state", state.String()),
	)

	reply.Edit = reply.Edit || action.IsCallback()
	reply.committed = false
	return reply, nil
}

func (m *Machine) step(ctx context.Context, userID int64, username string, action conversation.Action) (Reply, error) {
	switch action.Kind {
	case conversation.ActionCancel:
		if _, ok := m.store.Get(userID); !ok {
			return Reply{Text: textNothingToCancel}, nil
		}
		m.store.Delete(userID)
		return Reply{Text: textCancelled}, nil
	case conversation.ActionStart:
		m.store.Put(conversation.NewSession(userID))
		return m.durationMenu(), nil
	}

	session, ok := m.store.Get(userID)
	if !ok {
		return m.stale(), nil
	}

	switch session.State {
	case conversation.StateDurationSelection:
		if action.Kind == conversation.ActionPickDuration {
			return m.pickDuration(session, action.Value), nil
		}
	case conversation.StateDateSelection:
		switch action.Kind {
		case conversation.ActionBack:
			session.Back()
			return m.durationMenu(), nil
		case conversation.ActionPickDate:
			return m.pickDate(ctx, session, action.Value)
		}
	case conversation.StateTimeSelection:
		switch action.Kind {
		case conversation.ActionBack:
			session.Back()
			return m.dateMenu(), nil
		case conversation.ActionPickTime:
			return m.pickTime(session, action.Value), nil
		}
	case conversation.StateContactInfo:
		switch action.Kind {
		case conversation.ActionBack:
			return m.backToTime(ctx, session)
		case conversation.ActionContact:
			return m.commit(ctx, session, username, action.Value)
		}
	}

	return m.stale(), nil
}

func (m *Machine) pickDuration(session *conversation.Session, value string) Reply {
	minutes, err := strconv.Atoi(value)
	if err != nil {
		return m.durationMenu()
	}
	if _, err := domain.LookupDuration(minutes); err != nil {
		return m.durationMenu()
	}
	session.SelectDuration(minutes)
	return m.dateMenu()
}

func (m *Machine) pickDate(ctx context.Context, session *conversation.Session, value string) (Reply, error) {
	date, err := domain.ParseDate(value, m.clock.Now().Location())
	if err != nil || !m.window.Contains(date) {
		return m.dateMenu(), nil
	}
	minutes, _ := session.Duration()

	reply, ok, err := m.timeMenu(ctx, session.UserID, date, minutes)
	if err != nil || !ok {
		return reply, err
	}
	session.SelectDate(date)
	return reply, nil
}

func (m *Machine) pickTime(session *conversation.Session, value string) Reply {
	start, err := domain.ParseTimeOfDay(value)
	if err != nil {
		return m.stale()
	}
	session.SelectStart(start)
	return m.contactPrompt("")
}

func (m *Machine) backToTime(ctx context.Context, session *conversation.Session) (Reply, error) {
	date, _ := session.Date()
	minutes, _ := session.Duration()

	reply, ok, err := m.timeMenu(ctx, session.UserID, date, minutes)
	if err != nil || !ok {
		return reply, err
	}
	session.Back()
	return reply, nil
}

// timeMenu lists the free slots of date. ok is false when the reply ends or
// pauses the conversation instead of offering slots.
func (m *Machine) timeMenu(ctx context.Context, userID int64, date time.Time, minutes int) (Reply, bool, error) {
	slots, err := m.slots.Handle(ctx, queries.AvailableSlotsQuery{Date: date, DurationMinutes: minutes})
	if err != nil {
		if ctx.Err() != nil {
			return Reply{}, false, ctx.Err()
		}
		m.logger.ErrorContext(ctx, "slot lookup failed",
			observability.OperationKey, "conversation_step",
			"user_id", userID,
			"date", date.Format(domain.DateLayout),
			observability.ErrorKey, err,
		)
		return Reply{Text: textRetry}, false, nil
	}
	if len(slots) == 0 {
		m.store.Delete(userID)
		return Reply{Text: textNoSlots}, false, nil
	}

	keyboard := make([][]Button, 0, len(slots)/3+2)
	row := make([]Button, 0, 3)
	for _, slot := range slots {
		row = append(row, Button{Text: slot.String(), Data: conversation.PickTime(slot.String()).Data()})
		if len(row) == 3 {
			keyboard = append(keyboard, row)
			row = make([]Button, 0, 3)
		}
	}
	if len(row) > 0 {
		keyboard = append(keyboard, row)
	}
	keyboard = append(keyboard, backRow())

	return Reply{Text: fmt.Sprintf(textChooseTime, FormatDateUA(date)), Keyboard: keyboard}, true, nil
}

func (m *Machine) commit(ctx context.Context, session *conversation.Session, username, contact string) (Reply, error) {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return m.contactPrompt(textEmptyContact), nil
	}

	date, _ := session.Date()
	start, _ := session.Start()
	minutes, _ := session.Duration()

	reservation, err := m.creator.Handle(ctx, commands.CreateReservationCommand{
		UserID:          session.UserID,
		Username:        username,
		Date:            date,
		Start:           start,
		DurationMinutes: minutes,
		ContactInfo:     contact,
	})
	switch {
	case domain.IsRejection(err):
		return m.contactPrompt(rejectionText(err)), nil
	case err != nil:
		if ctx.Err() != nil {
			return Reply{}, ctx.Err()
		}
		m.logger.ErrorContext(ctx, "booking commit failed",
			observability.OperationKey, "conversation_step",
			"user_id", session.UserID,
			observability.ErrorKey, err,
		)
		return m.contactPrompt(textRetry), nil
	}

	m.store.Delete(session.UserID)
	return Reply{
		Text:      confirmationText(reservation, m.cfg.PaymentCard, m.cfg.AdminContact),
		ParseMode: ParseModeHTML,
		committed: true,
	}, nil
}

func (m *Machine) durationMenu() Reply {
	options := domain.DurationOptions()
	keyboard := make([][]Button, 0, len(options))
	for _, opt := range options {
		keyboard = append(keyboard, []Button{{Text: DurationLabel(opt), Data: conversation.PickDuration(opt.Minutes).Data()}})
	}
	return Reply{Text: textChooseDuration, Keyboard: keyboard}
}

func (m *Machine) dateMenu() Reply {
	dates := m.window.Handle()
	keyboard := make([][]Button, 0, len(dates)/2+2)
	row := make([]Button, 0, 2)
	for _, date := range dates {
		row = append(row, Button{Text: FormatDateUA(date), Data: conversation.PickDate(date.Format(domain.DateLayout)).Data()})
		if len(row) == 2 {
			keyboard = append(keyboard, row)
			row = make([]Button, 0, 2)
		}
	}
	if len(row) > 0 {
		keyboard = append(keyboard, row)
	}
	keyboard = append(keyboard, backRow())
	return Reply{Text: textChooseDate, Keyboard: keyboard}
}

// contactPrompt asks for contact info, prefixed by notice when set.
func (m *Machine) contactPrompt(notice string) Reply {
	text := textContactPrompt
	if notice != "" {
		text = notice + "\n\n" + textContactPrompt
	}
	return Reply{Text: text, Keyboard: [][]Button{backRow()}}
}

func (m *Machine) stale() Reply {
	return Reply{Text: textStale}
}

// IsInterrupted reports whether err means the step was cancelled and its
// reply must be dropped.
func IsInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
