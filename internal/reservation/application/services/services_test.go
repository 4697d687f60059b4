package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adminDomain "github.com/felixgeelhaar/reserva/internal/admin/domain"
	"github.com/felixgeelhaar/reserva/internal/reservation/domain"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/reserva/pkg/observability"
)

type staticSessions struct {
	chatIDs []string
	err     error
	calls   int
}

func (s *staticSessions) List(context.Context) ([]*adminDomain.Session, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	sessions := make([]*adminDomain.Session, len(s.chatIDs))
	for i, id := range s.chatIDs {
		sessions[i] = &adminDomain.Session{ChatID: id}
	}
	return sessions, nil
}

type recordingSender struct {
	mu      sync.Mutex
	sent    map[string]Notification
	failFor map[string]error
	block   map[string]bool
}

func newRecordingSender() *recordingSender {
	return &recordingSender{sent: map[string]Notification{}, failFor: map[string]error{}, block: map[string]bool{}}
}

func (s *recordingSender) Send(ctx context.Context, chatID string, n Notification) error {
	if s.block[chatID] {
		<-ctx.Done()
		return ctx.Err()
	}
	if err := s.failFor[chatID]; err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent[chatID] = n
	return nil
}

// gatedSender fails chat "1" and holds the other chats until that failure
// happened, then records whether their context was still usable.
type gatedSender struct {
	mu     sync.Mutex
	failed chan struct{}
	live   map[string]bool
}

func (s *gatedSender) Send(ctx context.Context, chatID string, _ Notification) error {
	if chatID == "1" {
		close(s.failed)
		return errors.New("chat not found")
	}
	<-s.failed
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live[chatID] = ctx.Err() == nil
	return ctx.Err()
}

var summary = Summary{
	ReservationID:   7,
	Date:            "2024-06-10",
	StartTime:       "18:30",
	DurationMinutes: 90,
	ContactInfo:     "Олена +380501234567",
	Username:        "olena",
}

func TestNewReservationNotification(t *testing.T) {
	n := NewReservationNotification(summary)

	assert.Equal(t,
		"🔔 Нове бронювання на 2024-06-10 о 18:30 на 1.5 години.\n"+
			"📋 Контактні дані: Олена +380501234567\n"+
			"💬 Telegram: @olena",
		n.Text)
	assert.Equal(t, []Button{
		{Text: "✅ Confirm", Data: "confirm:7"},
		{Text: "❌ Cancel", Data: "cancel:7"},
	}, n.Buttons)

	whole := summary
	whole.DurationMinutes = 120
	assert.Contains(t, NewReservationNotification(whole).Text, "на 2 години")
}

func TestAdminNotifier_NotifyAdmins(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to every admin", func(t *testing.T) {
		sessions := &staticSessions{chatIDs: []string{"1", "2", "3"}}
		sender := newRecordingSender()
		metrics := observability.NewInMemoryMetrics()

		report := NewAdminNotifier(sessions, sender, 2, time.Second).WithMetrics(metrics).NotifyAdmins(ctx, summary)

		assert.Equal(t, DeliveryReport{Delivered: 3}, report)
		assert.Len(t, sender.sent, 3)
		assert.Equal(t, int64(3), metrics.CounterValue(observability.MetricNotificationsDelivered))
	})

	t.Run("one failing chat does not stop the others", func(t *testing.T) {
		sessions := &staticSessions{chatIDs: []string{"1", "2", "3"}}
		sender := newRecordingSender()
		sender.failFor["2"] = errors.New("bot was blocked by the user")
		metrics := observability.NewInMemoryMetrics()

		report := NewAdminNotifier(sessions, sender, 1, time.Second).WithMetrics(metrics).NotifyAdmins(ctx, summary)

		assert.Equal(t, DeliveryReport{Delivered: 2, Failed: 1}, report)
		assert.Contains(t, sender.sent, "1")
		assert.Contains(t, sender.sent, "3")
		assert.Equal(t, int64(1), metrics.CounterValue(observability.MetricNotificationsFailed))
	})

	t.Run("a failure leaves parallel sends running", func(t *testing.T) {
		sessions := &staticSessions{chatIDs: []string{"1", "2", "3"}}
		sender := &gatedSender{failed: make(chan struct{}), live: map[string]bool{}}

		report := NewAdminNotifier(sessions, sender, 3, time.Second).NotifyAdmins(ctx, summary)

		assert.Equal(t, DeliveryReport{Delivered: 2, Failed: 1}, report)
		assert.Equal(t, map[string]bool{"2": true, "3": true}, sender.live)
	})

	t.Run("a hanging chat times out alone", func(t *testing.T) {
		sessions := &staticSessions{chatIDs: []string{"1", "2"}}
		sender := newRecordingSender()
		sender.block["1"] = true

		report := NewAdminNotifier(sessions, sender, 2, 20*time.Millisecond).NotifyAdmins(ctx, summary)

		assert.Equal(t, DeliveryReport{Delivered: 1, Failed: 1}, report)
	})

	t.Run("sessions are read on every call", func(t *testing.T) {
		sessions := &staticSessions{chatIDs: []string{"1"}}
		sender := newRecordingSender()
		notifier := NewAdminNotifier(sessions, sender, 1, time.Second)

		notifier.NotifyAdmins(ctx, summary)
		sessions.chatIDs = append(sessions.chatIDs, "2")
		report := notifier.NotifyAdmins(ctx, summary)

		assert.Equal(t, 2, sessions.calls)
		assert.Equal(t, 2, report.Delivered)
	})

	t.Run("listing failure delivers nothing", func(t *testing.T) {
		sessions := &staticSessions{err: errors.New("db down")}

		report := NewAdminNotifier(sessions, newRecordingSender(), 1, time.Second).NotifyAdmins(ctx, summary)

		assert.Equal(t, DeliveryReport{}, report)
	})

	t.Run("no admins is fine", func(t *testing.T) {
		report := NewAdminNotifier(&staticSessions{}, newRecordingSender(), 1, time.Second).NotifyAdmins(ctx, summary)

		assert.Equal(t, DeliveryReport{}, report)
	})
}

func TestReservationCreatedConsumer(t *testing.T) {
	ctx := context.Background()
	sessions := &staticSessions{chatIDs: []string{"1001"}}
	sender := newRecordingSender()
	consumer := NewReservationCreatedConsumer(NewAdminNotifier(sessions, sender, 1, time.Second))

	assert.Equal(t, []string{domain.RoutingKeyReservationCreated}, consumer.RoutingKeys())

	t.Run("notifies from the event payload", func(t *testing.T) {
		res, err := domain.NewReservation(42, "olena", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			domain.NewTimeOfDay(18, 30), 90, "Олена", time.Now())
		require.NoError(t, err)
		res.AssignID(7)
		payload, err := json.Marshal(res.DomainEvents()[0])
		require.NoError(t, err)

		err = consumer.Handle(ctx, &eventbus.Envelope{
			RoutingKey: domain.RoutingKeyReservationCreated,
			Payload:    payload,
		})

		require.NoError(t, err)
		require.Contains(t, sender.sent, "1001")
		assert.Contains(t, sender.sent["1001"].Text, "2024-06-10 о 18:30 на 1.5 години")
		assert.Equal(t, "confirm:7", sender.sent["1001"].Buttons[0].Data)
	})

	t.Run("malformed payload is an error", func(t *testing.T) {
		err := consumer.Handle(ctx, &eventbus.Envelope{
			RoutingKey: domain.RoutingKeyReservationCreated,
			Payload:    json.RawMessage(`"nope"`),
		})

		assert.Error(t, err)
	})

	t.Run("delivery failure is swallowed", func(t *testing.T) {
		failing := newRecordingSender()
		failing.failFor["1001"] = errors.New("forbidden")
		c := NewReservationCreatedConsumer(NewAdminNotifier(sessions, failing, 1, time.Second))

		err := c.Handle(ctx, &eventbus.Envelope{Payload: json.RawMessage(`{"reservation_id":7}`)})

		assert.NoError(t, err)
	})
}
