package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	adminDomain "github.com/felixgeelhaar/reserva/internal/admin/domain"
	"github.com/felixgeelhaar/reserva/internal/reservation/application/commands"
	"github.com/felixgeelhaar/reserva/pkg/observability"
)

// Button is an inline action attached to a notification.
type Button struct {
	Text string
	Data string
}

// Notification is one outbound chat message.
type Notification struct {
	Text    string
	Buttons []Button
}

// Sender delivers a notification to one chat.
type Sender interface {
	Send(ctx context.Context, chatID string, notification Notification) error
}

// SessionLister returns the logged-in admin chats.
type SessionLister interface {
	List(ctx context.Context) ([]*adminDomain.Session, error)
}

// Summary describes a new reservation for the admins.
type Summary struct {
	ReservationID   int64
	Date            string
	StartTime       string
	DurationMinutes int
	ContactInfo     string
	Username        string
}

// DeliveryReport counts the outcome of one fan-out.
type DeliveryReport struct {
	Delivered int
	Failed    int
}

// AdminNotifier sends new-reservation notices to every admin chat. Sessions
// are read on each call, and one chat failing never affects the others.
type AdminNotifier struct {
	sessions    SessionLister
	sender      Sender
	concurrency int
	timeout     time.Duration
	metrics     observability.Metrics
	logger      *slog.Logger
}

// NewAdminNotifier creates an AdminNotifier that delivers to at most
// concurrency chats at once, each bounded by timeout.
func NewAdminNotifier(sessions SessionLister, sender Sender, concurrency int, timeout time.Duration) *AdminNotifier {
	if concurrency < 1 {
		concurrency = 1
	}
	return &AdminNotifier{
		sessions:    sessions,
		sender:      sender,
		concurrency: concurrency,
		timeout:     timeout,
		metrics:     observability.NoopMetrics{},
		logger:      slog.Default(),
	}
}

// WithMetrics sets the metrics collector.
func (n *AdminNotifier) WithMetrics(metrics observability.Metrics) *AdminNotifier {
	n.metrics = metrics
	return n
}

// WithLogger sets the logger.
func (n *AdminNotifier) WithLogger(logger *slog.Logger) *AdminNotifier {
	n.logger = logger
	return n
}

// NotifyAdmins delivers the summary to each admin chat. Failures are logged
// and counted, never returned.
func (n *AdminNotifier) NotifyAdmins(ctx context.Context, summary Summary) DeliveryReport {
	logger := observability.LogOperation(n.logger, "notify_admins", "reservation_id", summary.ReservationID)

	sessions, err := n.sessions.List(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list admin sessions", observability.ErrorKey, err)
		return DeliveryReport{}
	}

	notification := NewReservationNotification(summary)

	// Sends never fail the group, so Wait only joins them and one failed
	// chat never cancels the others.
	var (
		delivered, failed atomic.Int64
		g                 errgroup.Group
	)
	g.SetLimit(n.concurrency)
	for _, session := range sessions {
		chatID := session.ChatID
		g.Go(func() error {
			sendCtx := ctx
			if n.timeout > 0 {
				var cancel context.CancelFunc
				sendCtx, cancel = context.WithTimeout(ctx, n.timeout)
				defer cancel()
			}
			if err := n.sender.Send(sendCtx, chatID, notification); err != nil {
				failed.Add(1)
				n.metrics.Counter(observability.MetricNotificationsFailed, 1)
				logger.WarnContext(ctx, "admin notification failed", "admin_chat_id", chatID, observability.ErrorKey, err)
				return nil
			}
			delivered.Add(1)
			n.metrics.Counter(observability.MetricNotificationsDelivered, 1)
			return nil
		})
	}
	_ = g.Wait()

	report := DeliveryReport{Delivered: int(delivered.Load()), Failed: int(failed.Load())}
	logger.InfoContext(ctx, "admin notification fan-out finished", "delivered", report.Delivered, "failed", report.Failed)
	return report
}

// NewReservationNotification renders the admin message for a new
// reservation with its confirm and cancel actions.
func NewReservationNotification(s Summary) Notification {
	hours := strconv.FormatFloat(float64(s.DurationMinutes)/60, 'f', -1, 64)
	text := fmt.Sprintf("🔔 Нове бронювання на %s о %s на %s години.\n", s.Date, s.StartTime, hours) +
		fmt.Sprintf("📋 Контактні дані: %s\n", s.ContactInfo) +
		fmt.Sprintf("💬 Telegram: @%s", s.Username)

	return Notification{
		Text: text,
		Buttons: []Button{
			{Text: "✅ Confirm", Data: commands.ActionData(commands.DecisionConfirm, s.ReservationID)},
			{Text: "❌ Cancel", Data: commands.ActionData(commands.DecisionCancel, s.ReservationID)},
		},
	}
}
