package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/felixgeelhaar/reserva/internal/reservation/domain"
	sharedApplication "github.com/felixgeelhaar/reserva/internal/shared/application"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/reserva/pkg/observability"
)

// CreateReservationCommand contains the selections of a finished booking
// conversation.
type CreateReservationCommand struct {
	UserID          int64
	Username        string
	Date            time.Time
	Start           domain.TimeOfDay
	DurationMinutes int
	ContactInfo     string
}

// CreateReservationHandler commits a new reservation. The overlap check and
// the insert run in one transaction while the date is locked, so two
// overlapping commits cannot both succeed.
type CreateReservationHandler struct {
	repo    domain.Repository
	outbox  outbox.Writer
	uow     sharedApplication.UnitOfWork
	locker  domain.DateLocker
	clock   sharedApplication.Clock
	metrics observability.Metrics
	logger  *slog.Logger
	timeout time.Duration
}

// NewCreateReservationHandler creates a new CreateReservationHandler. A nil
// locker relies on the repository's LockDate alone.
func NewCreateReservationHandler(
	repo domain.Repository,
	writer outbox.Writer,
	uow sharedApplication.UnitOfWork,
	locker domain.DateLocker,
	clock sharedApplication.Clock,
) *CreateReservationHandler {
	return &CreateReservationHandler{
		repo:    repo,
		outbox:  writer,
		uow:     uow,
		locker:  locker,
		clock:   clock,
		metrics: observability.NoopMetrics{},
		logger:  slog.Default(),
	}
}

// WithMetrics sets the metrics collector.
func (h *CreateReservationHandler) WithMetrics(metrics observability.Metrics) *CreateReservationHandler {
	h.metrics = metrics
	return h
}

// WithLogger sets the logger.
func (h *CreateReservationHandler) WithLogger(logger *slog.Logger) *CreateReservationHandler {
	h.logger = logger
	return h
}

// WithTimeout bounds each commit, lock wait included. Zero means no bound.
func (h *CreateReservationHandler) WithTimeout(timeout time.Duration) *CreateReservationHandler {
	h.timeout = timeout
	return h
}

// Handle validates the booking against the committed reservations of its
// date and stores it together with its ReservationCreated outbox message.
// Validation failures are returned as *domain.RejectionError.
func (h *CreateReservationHandler) Handle(ctx context.Context, cmd CreateReservationCommand) (*domain.Reservation, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	track := observability.Track(h.metrics, "create_reservation")
	date := domain.DateOf(cmd.Date)
	logger := observability.LogOperation(h.logger, "create_reservation",
		"date", date.Format(domain.DateLayout), "start", cmd.Start.String(), "duration", cmd.DurationMinutes)

	if h.locker != nil {
		release, err := h.locker.Lock(ctx, date)
		if err != nil {
			track(err)
			return nil, fmt.Errorf("lock %s: %w", date.Format(domain.DateLayout), err)
		}
		defer release()
	}

	var created *domain.Reservation
	err := sharedApplication.Atomically(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.repo.LockDate(txCtx, date); err != nil {
			return err
		}
		existing, err := h.repo.FindByDate(txCtx, date)
		if err != nil {
			return err
		}

		now := h.clock.Now()
		if err := domain.ValidateNewReservation(date, cmd.Start, cmd.DurationMinutes, now, domain.Intervals(existing)); err != nil {
			return err
		}
		reservation, err := domain.NewReservation(cmd.UserID, cmd.Username, date, cmd.Start, cmd.DurationMinutes, cmd.ContactInfo, now)
		if err != nil {
			return err
		}
		if err := h.repo.Create(txCtx, reservation); err != nil {
			return err
		}
		if err := saveEvents(txCtx, h.outbox, reservation, strconv.FormatInt(cmd.UserID, 10)); err != nil {
			return err
		}

		created = reservation
		return nil
	})

	var rejection *domain.RejectionError
	switch {
	case errors.As(err, &rejection):
		track(nil)
		h.metrics.Counter(observability.MetricReservationsRejected, 1, observability.T("reason", rejection.Reason.Error()))
		logger.InfoContext(ctx, "reservation rejected", "reason", rejection.Reason)
		return nil, err
	case err != nil:
		track(err)
		logger.ErrorContext(ctx, "reservation commit failed", observability.ErrorKey, err)
		return nil, err
	}

	track(nil)
	h.metrics.Counter(observability.MetricReservationsCreated, 1)
	logger.InfoContext(ctx, "reservation created", "reservation_id", created.ID())
	return created, nil
}
