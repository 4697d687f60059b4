package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/reserva/internal/reservation/domain"
	sharedApplication "github.com/felixgeelhaar/reserva/internal/shared/application"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/reserva/pkg/observability"
)

// Decision is an admin verdict on a reservation.
type Decision string

const (
	DecisionConfirm Decision = "confirm"
	DecisionCancel  Decision = "cancel"
)

// ParseDecision maps an action tag to a Decision.
func ParseDecision(tag string) (Decision, error) {
	switch d := Decision(tag); d {
	case DecisionConfirm, DecisionCancel:
		return d, nil
	default:
		return "", fmt.Errorf("unknown decision %q", tag)
	}
}

// ActionData renders the inline action tag for a decision, e.g. "confirm:42".
func ActionData(decision Decision, reservationID int64) string {
	return string(decision) + ":" + strconv.FormatInt(reservationID, 10)
}

// ParseActionData parses an inline action tag produced by ActionData.
func ParseActionData(data string) (Decision, int64, error) {
	tag, rawID, ok := strings.Cut(data, ":")
	if !ok {
		return "", 0, fmt.Errorf("malformed action %q", data)
	}
	decision, err := ParseDecision(tag)
	if err != nil {
		return "", 0, err
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("malformed reservation id in action %q", data)
	}
	return decision, id, nil
}

// AdminGate refuses callers that have not logged in.
type AdminGate interface {
	Require(ctx context.Context, chatID string) error
}

// DecideReservationCommand is a confirm or cancel issued from an admin chat,
// either as a command or as an inline action.
type DecideReservationCommand struct {
	ChatID        string
	ReservationID int64
	Decision      Decision
}

// DecideReservationResult describes the applied decision. Changed is false
// when a confirm found the reservation already confirmed.
type DecideReservationResult struct {
	Reservation *domain.Reservation
	Changed     bool
}

// DecideReservationHandler applies admin decisions. Confirming is idempotent;
// cancelling deletes the row, so a second cancel reports not found.
type DecideReservationHandler struct {
	repo    domain.Repository
	outbox  outbox.Writer
	uow     sharedApplication.UnitOfWork
	gate    AdminGate
	metrics observability.Metrics
	logger  *slog.Logger
	timeout time.Duration
}

// NewDecideReservationHandler creates a new DecideReservationHandler.
func NewDecideReservationHandler(
	repo domain.Repository,
	writer outbox.Writer,
	uow sharedApplication.UnitOfWork,
	gate AdminGate,
) *DecideReservationHandler {
	return &DecideReservationHandler{
		repo:    repo,
		outbox:  writer,
		uow:     uow,
		gate:    gate,
		metrics: observability.NoopMetrics{},
		logger:  slog.Default(),
	}
}

// WithMetrics sets the metrics collector.
func (h *DecideReservationHandler) WithMetrics(metrics observability.Metrics) *DecideReservationHandler {
	h.metrics = metrics
	return h
}

// WithLogger sets the logger.
func (h *DecideReservationHandler) WithLogger(logger *slog.Logger) *DecideReservationHandler {
	h.logger = logger
	return h
}

// WithTimeout bounds each decision. Zero means no bound.
func (h *DecideReservationHandler) WithTimeout(timeout time.Duration) *DecideReservationHandler {
	h.timeout = timeout
	return h
}

// Handle checks the caller's admin session and applies the decision. An
// unknown id returns domain.ErrReservationNotFound without touching storage.
func (h *DecideReservationHandler) Handle(ctx context.Context, cmd DecideReservationCommand) (*DecideReservationResult, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	if err := h.gate.Require(ctx, cmd.ChatID); err != nil {
		return nil, err
	}

	logger := observability.LogOperation(h.logger, string(cmd.Decision)+"_reservation", "reservation_id", cmd.ReservationID)

	var result *DecideReservationResult
	err := sharedApplication.Atomically(ctx, h.uow, func(txCtx context.Context) error {
		reservation, err := h.repo.FindByID(txCtx, cmd.ReservationID)
		if err != nil {
			return err
		}

		changed := true
		switch cmd.Decision {
		case DecisionConfirm:
			changed = reservation.Confirm(cmd.ChatID)
			if changed {
				if err := h.repo.SetConfirmed(txCtx, reservation); err != nil {
					return err
				}
			}
		case DecisionCancel:
			reservation.Cancel(cmd.ChatID)
			deleted, err := h.repo.Delete(txCtx, reservation.ID())
			if err != nil {
				return err
			}
			if !deleted {
				return domain.ErrReservationNotFound
			}
		default:
			return fmt.Errorf("unknown decision %q", cmd.Decision)
		}

		if err := saveEvents(txCtx, h.outbox, reservation, cmd.ChatID); err != nil {
			return err
		}
		result = &DecideReservationResult{Reservation: reservation, Changed: changed}
		return nil
	})
	if err != nil {
		logger.InfoContext(ctx, "reservation decision not applied", observability.ErrorKey, err)
		return nil, err
	}

	if result.Changed {
		metric := observability.MetricReservationsConfirmed
		if cmd.Decision == DecisionCancel {
			metric = observability.MetricReservationsCancelled
		}
		h.metrics.Counter(metric, 1)
	}
	logger.InfoContext(ctx, "reservation decision applied", "changed", result.Changed)
	return result, nil
}
