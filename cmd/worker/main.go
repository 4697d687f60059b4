// Command worker relays the outbox to RabbitMQ and announces new
// reservations to the admins.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/reserva/adapter/telegram/admin"
	"github.com/felixgeelhaar/reserva/internal/app"
	"github.com/felixgeelhaar/reserva/internal/reservation/application/services"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/reserva/pkg/config"
	"github.com/felixgeelhaar/reserva/pkg/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logConfig := observability.DefaultLogConfig()
	if cfg.IsProduction() {
		logConfig = observability.ProductionLogConfig()
	}
	logConfig.Level = observability.LogLevel(cfg.LogLevel)
	logConfig.ServiceName = "reserva-worker"
	logger := observability.NewLogger(logConfig)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer container.Close()

	var handlers []eventbus.Handler
	if cfg.AdminBotToken != "" {
		sender := admin.NewSender(container.NewBotClient(cfg.AdminBotToken))
		handlers = append(handlers, services.NewReservationCreatedConsumer(container.NewAdminNotifier(sender)))
	} else {
		logger.Warn("ADMIN_BOT_TOKEN not set, admin notifications disabled")
	}

	publisher, err := container.NewPublisher(handlers...)
	if err != nil {
		if !cfg.IsDevelopment() {
			return err
		}
		logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
		publisher = eventbus.Discard{}
	}
	defer publisher.Close()

	relay := container.NewOutboxRelay(publisher)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return relay.Run(ctx) })
	g.Go(func() error { return purgeLoop(ctx, container.Outbox, cfg, logger) })
	g.Go(func() error { return statsLoop(ctx, relay, cfg.OutboxStatsInterval, logger) })

	if cfg.RabbitMQURL != "" && len(handlers) > 0 {
		router := eventbus.NewRouter(logger)
		for _, h := range handlers {
			router.Add(h)
		}
		consumer, err := eventbus.NewAMQPConsumer(cfg.RabbitMQURL, eventbus.NotificationQueue, router, logger)
		if err != nil {
			return err
		}
		defer consumer.Close()
		g.Go(func() error { return consumer.Run(ctx) })
	}

	if cfg.WorkerHealthAddr != "" {
		srv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           healthRouter(container.Health, relay),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("health server starting", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	logger.Info("worker running", "rabbitmq", cfg.RabbitMQURL != "", "handlers", len(handlers))
	return g.Wait()
}

// purgeLoop deletes published messages older than the retention period.
func purgeLoop(ctx context.Context, store outbox.Store, cfg *config.Config, logger *slog.Logger) error {
	ticker := time.NewTicker(cfg.OutboxCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -cfg.OutboxRetentionDays)
			purged, err := store.Purge(ctx, cutoff)
			if err != nil {
				logger.Error("outbox purge failed", "error", err)
				continue
			}
			if purged > 0 {
				logger.Info("outbox purged", "deleted", purged, "cutoff", cutoff)
			}
		}
	}
}

func statsLoop(ctx context.Context, relay *outbox.Relay, interval time.Duration, logger *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			stats := relay.Stats()
			logger.Info("outbox stats",
				"published", stats.Published,
				"failed", stats.Failed,
				"dead", stats.Dead,
				"lag", stats.Lag,
				"last_error", stats.LastError,
			)
		}
	}
}

func healthRouter(health *observability.HealthRegistry, relay *outbox.Relay) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		stats := relay.Stats()
		status := http.StatusOK
		if !stats.Running {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]any{
			"running":       stats.Running,
			"published":     stats.Published,
			"failed":        stats.Failed,
			"dead":          stats.Dead,
			"lag_seconds":   stats.Lag.Seconds(),
			"last_flush_at": stats.LastFlushAt,
			"last_error":    stats.LastError,
		})
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		result := health.Check(checkCtx)
		status := http.StatusOK
		if result.Status == observability.HealthStatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, result)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
