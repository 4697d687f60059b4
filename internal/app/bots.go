package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/reserva/adapter/telegram/admin"
	"github.com/felixgeelhaar/reserva/adapter/telegram/booking"
	"github.com/felixgeelhaar/reserva/internal/reservation/application/services"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/reserva/internal/telegram"
	"github.com/felixgeelhaar/reserva/pkg/config"
)

// Webhook paths of the two bots, relative to WEBHOOK_URL.
const (
	BookingWebhookPath = "/telegram/booking"
	AdminWebhookPath   = "/telegram/admin"
)

// Bots runs the booking bot and the admin bot against one container.
type Bots struct {
	container     *Container
	bookingClient *telegram.Client
	adminClient   *telegram.Client
	bookingBot    *booking.Bot
	adminBot      *admin.Bot

	// Set when events are relayed in-process rather than by the worker.
	publisher eventbus.Publisher
	relay     *outbox.Relay
}

// NewBots wires both bots. Without RABBITMQ_URL the outbox is relayed
// in-process and new reservations fan out through the admin bot directly.
func NewBots(c *Container) (*Bots, error) {
	cfg := c.Config
	if cfg.BookingBotToken == "" {
		return nil, errors.New("BOOKING_BOT_TOKEN is required")
	}
	if cfg.AdminBotToken == "" {
		return nil, errors.New("ADMIN_BOT_TOKEN is required")
	}

	b := &Bots{
		container:     c,
		bookingClient: c.NewBotClient(cfg.BookingBotToken),
		adminClient:   c.NewBotClient(cfg.AdminBotToken),
	}
	b.bookingBot = booking.NewBot(b.bookingClient, c.Conversation, c.Logger)
	b.adminBot = admin.NewBot(b.adminClient, c.LoginHandler, c.DecideReservationHandler, c.Logger)

	if cfg.RabbitMQURL == "" && cfg.OutboxProcessorEnabled {
		notifier := c.NewAdminNotifier(admin.NewSender(b.adminClient))
		publisher, err := c.NewPublisher(services.NewReservationCreatedConsumer(notifier))
		if err != nil {
			return nil, err
		}
		b.publisher = publisher
		b.relay = c.NewOutboxRelay(publisher)
	}
	return b, nil
}

// Run serves updates until ctx is done.
func (b *Bots) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	if b.relay != nil {
		defer b.publisher.Close()
		g.Go(func() error { return b.relay.Run(ctx) })
	} else {
		b.container.Logger.Info("outbox relayed by worker")
	}

	g.Go(func() error {
		if b.container.Config.TelegramMode == config.TelegramModeWebhook {
			return b.runWebhook(ctx)
		}
		return b.runPolling(ctx)
	})
	return g.Wait()
}

func (b *Bots) runPolling(ctx context.Context) error {
	logger := b.container.Logger
	for name, client := range map[string]*telegram.Client{"booking": b.bookingClient, "admin": b.adminClient} {
		if err := client.DeleteWebhook(ctx); err != nil {
			logger.Warn("failed to delete webhook", "bot", name, "error", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return telegram.NewPoller(b.bookingClient, b.bookingBot).WithLogger(logger.With("bot", "booking")).Run(ctx)
	})
	g.Go(func() error {
		return telegram.NewPoller(b.adminClient, b.adminBot).WithLogger(logger.With("bot", "admin")).Run(ctx)
	})
	logger.Info("polling for updates")
	return g.Wait()
}

func (b *Bots) runWebhook(ctx context.Context) error {
	cfg := b.container.Config
	logger := b.container.Logger

	server := telegram.NewWebhookServer(cfg.WebhookSecret, b.container.Health, logger)
	server.Mount(BookingWebhookPath, b.bookingBot)
	server.Mount(AdminWebhookPath, b.adminBot)

	if cfg.WebhookURL != "" {
		if err := b.bookingClient.SetWebhook(ctx, cfg.WebhookURL+BookingWebhookPath, cfg.WebhookSecret); err != nil {
			return fmt.Errorf("failed to register booking webhook: %w", err)
		}
		if err := b.adminClient.SetWebhook(ctx, cfg.WebhookURL+AdminWebhookPath, cfg.WebhookSecret); err != nil {
			return fmt.Errorf("failed to register admin webhook: %w", err)
		}
	} else {
		logger.Warn("WEBHOOK_URL not set, assuming webhooks are registered externally")
	}

	srv := &http.Server{
		Addr:              cfg.WebhookAddr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("webhook server starting", "addr", cfg.WebhookAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
