package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	adminApp "github.com/felixgeelhaar/reserva/internal/admin/application"
	adminDomain "github.com/felixgeelhaar/reserva/internal/admin/domain"
	conversationApp "github.com/felixgeelhaar/reserva/internal/conversation/application"
	conversationDomain "github.com/felixgeelhaar/reserva/internal/conversation/domain"
	"github.com/felixgeelhaar/reserva/internal/reservation/application/commands"
	"github.com/felixgeelhaar/reserva/internal/reservation/application/queries"
	"github.com/felixgeelhaar/reserva/internal/reservation/application/services"
	reservationDomain "github.com/felixgeelhaar/reserva/internal/reservation/domain"
	"github.com/felixgeelhaar/reserva/internal/reservation/infrastructure/locking"
	sharedApplication "github.com/felixgeelhaar/reserva/internal/shared/application"
	sharedCrypto "github.com/felixgeelhaar/reserva/internal/shared/infrastructure/crypto"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/reserva/internal/shared/infrastructure/database/postgres" // Register Postgres driver
	_ "github.com/felixgeelhaar/reserva/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/reserva/internal/telegram"
	"github.com/felixgeelhaar/reserva/pkg/config"
	"github.com/felixgeelhaar/reserva/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics observability.Metrics
	Clock   sharedApplication.Clock
	Health  *observability.HealthRegistry

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient *redis.Client

	// Repositories
	ReservationRepo reservationDomain.Repository
	AdminRepo       adminDomain.AdminRepository
	SessionRepo     adminDomain.SessionRepository
	Outbox          outbox.Store

	// Unit of Work and per-date commit lock
	UnitOfWork sharedApplication.UnitOfWork
	DateLocker reservationDomain.DateLocker

	// Reservation handlers
	CreateReservationHandler *commands.CreateReservationHandler
	DecideReservationHandler *commands.DecideReservationHandler
	AvailableSlotsHandler    *queries.AvailableSlotsHandler
	ListReservationsHandler  *queries.ListReservationsHandler
	BookingWindowHandler     *queries.BookingWindowHandler

	// Admin handlers
	LoginHandler         *adminApp.LoginHandler
	RegisterAdminHandler *adminApp.RegisterAdminHandler
	SessionGate          *adminApp.SessionGate

	// Booking conversation
	Conversation *conversationApp.Machine
}

// NewContainer connects to the configured stores, applies migrations and
// wires every handler. Redis is optional; without it commits are serialized
// in-process and by the database lock alone.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
		Clock:   sharedApplication.SystemClock{Location: cfg.Location()},
		Health:  observability.NewHealthRegistry(),
	}

	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.Driver(cfg.DatabaseDriver),
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	c.DBConn = conn
	c.DBDriver = conn.Driver()
	logger.Info("connected to database", "driver", c.DBDriver)

	if err := migrations.Run(ctx, conn, cfg.DatabaseURL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	c.Health.Register("database", observability.DatabaseHealthChecker(conn.Ping))

	if err := c.connectRedis(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	st, err := openStores(conn, cfg.Location())
	if err != nil {
		c.Close()
		return nil, err
	}
	c.ReservationRepo, c.AdminRepo, c.SessionRepo, c.Outbox = st.reservations, st.admins, st.sessions, st.outbox
	c.UnitOfWork = database.NewUnitOfWork(conn)

	if c.RedisClient != nil {
		c.DateLocker = locking.NewRedisDateLocker(c.RedisClient, 0)
	} else {
		c.DateLocker = locking.NewLocalDateLocker()
	}

	c.wireHandlers()

	logger.Info("container initialized",
		"driver", c.DBDriver,
		"redis", c.RedisClient != nil,
		"rabbitmq", cfg.RabbitMQURL != "",
	)
	return c, nil
}

func (c *Container) connectRedis(ctx context.Context) error {
	if c.Config.RedisURL == "" {
		return nil
	}
	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		c.Logger.Warn("invalid Redis URL, using in-process date lock", "error", err)
		return nil
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, using in-process date lock", "error", err)
		return nil
	}

	c.RedisClient = client
	c.Health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))
	c.Logger.Info("connected to Redis")
	return nil
}

func (c *Container) wireHandlers() {
	cfg := c.Config

	c.CreateReservationHandler = commands.NewCreateReservationHandler(c.ReservationRepo, c.Outbox, c.UnitOfWork, c.DateLocker, c.Clock).
		WithMetrics(c.Metrics).
		WithLogger(c.Logger).
		WithTimeout(cfg.CommitTimeout)
	c.AvailableSlotsHandler = queries.NewAvailableSlotsHandler(c.ReservationRepo, c.Clock)
	c.ListReservationsHandler = queries.NewListReservationsHandler(c.ReservationRepo)
	c.BookingWindowHandler = queries.NewBookingWindowHandler(c.Clock)

	hasher := sharedCrypto.NewPasswordHasher(0)
	c.SessionGate = adminApp.NewSessionGate(c.SessionRepo)
	c.LoginHandler = adminApp.NewLoginHandler(adminApp.NewAuthenticator(c.AdminRepo, hasher), c.SessionRepo, c.Clock, c.Logger)
	c.RegisterAdminHandler = adminApp.NewRegisterAdminHandler(c.AdminRepo, hasher)

	c.DecideReservationHandler = commands.NewDecideReservationHandler(c.ReservationRepo, c.Outbox, c.UnitOfWork, c.SessionGate).
		WithMetrics(c.Metrics).
		WithLogger(c.Logger).
		WithTimeout(cfg.CommitTimeout)

	c.Conversation = conversationApp.NewMachine(
		conversationDomain.NewSessionStore(),
		c.AvailableSlotsHandler,
		c.CreateReservationHandler,
		c.Clock,
		conversationApp.MachineConfig{PaymentCard: cfg.PaymentCard, AdminContact: cfg.AdminContact},
	).WithMetrics(c.Metrics).WithLogger(c.Logger)
}

// NewBotClient creates a Bot API client for token with the configured
// timeout, rate limit and breaker.
func (c *Container) NewBotClient(token string) *telegram.Client {
	return telegram.NewClient(telegram.ClientConfig{
		Token:     token,
		BaseURL:   c.Config.TelegramAPIURL,
		Timeout:   c.Config.TelegramTimeout,
		RateLimit: c.Config.TelegramRateLimit,
	}).WithMetrics(c.Metrics).WithLogger(c.Logger)
}

// NewAdminNotifier creates the fan-out that delivers through sender.
func (c *Container) NewAdminNotifier(sender services.Sender) *services.AdminNotifier {
	return services.NewAdminNotifier(c.SessionRepo, sender, c.Config.NotifyConcurrency, c.Config.TelegramTimeout).
		WithMetrics(c.Metrics).
		WithLogger(c.Logger)
}

// NewPublisher returns the RabbitMQ publisher when RABBITMQ_URL is set.
// Otherwise events go straight to handlers through an in-process bus.
func (c *Container) NewPublisher(handlers ...eventbus.Handler) (eventbus.Publisher, error) {
	if c.Config.RabbitMQURL != "" {
		publisher, err := eventbus.NewAMQPPublisher(c.Config.RabbitMQURL, c.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		return publisher, nil
	}
	return eventbus.NewLocalBus(c.Logger, handlers...), nil
}

// NewOutboxRelay creates a relay from the outbox to publisher.
func (c *Container) NewOutboxRelay(publisher eventbus.Publisher) *outbox.Relay {
	relayConfig := outbox.DefaultRelayConfig()
	relayConfig.Interval = c.Config.OutboxPollInterval
	relayConfig.BatchSize = c.Config.OutboxBatchSize
	relayConfig.MaxAttempts = c.Config.OutboxMaxRetries
	return outbox.NewRelay(c.Outbox, publisher, relayConfig, c.Logger)
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBDriver)
		}
	}
}
