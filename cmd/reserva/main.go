// Command reserva runs the booking bots and the operator commands.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/reserva/adapter/cli"
	cliAdmin "github.com/felixgeelhaar/reserva/adapter/cli/admin"
	"github.com/felixgeelhaar/reserva/internal/app"
	"github.com/felixgeelhaar/reserva/pkg/config"
	"github.com/felixgeelhaar/reserva/pkg/observability"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	cli.SetLogger(logger)

	// Without a container only version and help work. Development keeps
	// going so they stay usable without a database.
	var cliApp *cli.App
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		if !cfg.IsDevelopment() {
			os.Exit(1)
		}
	} else {
		defer container.Close()

		cliApp = cli.NewApp(
			container.AvailableSlotsHandler,
			container.ListReservationsHandler,
			container.RegisterAdminHandler,
			cfg.Location(),
		)
		cliApp.SetHealth(container.Health)
		cliApp.SetServerFactory(func() (cli.Server, error) {
			return app.NewBots(container)
		})
	}

	cli.SetApp(cliApp)

	cli.AddCommand(cliAdmin.Cmd)

	cli.Execute(ctx)
}

func newLogger(cfg *config.Config) *slog.Logger {
	logCfg := observability.DefaultLogConfig()
	if cfg.IsProduction() {
		logCfg = observability.ProductionLogConfig()
	}
	if cfg.LogLevel != "" {
		logCfg.Level = observability.LogLevel(cfg.LogLevel)
	}
	logCfg.ServiceVersion = cli.Version
	return observability.NewLogger(logCfg)
}
