package cli

import (
	"context"
	"time"

	adminApp "github.com/felixgeelhaar/reserva/internal/admin/application"
	"github.com/felixgeelhaar/reserva/internal/reservation/application/queries"
	"github.com/felixgeelhaar/reserva/pkg/observability"
)

// Server runs the bots until its context is done.
type Server interface {
	Run(ctx context.Context) error
}

// App holds the CLI application dependencies.
type App struct {
	// Reservation Query Handlers
	AvailableSlotsHandler   *queries.AvailableSlotsHandler
	ListReservationsHandler *queries.ListReservationsHandler

	// Admin Command Handlers
	RegisterAdminHandler *adminApp.RegisterAdminHandler

	// Health of the backing stores
	Health *observability.HealthRegistry

	// Bots, built on demand by serve
	NewServer func() (Server, error)

	// Wall clock location of the venue
	Location *time.Location
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(
	availableSlotsHandler *queries.AvailableSlotsHandler,
	listReservationsHandler *queries.ListReservationsHandler,
	registerAdminHandler *adminApp.RegisterAdminHandler,
	location *time.Location,
) *App {
	if location == nil {
		location = time.Local
	}
	return &App{
		AvailableSlotsHandler:   availableSlotsHandler,
		ListReservationsHandler: listReservationsHandler,
		RegisterAdminHandler:    registerAdminHandler,
		Location:                location,
	}
}

// SetHealth updates the health registry.
func (a *App) SetHealth(health *observability.HealthRegistry) {
	a.Health = health
}

// SetServerFactory updates the factory serve uses to build the bots.
func (a *App) SetServerFactory(factory func() (Server, error)) {
	a.NewServer = factory
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
