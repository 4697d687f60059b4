package app

import (
	"fmt"
	"time"

	adminDomain "github.com/felixgeelhaar/reserva/internal/admin/domain"
	adminPersistence "github.com/felixgeelhaar/reserva/internal/admin/infrastructure/persistence"
	reservationDomain "github.com/felixgeelhaar/reserva/internal/reservation/domain"
	reservationPersistence "github.com/felixgeelhaar/reserva/internal/reservation/infrastructure/persistence"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/outbox"
)

// stores groups every persistence port behind one connection.
type stores struct {
	reservations reservationDomain.Repository
	admins       adminDomain.AdminRepository
	sessions     adminDomain.SessionRepository
	outbox       outbox.Store
}

// openStores picks the SQL dialect of conn. Reservation dates are read
// back in loc.
func openStores(conn database.Connection, loc *time.Location) (stores, error) {
	switch d := conn.Driver(); d {
	case database.DriverPostgres:
		return stores{
			reservations: reservationPersistence.NewPostgresReservationRepository(conn, loc),
			admins:       adminPersistence.NewPostgresAdminRepository(conn),
			sessions:     adminPersistence.NewPostgresSessionRepository(conn),
			outbox:       outbox.NewPostgresStore(conn),
		}, nil
	case database.DriverSQLite:
		return stores{
			reservations: reservationPersistence.NewSQLiteReservationRepository(conn, loc),
			admins:       adminPersistence.NewSQLiteAdminRepository(conn),
			sessions:     adminPersistence.NewSQLiteSessionRepository(conn),
			outbox:       outbox.NewSQLiteStore(conn),
		}, nil
	default:
		return stores{}, fmt.Errorf("no stores for driver %q", d)
	}
}
