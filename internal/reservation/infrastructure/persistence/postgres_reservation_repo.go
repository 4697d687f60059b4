package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/reserva/internal/reservation/domain"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/database"
)

const postgresSelectColumns = `id, user_id, username, date::text, start_time, duration, contact_info, confirmed, created_at`

// PostgresReservationRepository implements domain.Repository using PostgreSQL.
type PostgresReservationRepository struct {
	conn database.Connection
	loc  *time.Location
}

// NewPostgresReservationRepository creates a new PostgreSQL reservation repository.
func NewPostgresReservationRepository(conn database.Connection, loc *time.Location) *PostgresReservationRepository {
	if loc == nil {
		loc = time.Local
	}
	return &PostgresReservationRepository{conn: conn, loc: loc}
}

// Create inserts a reservation and assigns its identifier.
func (r *PostgresReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	exec := database.ExecutorFromContext(ctx, r.conn)

	var id int64
	err := exec.QueryRow(ctx, `
		INSERT INTO reservations (user_id, username, date, start_time, duration, contact_info, confirmed, created_at)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8)
		RETURNING id`,
		res.UserID(),
		res.Username(),
		res.Date().Format(domain.DateLayout),
		res.Start().String(),
		res.Duration().Minutes,
		res.ContactInfo(),
		res.IsConfirmed(),
		res.CreatedAt(),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}

	res.AssignID(id)
	return nil
}

// FindByID retrieves a reservation by its identifier.
func (r *PostgresReservationRepository) FindByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	res, err := r.scan(exec.QueryRow(ctx, `SELECT `+postgresSelectColumns+` FROM reservations WHERE id = $1`, id))
	if database.IsNoRows(err) {
		return nil, domain.ErrReservationNotFound
	}
	return res, err
}

// FindByDate retrieves the reservations on date ordered by start time.
func (r *PostgresReservationRepository) FindByDate(ctx context.Context, date time.Time) ([]*domain.Reservation, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	rows, err := exec.Query(ctx,
		`SELECT `+postgresSelectColumns+` FROM reservations WHERE date = $1::date ORDER BY start_time, id`,
		date.Format(domain.DateLayout),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// FindBetween retrieves reservations from one date through another, inclusive.
func (r *PostgresReservationRepository) FindBetween(ctx context.Context, from, to time.Time) ([]*domain.Reservation, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	rows, err := exec.Query(ctx,
		`SELECT `+postgresSelectColumns+` FROM reservations
		WHERE date BETWEEN $1::date AND $2::date
		ORDER BY date, start_time, id`,
		from.Format(domain.DateLayout), to.Format(domain.DateLayout),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// SetConfirmed persists the confirmed flag.
func (r *PostgresReservationRepository) SetConfirmed(ctx context.Context, res *domain.Reservation) error {
	exec := database.ExecutorFromContext(ctx, r.conn)

	result, err := exec.Exec(ctx, `UPDATE reservations SET confirmed = $1 WHERE id = $2`, res.IsConfirmed(), res.ID())
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

// Delete removes a reservation.
func (r *PostgresReservationRepository) Delete(ctx context.Context, id int64) (bool, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	result, err := exec.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// LockDate takes a transaction-scoped advisory lock keyed by the date. It is
// released on commit or rollback.
func (r *PostgresReservationRepository) LockDate(ctx context.Context, date time.Time) error {
	tx := database.TxFromContext(ctx)
	if tx == nil {
		return errors.New("lock date: no transaction in context")
	}
	_, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`,
		"reservations:"+date.Format(domain.DateLayout),
	)
	return err
}

func (r *PostgresReservationRepository) scan(row database.Row) (*domain.Reservation, error) {
	var (
		id, userID                     int64
		duration                       int32
		username, date, start, contact string
		confirmed                      bool
		createdAt                      time.Time
	)
	if err := row.Scan(&id, &userID, &username, &date, &start, &duration, &contact, &confirmed, &createdAt); err != nil {
		return nil, err
	}

	day, err := domain.ParseDate(date, r.loc)
	if err != nil {
		return nil, fmt.Errorf("reservation %d: %w", id, err)
	}
	tod, err := domain.ParseTimeOfDay(start)
	if err != nil {
		return nil, fmt.Errorf("reservation %d: %w", id, err)
	}

	return domain.RehydrateReservation(id, userID, username, day, tod, int(duration), contact, confirmed, createdAt), nil
}

func (r *PostgresReservationRepository) scanAll(rows database.Rows) ([]*domain.Reservation, error) {
	var reservations []*domain.Reservation
	for rows.Next() {
		res, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}
