package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/reserva/internal/reservation/domain"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/database"
)

const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z07:00"

const selectColumns = `id, user_id, username, date, start_time, duration, contact_info, confirmed, created_at`

// SQLiteReservationRepository implements domain.Repository using SQLite.
// Dates are stored as "YYYY-MM-DD" text and interpreted in loc.
type SQLiteReservationRepository struct {
	conn database.Connection
	loc  *time.Location
}

// NewSQLiteReservationRepository creates a new SQLite reservation repository.
func NewSQLiteReservationRepository(conn database.Connection, loc *time.Location) *SQLiteReservationRepository {
	if loc == nil {
		loc = time.Local
	}
	return &SQLiteReservationRepository{conn: conn, loc: loc}
}

// Create inserts a reservation and assigns its identifier.
func (r *SQLiteReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	exec := database.ExecutorFromContext(ctx, r.conn)

	var id int64
	err := exec.QueryRow(ctx, `
		INSERT INTO reservations (user_id, username, date, start_time, duration, contact_info, confirmed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		res.UserID(),
		res.Username(),
		res.Date().Format(domain.DateLayout),
		res.Start().String(),
		res.Duration().Minutes,
		res.ContactInfo(),
		boolToInt(res.IsConfirmed()),
		res.CreatedAt().UTC().Format(sqliteTimeLayout),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}

	res.AssignID(id)
	return nil
}

// FindByID retrieves a reservation by its identifier.
func (r *SQLiteReservationRepository) FindByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	res, err := r.scan(exec.QueryRow(ctx, `SELECT `+selectColumns+` FROM reservations WHERE id = ?`, id))
	if database.IsNoRows(err) {
		return nil, domain.ErrReservationNotFound
	}
	return res, err
}

// FindByDate retrieves the reservations on date ordered by start time.
func (r *SQLiteReservationRepository) FindByDate(ctx context.Context, date time.Time) ([]*domain.Reservation, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	rows, err := exec.Query(ctx,
		`SELECT `+selectColumns+` FROM reservations WHERE date = ? ORDER BY start_time, id`,
		date.Format(domain.DateLayout),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// FindBetween retrieves reservations from one date through another, inclusive.
func (r *SQLiteReservationRepository) FindBetween(ctx context.Context, from, to time.Time) ([]*domain.Reservation, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	rows, err := exec.Query(ctx,
		`SELECT `+selectColumns+` FROM reservations WHERE date >= ? AND date <= ? ORDER BY date, start_time, id`,
		from.Format(domain.DateLayout), to.Format(domain.DateLayout),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// SetConfirmed persists the confirmed flag.
func (r *SQLiteReservationRepository) SetConfirmed(ctx context.Context, res *domain.Reservation) error {
	exec := database.ExecutorFromContext(ctx, r.conn)

	result, err := exec.Exec(ctx,
		`UPDATE reservations SET confirmed = ? WHERE id = ?`,
		boolToInt(res.IsConfirmed()), res.ID(),
	)
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
func (r *SQLiteReservationRepository) Delete(ctx context.Context, id int64) (bool, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	result, err := exec.Exec(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// LockDate takes the database write lock for the rest of the transaction.
// SQLite locks the whole file, so date is not needed to narrow it.
func (r *SQLiteReservationRepository) LockDate(ctx context.Context, _ time.Time) error {
	tx := database.TxFromContext(ctx)
	if tx == nil {
		return errors.New("lock date: no transaction in context")
	}
	_, err := tx.Exec(ctx, `UPDATE reservations SET confirmed = confirmed WHERE 0`)
	return err
}

func (r *SQLiteReservationRepository) scan(row database.Row) (*domain.Reservation, error) {
	var (
		id, userID, duration           int64
		username, date, start, contact string
		confirmed                      bool
		createdAt                      string
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
	created, err := time.Parse(sqliteTimeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("reservation %d: created_at: %w", id, err)
	}

	return domain.RehydrateReservation(id, userID, username, day, tod, int(duration), contact, confirmed, created), nil
}

func (r *SQLiteReservationRepository) scanAll(rows database.Rows) ([]*domain.Reservation, error) {
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

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
