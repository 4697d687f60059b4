package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/database"
)

// sqliteTime sorts lexically, so text comparisons order by time.
const sqliteTime = "2006-01-02T15:04:05.000000Z07:00"

// SQLiteStore keeps the outbox in a SQLite table.
type SQLiteStore struct {
	conn database.Connection
	now  func() time.Time
}

func NewSQLiteStore(conn database.Connection) *SQLiteStore {
	return &SQLiteStore{conn: conn, now: time.Now}
}

func (s *SQLiteStore) Append(ctx context.Context, msgs ...*Message) error {
	if len(msgs) == 0 {
		return nil
	}
	return database.InTx(ctx, s.conn, func(exec database.Executor) error {
		for _, msg := range msgs {
			var metadata sql.NullString
			if len(msg.Metadata) > 0 {
				metadata = sql.NullString{String: string(msg.Metadata), Valid: true}
			}
			err := exec.QueryRow(ctx, `
				INSERT INTO outbox (event_id, aggregate_type, aggregate_id, event_type, routing_key, payload, metadata, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				RETURNING id`,
				msg.EventID.String(), msg.AggregateType, msg.AggregateID, msg.EventType,
				msg.RoutingKey, string(msg.Payload), metadata, sqliteStamp(msg.CreatedAt),
			).Scan(&msg.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStore) Pending(ctx context.Context, limit int) ([]*Message, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, event_id, aggregate_type, aggregate_id, event_type, routing_key,
		       payload, metadata, created_at, retry_count, last_error
		FROM outbox
		WHERE published_at IS NULL AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY created_at, id
		LIMIT ?`, sqliteStamp(s.now()), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []*Message
	for rows.Next() {
		var (
			msg                       Message
			eventID, payload, created string
			metadata, lastError       sql.NullString
		)
		if err := rows.Scan(&msg.ID, &eventID, &msg.AggregateType, &msg.AggregateID, &msg.EventType,
			&msg.RoutingKey, &payload, &metadata, &created, &msg.RetryCount, &lastError); err != nil {
			return nil, err
		}
		msg.EventID, _ = uuid.Parse(eventID)
		msg.Payload = json.RawMessage(payload)
		if metadata.Valid {
			msg.Metadata = json.RawMessage(metadata.String)
		}
		msg.CreatedAt, _ = time.Parse(sqliteTime, created)
		if lastError.Valid {
			msg.LastError = lastError.String
		}
		pending = append(pending, &msg)
	}
	return pending, rows.Err()
}

func (s *SQLiteStore) MarkPublished(ctx context.Context, id int64) error {
	_, err := s.conn.Exec(ctx, `UPDATE outbox SET published_at = ? WHERE id = ?`, sqliteStamp(s.now()), id)
	return err
}

func (s *SQLiteStore) MarkFailed(ctx context.Context, id int64, reason string, retryAt time.Time) error {
	_, err := s.conn.Exec(ctx,
		`UPDATE outbox SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ? WHERE id = ?`,
		reason, sqliteStamp(retryAt), id)
	return err
}

func (s *SQLiteStore) MarkDead(ctx context.Context, id int64, reason string) error {
	_, err := s.conn.Exec(ctx,
		`UPDATE outbox SET retry_count = retry_count + 1, dead_lettered_at = ?, dead_letter_reason = ? WHERE id = ?`,
		sqliteStamp(s.now()), reason, id)
	return err
}

func (s *SQLiteStore) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.conn.Exec(ctx,
		`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < ?`, sqliteStamp(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func sqliteStamp(t time.Time) string {
	return t.UTC().Format(sqliteTime)
}
