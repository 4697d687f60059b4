package outbox

import (
	"context"
	"time"

	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/database"
)

// PostgresStore keeps the outbox in a PostgreSQL table.
type PostgresStore struct {
	conn database.Connection
}

func NewPostgresStore(conn database.Connection) *PostgresStore {
	return &PostgresStore{conn: conn}
}

func (s *PostgresStore) Append(ctx context.Context, msgs ...*Message) error {
	if len(msgs) == 0 {
		return nil
	}
	return database.InTx(ctx, s.conn, func(exec database.Executor) error {
		for _, msg := range msgs {
			var metadata []byte
			if len(msg.Metadata) > 0 {
				metadata = msg.Metadata
			}
			err := exec.QueryRow(ctx, `
				INSERT INTO outbox (event_id, aggregate_type, aggregate_id, event_type, routing_key, payload, metadata, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING id`,
				msg.EventID, msg.AggregateType, msg.AggregateID, msg.EventType,
				msg.RoutingKey, []byte(msg.Payload), metadata, msg.CreatedAt,
			).Scan(&msg.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *PostgresStore) Pending(ctx context.Context, limit int) ([]*Message, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, event_id, aggregate_type, aggregate_id, event_type, routing_key,
		       payload, metadata, created_at, retry_count, COALESCE(last_error, '')
		FROM outbox
		WHERE published_at IS NULL AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
		ORDER BY created_at, id
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []*Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.EventID, &msg.AggregateType, &msg.AggregateID, &msg.EventType,
			&msg.RoutingKey, &msg.Payload, &msg.Metadata, &msg.CreatedAt, &msg.RetryCount, &msg.LastError); err != nil {
			return nil, err
		}
		pending = append(pending, &msg)
	}
	return pending, rows.Err()
}

func (s *PostgresStore) MarkPublished(ctx context.Context, id int64) error {
	_, err := s.conn.Exec(ctx, `UPDATE outbox SET published_at = NOW() WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) MarkFailed(ctx context.Context, id int64, reason string, retryAt time.Time) error {
	_, err := s.conn.Exec(ctx,
		`UPDATE outbox SET retry_count = retry_count + 1, last_error = $2, next_retry_at = $3 WHERE id = $1`,
		id, reason, retryAt)
	return err
}

func (s *PostgresStore) MarkDead(ctx context.Context, id int64, reason string) error {
	_, err := s.conn.Exec(ctx,
		`UPDATE outbox SET retry_count = retry_count + 1, dead_lettered_at = NOW(), dead_letter_reason = $2 WHERE id = $1`,
		id, reason)
	return err
}

func (s *PostgresStore) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.conn.Exec(ctx,
		`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
