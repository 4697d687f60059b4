package outbox

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a Store for tests. It ignores transactions.
type MemoryStore struct {
	mu     sync.Mutex
	rows   []*memoryRow
	nextID int64
}

type memoryRow struct {
	msg         Message
	retryAt     time.Time
	publishedAt time.Time
	dead        bool
	deadReason  string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, msgs ...*Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range msgs {
		s.nextID++
		msg.ID = s.nextID
		s.rows = append(s.rows, &memoryRow{msg: *msg})
	}
	return nil
}

func (s *MemoryStore) Pending(_ context.Context, limit int) ([]*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var pending []*Message
	for _, row := range s.rows {
		if len(pending) == limit {
			break
		}
		if !row.publishedAt.IsZero() || row.dead || row.retryAt.After(now) {
			continue
		}
		msg := row.msg
		pending = append(pending, &msg)
	}
	return pending, nil
}

func (s *MemoryStore) MarkPublished(_ context.Context, id int64) error {
	s.with(id, func(row *memoryRow) { row.publishedAt = time.Now() })
	return nil
}

func (s *MemoryStore) MarkFailed(_ context.Context, id int64, reason string, retryAt time.Time) error {
	s.with(id, func(row *memoryRow) {
		row.msg.RetryCount++
		row.msg.LastError = reason
		row.retryAt = retryAt
	})
	return nil
}

func (s *MemoryStore) MarkDead(_ context.Context, id int64, reason string) error {
	s.with(id, func(row *memoryRow) {
		row.msg.RetryCount++
		row.dead = true
		row.deadReason = reason
	})
	return nil
}

func (s *MemoryStore) Purge(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.rows[:0]
	var purged int64
	for _, row := range s.rows {
		if !row.publishedAt.IsZero() && row.publishedAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, row)
	}
	s.rows = kept
	return purged, nil
}

// Get returns a copy of the stored message and whether it is dead.
func (s *MemoryStore) Get(id int64) (Message, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.msg.ID == id {
			return row.msg, row.dead, true
		}
	}
	return Message{}, false, false
}

func (s *MemoryStore) with(id int64, apply func(*memoryRow)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.msg.ID == id {
			apply(row)
			return
		}
	}
}
