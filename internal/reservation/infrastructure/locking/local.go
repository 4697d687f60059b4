package locking

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/reserva/internal/reservation/domain"
)

// LocalDateLocker serializes commits per date within one process.
type LocalDateLocker struct {
	mu    sync.Mutex
	dates map[string]*dateLock
}

type dateLock struct {
	ch   chan struct{}
	refs int
}

// NewLocalDateLocker creates an in-process date locker.
func NewLocalDateLocker() *LocalDateLocker {
	return &LocalDateLocker{dates: make(map[string]*dateLock)}
}

// Lock blocks until date is free or ctx is done.
func (l *LocalDateLocker) Lock(ctx context.Context, date time.Time) (func(), error) {
	key := date.Format(domain.DateLayout)

	l.mu.Lock()
	lock, ok := l.dates[key]
	if !ok {
		lock = &dateLock{ch: make(chan struct{}, 1)}
		l.dates[key] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, lock)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lock.ch
			l.unref(key, lock)
		})
	}, nil
}

func (l *LocalDateLocker) unref(key string, lock *dateLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.dates, key)
	}
}
