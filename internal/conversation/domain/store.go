package domain

import (
	"context"
	"sync"
)

// SessionStore owns the conversation sessions, keyed by user. Steps for one
// user run one at a time; different users never wait on each other.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	users    map[int64]*userLock
}

type userLock struct {
	mu       sync.Mutex
	refs     int
	inflight context.CancelFunc
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*Session),
		users:    make(map[int64]*userLock),
	}
}

// Begin waits until no other step of userID is running and returns a context
// that Interrupt cancels. The returned done function must be called once the
// step has finished.
func (s *SessionStore) Begin(ctx context.Context, userID int64) (context.Context, func()) {
	s.mu.Lock()
	lock, ok := s.users[userID]
	if !ok {
		lock = &userLock{}
		s.users[userID] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	stepCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	lock.inflight = cancel
	s.mu.Unlock()

	return stepCtx, func() {
		s.mu.Lock()
		lock.inflight = nil
		lock.refs--
		if lock.refs == 0 {
			delete(s.users, userID)
		}
		s.mu.Unlock()
		cancel()
		lock.mu.Unlock()
	}
}

// Interrupt cancels the context of the step userID is running, if any.
func (s *SessionStore) Interrupt(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lock, ok := s.users[userID]; ok && lock.inflight != nil {
		lock.inflight()
	}
}

// Get returns the session of userID.
func (s *SessionStore) Get(userID int64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	return session, ok
}

// Put stores session under its user.
func (s *SessionStore) Put(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.UserID] = session
}

// Delete destroys the session of userID.
func (s *SessionStore) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Len returns the number of open sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
