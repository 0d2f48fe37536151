package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for an unknown or expired session.
var ErrNotFound = errors.New("session not found")

// Session binds a session id to an authenticated user.
type Session struct {
	ID        string
	UserID    uint
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store is a process-local, mutex-guarded session store.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]Session
}

// NewStore creates a store whose sessions live for ttl.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]Session),
	}
}

// TTL returns the session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create starts a session for the user.
func (s *Store) Create(userID uint, username string) *Session {
	now := s.now()
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return &sess
}

// Get returns the live session for id.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if sess.Expired(s.now()) {
		s.Delete(id)
		return nil, ErrNotFound
	}
	return &sess, nil
}

// Delete removes a session. Unknown ids are ignored.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Sweep drops expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
