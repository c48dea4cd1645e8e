// Package session issues and resolves opaque login tokens. Sessions
// roll: every successful lookup pushes the expiry out again.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TTL is how long a session lives without activity.
const TTL = 24 * time.Hour

// Session ties an opaque token to a logged-in user.
type Session struct {
	Token  string `json:"-"`
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
}

// Store creates, resolves and destroys sessions.
type Store interface {
	Create(ctx context.Context, userID int, role string) (Session, error)
	// Get resolves a token, refreshing its expiry. The bool reports
	// whether the session exists and is still live.
	Get(ctx context.Context, token string) (Session, bool, error)
	Destroy(ctx context.Context, token string) error
}

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// MemoryStore is an in-memory Store for tests and local runs.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, userID int, role string) (Session, error) {
	sess := Session{
		Token:  uuid.NewString(),
		UserID: userID,
		Role:   role,
	}
	s.mu.Lock()
	s.sessions[sess.Token] = memoryEntry{session: sess, expiresAt: s.now().Add(TTL)}
	s.mu.Unlock()
	return sess, nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[token]
	if !ok {
		return Session{}, false, nil
	}
	if s.now().After(entry.expiresAt) {
		delete(s.sessions, token)
		return Session{}, false, nil
	}
	entry.expiresAt = s.now().Add(TTL)
	s.sessions[token] = entry
	return entry.session, true, nil
}

func (s *MemoryStore) Destroy(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}
