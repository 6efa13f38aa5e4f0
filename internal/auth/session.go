// Package auth resolves principals from the three credential modes
// (password, PIN, QR) and manages login sessions.  Sessions are opaque
// server-generated identifiers with a fixed expiry; the store behind
// them is an interface so tests use the in-memory map while a
// deployment with Redis keeps sessions across restarts.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"librarydesk/internal/model"
)

// DefaultSessionTTL is the fixed session lifetime.
const DefaultSessionTTL = 7 * 24 * time.Hour

// ErrSessionNotFound is returned by Store.Get for unknown or expired
// session ids.
var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side state behind one opaque session id.
type Session struct {
	ID        string          `json:"id"`
	Principal model.Principal `json:"principal"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Store holds sessions.  Get must treat expired sessions as absent.
type Store interface {
	Put(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// NewSession builds a session for a principal with a fresh opaque id.
func NewSession(p model.Principal, ttl time.Duration) *Session {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		Principal: p,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// MemoryStore keeps sessions in process memory.  Sessions are lost on
// restart, which matches the desktop deployment this service replaces.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) Put(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.Expired(time.Now().UTC()) {
		// Lazily drop the expired entry.
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
