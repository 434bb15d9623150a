package repository

import (
	"context"
	"sync"
	"time"

	"github.com/iconidentify/exambot/internal/domain"
)

type storedSession struct {
	username  string
	issuedAt  time.Time
	expiresAt time.Time
}

// InMemorySessionRepository implements SessionRepository in process memory.
// A restart drops every session.
type InMemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]storedSession
}

// NewInMemorySessionRepository creates a new in-memory session repository.
func NewInMemorySessionRepository() *InMemorySessionRepository {
	return &InMemorySessionRepository{
		sessions: make(map[string]storedSession),
	}
}

// Create stores a newly issued session.
func (r *InMemorySessionRepository) Create(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[HashToken(session.Token)] = storedSession{
		username:  session.Username,
		issuedAt:  session.IssuedAt,
		expiresAt: session.ExpiresAt,
	}
	return nil
}

// Get returns the session for token.
func (r *InMemorySessionRepository) Get(ctx context.Context, token string, now time.Time) (*domain.Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[HashToken(token)]
	r.mu.RUnlock()

	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	session := &domain.Session{
		Token:     token,
		Username:  s.username,
		IssuedAt:  s.issuedAt,
		ExpiresAt: s.expiresAt,
	}
	if !session.Valid(now) {
		return nil, domain.ErrSessionExpired
	}
	return session, nil
}

// Delete removes a session.
func (r *InMemorySessionRepository) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, HashToken(token))
	return nil
}

// DeleteExpired removes expired sessions.
func (r *InMemorySessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for k, s := range r.sessions {
		if !now.Before(s.expiresAt) {
			delete(r.sessions, k)
			n++
		}
	}
	return n, nil
}

// Ping always succeeds.
func (r *InMemorySessionRepository) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (r *InMemorySessionRepository) Close() error {
	return nil
}
