package repository

import (
	"context"
	"time"

	"github.com/iconidentify/exambot/internal/domain"
)

// SessionRepository persists admin sessions.
// Implementations never store the raw token; lookups hash the presented one.
type SessionRepository interface {
	// Create stores a newly issued session.
	Create(ctx context.Context, session *domain.Session) error

	// Get returns the session for token. Expired sessions yield
	// domain.ErrSessionExpired, unknown tokens domain.ErrSessionNotFound.
	Get(ctx context.Context, token string, now time.Time) (*domain.Session, error)

	// Delete removes a session. Unknown tokens are not an error.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes every session expired at now and reports how many.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)

	// Ping checks the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
