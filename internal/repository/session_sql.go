package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/iconidentify/exambot/internal/config"
	"github.com/iconidentify/exambot/internal/domain"
)

// SQLSessionRepository implements SessionRepository on SQLite or PostgreSQL.
type SQLSessionRepository struct {
	db     *sql.DB
	driver string
}

// NewSQLSessionRepository opens the database for driver and ensures the
// sessions table exists.
func NewSQLSessionRepository(ctx context.Context, driver, dsn string) (*SQLSessionRepository, error) {
	var sqlDriver string
	switch driver {
	case config.DriverSQLite:
		sqlDriver = "sqlite"
	case config.DriverPostgres:
		sqlDriver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported session driver %q", driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == config.DriverSQLite {
		// A single connection serialises writers and keeps ":memory:" databases shared.
		db.SetMaxOpenConns(1)
	}

	r := &SQLSessionRepository{db: db, driver: driver}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLSessionRepository) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS admin_sessions (
			token_hash TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			issued_at BIGINT NOT NULL,
			expires_at BIGINT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_admin_sessions_expires ON admin_sessions(expires_at)`)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// rebind rewrites "?" placeholders to "$n" for PostgreSQL.
func (r *SQLSessionRepository) rebind(query string) string {
	if r.driver != config.DriverPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(ch)
	}
	return sb.String()
}

// Create stores a newly issued session.
func (r *SQLSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		r.rebind(`INSERT INTO admin_sessions (token_hash, username, issued_at, expires_at) VALUES (?, ?, ?, ?)`),
		HashToken(session.Token), session.Username, session.IssuedAt.UnixMilli(), session.ExpiresAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Get returns the session for token.
func (r *SQLSessionRepository) Get(ctx context.Context, token string, now time.Time) (*domain.Session, error) {
	var (
		username          string
		issued, expiresAt int64
	)
	err := r.db.QueryRowContext(ctx,
		r.rebind(`SELECT username, issued_at, expires_at FROM admin_sessions WHERE token_hash = ?`),
		HashToken(token),
	).Scan(&username, &issued, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	session := &domain.Session{
		Token:     token,
		Username:  username,
		IssuedAt:  time.UnixMilli(issued),
		ExpiresAt: time.UnixMilli(expiresAt),
	}
	if !session.Valid(now) {
		return nil, domain.ErrSessionExpired
	}
	return session, nil
}

// Delete removes a session.
func (r *SQLSessionRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM admin_sessions WHERE token_hash = ?`), HashToken(token)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes expired sessions.
func (r *SQLSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM admin_sessions WHERE expires_at <= ?`), now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// Ping checks the database connection.
func (r *SQLSessionRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database.
func (r *SQLSessionRepository) Close() error {
	return r.db.Close()
}

// NewSessionRepository builds the store selected by cfg.
func NewSessionRepository(ctx context.Context, cfg config.SessionConfig) (SessionRepository, error) {
	if cfg.Driver == config.DriverMemory {
		return NewInMemorySessionRepository(), nil
	}
	return NewSQLSessionRepository(ctx, cfg.Driver, cfg.DSN)
}
