package domain

import "time"

// Session is an authenticated admin session.
// It is issued on successful login and is valid until ExpiresAt.
type Session struct {
	Token     string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewSession issues a session valid for ttl from now.
func NewSession(token, username string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		Token:     token,
		Username:  username,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

// Valid reports whether the session may still be used at now.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.Token != "" && now.Before(s.ExpiresAt)
}
