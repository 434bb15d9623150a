package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	cookieName   = "exambot"
	keyVisitor   = "visitor"
	keyAdmin     = "admin_token"
	cookieMaxAge = 30 * 24 * 60 * 60
)

type ctxKey int

const visitorKey ctxKey = iota

// Sessions manages the signed browser cookie: the visitor ID and the admin
// session token.
type Sessions struct {
	store *sessions.CookieStore
}

// NewSessions creates a cookie store signed with secret.
func NewSessions(secret string, secure bool) *Sessions {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store}
}

func (s *Sessions) get(r *http.Request) *sessions.Session {
	sess, err := s.store.Get(r, cookieName)
	if err != nil {
		// A cookie signed with an old secret decodes as a fresh session.
		slog.Debug("discarding unreadable session cookie", "error", err)
	}
	return sess
}

// Visitor ensures every browser carries a visitor ID and exposes it on the
// request context.
func (s *Sessions) Visitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.get(r)
		id, _ := sess.Values[keyVisitor].(string)
		if id == "" {
			id = uuid.NewString()
			sess.Values[keyVisitor] = id
			if err := sess.Save(r, w); err != nil {
				slog.Error("failed to save session cookie", "error", err)
			}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), visitorKey, id)))
	})
}

// VisitorID returns the visitor ID set by Visitor, or "".
func VisitorID(ctx context.Context) string {
	id, _ := ctx.Value(visitorKey).(string)
	return id
}

// AdminToken returns the admin session token stored in the cookie.
func (s *Sessions) AdminToken(r *http.Request) string {
	token, _ := s.get(r).Values[keyAdmin].(string)
	return token
}

// SetAdminToken stores or, when token is empty, clears the admin token.
func (s *Sessions) SetAdminToken(w http.ResponseWriter, r *http.Request, token string) error {
	sess := s.get(r)
	if token == "" {
		delete(sess.Values, keyAdmin)
	} else {
		sess.Values[keyAdmin] = token
	}
	return sess.Save(r, w)
}
