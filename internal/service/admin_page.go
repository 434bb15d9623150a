package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iconidentify/exambot/internal/domain"
	"github.com/iconidentify/exambot/internal/notify"
	"github.com/iconidentify/exambot/internal/repository"
	"github.com/iconidentify/exambot/pkg/backend"
)

// Toast texts shown by the admin page.
const (
	MsgLoginSuccess       = "Login successful!"
	MsgInvalidCredentials = "Invalid credentials"
	MsgSessionFailed      = "Could not start a session. Please try again."
	MsgLoadAdsFailed      = "Failed to load ads"
	MsgSaveAdsSuccess     = "Ads updated successfully!"
	MsgSaveAdsFailed      = "Failed to update ads"
)

// AdminPage is the login-gated ad editor. Every network failure degrades to
// a toast and leaves state unchanged; nothing is retried.
type AdminPage struct {
	client   backend.Client
	sessions repository.SessionRepository
	notifier notify.Notifier
	logger   *slog.Logger
	ttl      time.Duration
	now      func() time.Time
	newToken func() string

	mu      sync.Mutex
	session *domain.Session
	ads     domain.AdSet
	loaded  bool
	loading bool
}

// NewAdminPage creates an unauthenticated admin page with empty slots.
func NewAdminPage(deps Deps, notifier notify.Notifier) *AdminPage {
	return &AdminPage{
		client:   deps.Backend,
		sessions: deps.Sessions,
		notifier: notifier,
		logger:   deps.Logger.With("page", "admin"),
		ttl:      deps.sessionTTL(),
		now:      time.Now,
		newToken: uuid.NewString,
		ads:      domain.NewAdSet(),
	}
}

// Authenticated reports whether the page holds a valid session.
func (p *AdminPage) Authenticated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session.Valid(p.now())
}

// Session returns the current session, or nil when logged out.
func (p *AdminPage) Session() *domain.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.session.Valid(p.now()) {
		return nil
	}
	s := *p.session
	return &s
}

// Loading reports whether a login or save is in flight.
func (p *AdminPage) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Ads returns a copy of the current slot configuration.
func (p *AdminPage) Ads() domain.AdSet {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ads.Clone()
}

// AdsLoaded reports whether the slots were fetched from the backend since
// the last login. Until then Ads holds empty placeholders.
func (p *AdminPage) AdsLoaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}

func (p *AdminPage) setLoading(v bool) {
	p.mu.Lock()
	p.loading = v
	p.mu.Unlock()
}

// Login checks credentials with the backend. On success a session is issued
// and persisted, and the ads are fetched.
func (p *AdminPage) Login(ctx context.Context, username, password string) bool {
	p.setLoading(true)

	ok, err := p.client.Login(ctx, username, password)
	if err != nil || !ok {
		if err == nil {
			err = domain.ErrInvalidCredentials
		}
		p.logger.Warn("login failed", "username", username, "error", err)
		p.setLoading(false)
		notify.Error(p.notifier, MsgInvalidCredentials)
		return false
	}

	session := domain.NewSession(p.newToken(), username, p.now(), p.ttl)
	if err := p.sessions.Create(ctx, session); err != nil {
		p.logger.Error("failed to store session", "error", domain.NewPageError("admin", "login", err))
		p.setLoading(false)
		notify.Error(p.notifier, MsgSessionFailed)
		return false
	}

	p.mu.Lock()
	p.session = session
	p.loading = false
	p.mu.Unlock()

	p.logger.Info("admin logged in", "username", username)
	notify.Success(p.notifier, MsgLoginSuccess)

	p.FetchAds(ctx)
	return true
}

// Resume restores a previously issued session by token. It is how a page
// rebuilt after eviction picks up an existing login without asking again.
func (p *AdminPage) Resume(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	session, err := p.sessions.Get(ctx, token, p.now())
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) && !errors.Is(err, domain.ErrSessionExpired) {
			p.logger.Error("failed to load session", "error", err)
		}
		return false
	}

	p.mu.Lock()
	p.session = session
	p.mu.Unlock()

	p.FetchAds(ctx)
	return true
}

// Logout ends the session. The local slot edits are discarded.
func (p *AdminPage) Logout(ctx context.Context) {
	p.mu.Lock()
	session := p.session
	p.session = nil
	p.ads = domain.NewAdSet()
	p.loaded = false
	p.mu.Unlock()

	if session == nil {
		return
	}
	if err := p.sessions.Delete(ctx, session.Token); err != nil {
		p.logger.Error("failed to delete session", "error", err)
	}
	p.logger.Info("admin logged out", "username", session.Username)
}

// FetchAds replaces the local slots wholesale with the backend's copy.
func (p *AdminPage) FetchAds(ctx context.Context) bool {
	if !p.Authenticated() {
		return false
	}

	ads, err := p.client.FetchAds(ctx)
	if err != nil {
		p.logger.Error("error fetching ads", "error", domain.NewPageError("admin", "fetch_ads", err))
		notify.Error(p.notifier, MsgLoadAdsFailed)
		return false
	}

	p.mu.Lock()
	p.ads = ads
	p.loaded = true
	p.mu.Unlock()
	return true
}

// UpdateField edits one field of one slot locally. The value is not checked.
func (p *AdminPage) UpdateField(key domain.SlotKey, field domain.AdField, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ads, err := p.ads.With(key, field, value)
	if err != nil {
		return err
	}
	p.ads = ads
	return nil
}

// SaveAll sends the full six-slot set in one request. There is no rollback
// of local edits on failure.
func (p *AdminPage) SaveAll(ctx context.Context) bool {
	if !p.Authenticated() {
		return false
	}

	p.mu.Lock()
	p.loading = true
	ads := p.ads.Clone()
	p.mu.Unlock()

	err := p.client.UpdateAds(ctx, ads)
	p.setLoading(false)

	if err != nil {
		p.logger.Error("error updating ads", "error", domain.NewPageError("admin", "save_all", err))
		notify.Error(p.notifier, MsgSaveAdsFailed)
		return false
	}

	p.logger.Info("ads updated")
	notify.Success(p.notifier, MsgSaveAdsSuccess)
	return true
}
