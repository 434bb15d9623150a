package service

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/iconidentify/exambot/internal/notify"
)

// Workspace is one visitor's set of pages plus the toasts they raised.
type Workspace struct {
	ID     string
	Toasts *notify.Queue
	Home   *HomePage
	Admin  *AdminPage
}

// Close tears down the visitor's pages.
func (w *Workspace) Close() {
	w.Home.Close()
}

// Closed reports whether the workspace was torn down.
func (w *Workspace) Closed() bool {
	return w.Home.Closed()
}

// Workspaces keeps visitor workspaces alive while they are in use and
// closes them once idle for the configured TTL.
type Workspaces struct {
	deps  Deps
	ttl   time.Duration
	cache *cache.Cache
	mu    sync.Mutex
}

// NewWorkspaces creates a registry with the given idle TTL.
func NewWorkspaces(deps Deps, ttl time.Duration) *Workspaces {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	c := cache.New(ttl, ttl/2)
	c.OnEvicted(func(id string, v interface{}) {
		if ws, ok := v.(*Workspace); ok {
			ws.Close()
			deps.Logger.Debug("workspace evicted", "visitor", id)
		}
	})
	return &Workspaces{deps: deps, ttl: ttl, cache: c}
}

// Get returns the visitor's workspace, creating it on first use. Every
// access pushes the expiry forward. A workspace closed by an eviction that
// raced the refresh is replaced.
func (w *Workspaces) Get(id string) *Workspace {
	w.mu.Lock()
	defer w.mu.Unlock()

	if v, ok := w.cache.Get(id); ok {
		if ws := v.(*Workspace); !ws.Closed() {
			w.cache.Set(id, ws, cache.DefaultExpiration)
			return ws
		}
	}

	toasts := &notify.Queue{}
	ws := &Workspace{
		ID:     id,
		Toasts: toasts,
		Home:   NewHomePage(w.deps, toasts),
		Admin:  NewAdminPage(w.deps, toasts),
	}
	w.cache.Set(id, ws, cache.DefaultExpiration)
	return ws
}

// Drop closes and forgets a workspace.
func (w *Workspaces) Drop(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cache.Delete(id)
}

// Len returns the number of live workspaces.
func (w *Workspaces) Len() int {
	return w.cache.ItemCount()
}

// Close tears down every workspace.
func (w *Workspaces) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id := range w.cache.Items() {
		w.cache.Delete(id)
	}
}
