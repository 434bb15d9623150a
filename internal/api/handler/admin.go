package handler

import (
	"log/slog"
	"net/http"

	mw "github.com/iconidentify/exambot/internal/api/middleware"
	"github.com/iconidentify/exambot/internal/domain"
	"github.com/iconidentify/exambot/internal/service"
	"github.com/iconidentify/exambot/pkg/ui"
)

const adminPath = "/admin"

// AdminHandler serves the ad editor.
type AdminHandler struct {
	pages
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(
	workspaces *service.Workspaces,
	sessions *mw.Sessions,
	renderer *ui.Renderer,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		pages: pages{
			workspaces: workspaces,
			sessions:   sessions,
			renderer:   renderer,
			logger:     logger,
		},
	}
}

// LoginView is the data of the login template.
type LoginView struct {
	Layout
	Username string
	Loading  bool
}

// SlotView is one editable slot.
type SlotView struct {
	Key      domain.SlotKey
	ImageURL string
	LinkURL  string
}

// AdminView is the data of the editor template.
type AdminView struct {
	Layout
	Username string
	Slots    []SlotView
	Loading  bool
}

// Authenticated reports whether the visitor's admin page holds a valid
// session, resuming one from the cookie when the page was rebuilt.
func (h *AdminHandler) Authenticated(r *http.Request) bool {
	page := h.workspace(r).Admin
	if page.Authenticated() {
		return true
	}
	return page.Resume(r.Context(), h.sessions.AdminToken(r))
}

// Show handles GET /admin.
func (h *AdminHandler) Show(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(r)
	page := ws.Admin

	if !h.Authenticated(r) {
		h.render(w, ui.PageAdminLogin, LoginView{
			Layout:  Layout{Title: "Admin Login", Toasts: h.toasts(ws)},
			Loading: page.Loading(),
		})
		return
	}

	ads := page.Ads()
	view := AdminView{
		Slots:   make([]SlotView, 0, len(domain.SlotKeys)),
		Loading: page.Loading(),
	}
	if s := page.Session(); s != nil {
		view.Username = s.Username
	}
	for _, key := range domain.SlotKeys {
		slot := ads.Slot(key)
		view.Slots = append(view.Slots, SlotView{Key: key, ImageURL: slot.ImageURL, LinkURL: slot.LinkURL})
	}
	view.Layout = Layout{Title: "Admin Dashboard", Toasts: h.toasts(ws)}

	h.render(w, ui.PageAdmin, view)
}

// Login handles POST /admin/login.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if ws.Admin.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password")) {
		if s := ws.Admin.Session(); s != nil {
			if err := h.sessions.SetAdminToken(w, r, s.Token); err != nil {
				h.logger.Error("failed to store admin token", "error", err)
			}
		}
	}
	h.redirect(w, r, adminPath)
}

// Logout handles POST /admin/logout.
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(r)
	ws.Admin.Logout(r.Context())
	if err := h.sessions.SetAdminToken(w, r, ""); err != nil {
		h.logger.Error("failed to clear admin token", "error", err)
	}
	h.redirect(w, r, adminPath)
}

// Save handles POST /admin/ads. Submitted fields are merged into the
// local slots and the full set is then sent in one request.
func (h *AdminHandler) Save(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	for _, key := range domain.SlotKeys {
		for suffix, field := range map[string]domain.AdField{
			"-image": domain.FieldImageURL,
			"-link":  domain.FieldLinkURL,
		} {
			values, ok := r.PostForm[key.String()+suffix]
			if !ok || len(values) == 0 {
				continue
			}
			if err := ws.Admin.UpdateField(key, field, values[0]); err != nil {
				h.logger.Warn("rejected field update", "slot", key, "field", field, "error", err)
			}
		}
	}

	ws.Admin.SaveAll(r.Context())
	h.redirect(w, r, adminPath)
}

// Reload handles POST /admin/ads/reload, discarding unsaved edits.
func (h *AdminHandler) Reload(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(r)
	ws.Admin.FetchAds(r.Context())
	h.redirect(w, r, adminPath)
}
