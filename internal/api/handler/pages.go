package handler

import (
	"bytes"
	"log/slog"
	"net/http"

	mw "github.com/iconidentify/exambot/internal/api/middleware"
	"github.com/iconidentify/exambot/internal/domain"
	"github.com/iconidentify/exambot/internal/service"
	"github.com/iconidentify/exambot/pkg/ui"
)

// Layout is the data every page template receives.
type Layout struct {
	Title   string
	Toasts  []domain.Notification
	Refresh bool
}

// pages is the shared plumbing of the HTML handlers.
type pages struct {
	workspaces *service.Workspaces
	sessions   *mw.Sessions
	renderer   *ui.Renderer
	logger     *slog.Logger
}

func (p *pages) workspace(r *http.Request) *service.Workspace {
	return p.workspaces.Get(mw.VisitorID(r.Context()))
}

// toasts drains every toast the visitor's pages raised since the last
// render, including those from the POST that redirected here.
func (p *pages) toasts(ws *service.Workspace) []domain.Notification {
	return ws.Toasts.Drain()
}

func (p *pages) render(w http.ResponseWriter, page string, data any) {
	var buf bytes.Buffer
	if err := p.renderer.Render(&buf, page, data); err != nil {
		p.logger.Error("failed to render page", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// redirect completes a POST-redirect-GET. Pending toasts stay in the
// workspace queue until the next render.
func (p *pages) redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}
