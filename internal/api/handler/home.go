package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/iconidentify/exambot/internal/api/middleware"
	"github.com/iconidentify/exambot/internal/domain"
	"github.com/iconidentify/exambot/internal/service"
	"github.com/iconidentify/exambot/internal/upload"
	"github.com/iconidentify/exambot/pkg/ui"
)

const maxFormMemory = 32 << 20

// HomeHandler serves the public page.
type HomeHandler struct {
	pages
	maxRequestBytes int64
}

// NewHomeHandler creates a new home handler. maxRequestBytes caps the body
// of an upload request.
func NewHomeHandler(
	workspaces *service.Workspaces,
	sessions *mw.Sessions,
	renderer *ui.Renderer,
	maxRequestBytes int64,
	logger *slog.Logger,
) *HomeHandler {
	return &HomeHandler{
		pages: pages{
			workspaces: workspaces,
			sessions:   sessions,
			renderer:   renderer,
			logger:     logger,
		},
		maxRequestBytes: maxRequestBytes,
	}
}

// HomeView is the data of the home template.
type HomeView struct {
	Layout
	AdsLoaded        bool
	Slots            map[string]domain.AdSlot
	Images           domain.ImageList
	State            domain.GenerationState
	GenerateDisabled bool
}

// Index handles GET /. Ads are fetched on every load.
func (h *HomeHandler) Index(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(r)
	ws.Home.FetchAds(r.Context())

	view := HomeView{
		Images: ws.Home.Images(),
		State:  ws.Home.State(),
	}
	if ads := ws.Home.Ads(); ads != nil {
		view.AdsLoaded = true
		view.Slots = make(map[string]domain.AdSlot, len(ads))
		for key, slot := range ads {
			view.Slots[key.String()] = slot
		}
	}
	view.GenerateDisabled = view.State.Loading() || len(view.Images) == 0
	view.Layout = Layout{
		Title:   "ExamBot",
		Toasts:  h.toasts(ws),
		Refresh: view.State.Loading(),
	}

	h.render(w, ui.PageHome, view)
}

// Upload handles POST /upload with one or more "images" parts.
func (h *HomeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(r)

	if h.maxRequestBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestBytes)
	}
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.logger.Warn("invalid upload form", "error", err)
		h.redirect(w, r, "/")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["images"]
	files := make([]upload.File, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		files = append(files, upload.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}

	ws.Home.HandleImageUpload(r.Context(), files)
	h.redirect(w, r, "/")
}

// RemoveImage handles POST /images/{imageID}/remove.
func (h *HomeHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(r)
	ws.Home.RemoveImage(domain.ImageID(chi.URLParam(r, "imageID")))
	h.redirect(w, r, "/")
}

// Generate handles POST /generate/{kind}. The request runs in the
// background and the page polls until it finishes.
func (h *HomeHandler) Generate(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseGenerationKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	ws := h.workspace(r)
	if _, ok := ws.Home.StartGenerate(kind); ok {
		h.logger.Info("generation started", "kind", kind, "visitor", ws.ID)
	}
	h.redirect(w, r, "/")
}
