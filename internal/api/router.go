package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"

	"github.com/iconidentify/exambot/internal/api/handler"
	mw "github.com/iconidentify/exambot/internal/api/middleware"
)

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(
	homeHandler *handler.HomeHandler,
	adminHandler *handler.AdminHandler,
	healthHandler *handler.HealthHandler,
	sessions *mw.Sessions,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Recovery)
	r.Use(middleware.Timeout(5 * time.Minute))

	// Probes carry no visitor cookie
	r.Group(func(r chi.Router) {
		r.Use(mw.Logger)
		r.Get("/health", healthHandler.Live)
		r.Get("/ready", healthHandler.Ready)
		r.Get("/stats", healthHandler.Stats)
	})

	r.Group(func(r chi.Router) {
		r.Use(sessions.Visitor)
		r.Use(mw.Logger)
		r.Use(mw.NoStore)

		r.Get("/", homeHandler.Index)
		r.Post("/upload", homeHandler.Upload)
		r.Post("/images/{imageID}/remove", homeHandler.RemoveImage)
		r.Post("/generate/{kind}", homeHandler.Generate)

		r.Get("/admin", adminHandler.Show)
		r.Post("/admin/login", adminHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAdmin(adminHandler.Authenticated, "/admin"))
			r.Post("/admin/logout", adminHandler.Logout)
			r.Post("/admin/ads", adminHandler.Save)
			r.Post("/admin/ads/reload", adminHandler.Reload)
		})
	})

	return handlers.CompressHandler(r)
}
