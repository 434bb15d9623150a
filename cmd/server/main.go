package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/iconidentify/exambot/internal/api"
	"github.com/iconidentify/exambot/internal/api/handler"
	mw "github.com/iconidentify/exambot/internal/api/middleware"
	"github.com/iconidentify/exambot/internal/config"
	"github.com/iconidentify/exambot/internal/repository"
	"github.com/iconidentify/exambot/internal/service"
	"github.com/iconidentify/exambot/internal/upload"
	"github.com/iconidentify/exambot/internal/worker"
	"github.com/iconidentify/exambot/pkg/backend"
	"github.com/iconidentify/exambot/pkg/ui"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	envFile := flag.String("env", ".env", "Path to .env file (ignored if missing)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("exambot %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting exambot",
		"version", Version,
		"build_time", BuildTime,
		"backend", cfg.Backend.BaseURL(),
		"session_driver", cfg.Session.Driver,
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	sessionRepo, err := repository.NewSessionRepository(startCtx, cfg.Session)
	cancelStart()
	if err != nil {
		logger.Error("failed to open session store", "error", err)
		os.Exit(1)
	}
	defer sessionRepo.Close()

	deps := service.Deps{
		Backend:    backend.NewClient(cfg.Backend),
		Sessions:   sessionRepo,
		Encoder:    upload.NewEncoder(cfg.Upload),
		SessionTTL: cfg.Session.TTL,
		Logger:     logger,
	}
	workspaces := service.NewWorkspaces(deps, cfg.Workspace.TTL)

	renderer, err := ui.NewRenderer()
	if err != nil {
		logger.Error("failed to parse templates", "error", err)
		os.Exit(1)
	}
	sessions := mw.NewSessions(cfg.Server.SessionSecret, cfg.Server.SecureCookies)

	maxRequest := cfg.Upload.MaxFileBytes * 20
	homeHandler := handler.NewHomeHandler(workspaces, sessions, renderer, maxRequest, logger)
	adminHandler := handler.NewAdminHandler(workspaces, sessions, renderer, logger)
	healthHandler := handler.NewHealthHandler(sessionRepo, workspaces, dataDir(cfg.Session))

	router := api.NewRouter(homeHandler, adminHandler, healthHandler, sessions)

	sweeper := worker.NewSweeper(
		worker.Config{Interval: cfg.Session.SweepInterval},
		sessionRepo,
		logger,
	)
	sweeper.Start()

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	workspaces.Close()

	if err := sweeper.Stop(10 * time.Second); err != nil {
		logger.Error("session sweeper shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

// dataDir is the directory reported by /stats: where the SQLite file lives,
// or the working directory otherwise.
func dataDir(cfg config.SessionConfig) string {
	if cfg.Driver != config.DriverSQLite {
		return "."
	}
	path := strings.TrimPrefix(cfg.DSN, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return "."
	}
	return filepath.Dir(path)
}
