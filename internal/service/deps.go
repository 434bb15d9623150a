package service

import (
	"log/slog"
	"time"

	"github.com/iconidentify/exambot/internal/repository"
	"github.com/iconidentify/exambot/internal/upload"
	"github.com/iconidentify/exambot/pkg/backend"
)

// Deps are the collaborators shared by every page instance.
type Deps struct {
	Backend    backend.Client
	Sessions   repository.SessionRepository
	Encoder    *upload.Encoder
	SessionTTL time.Duration
	Logger     *slog.Logger
}

func (d Deps) sessionTTL() time.Duration {
	if d.SessionTTL <= 0 {
		return 12 * time.Hour
	}
	return d.SessionTTL
}
