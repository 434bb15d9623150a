package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrShutdownTimeout is returned when the sweeper doesn't stop within timeout.
var ErrShutdownTimeout = errors.New("sweeper shutdown timed out")

// ExpiredDeleter removes expired records. repository.SessionRepository
// satisfies it.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// Config holds sweeper configuration.
type Config struct {
	Interval time.Duration
}

// Sweeper periodically purges expired admin sessions.
type Sweeper struct {
	interval time.Duration
	store    ExpiredDeleter
	logger   *slog.Logger
	now      func() time.Time

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSweeper creates a new session sweeper.
func NewSweeper(cfg Config, store ExpiredDeleter, logger *slog.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Sweeper{
		interval: cfg.Interval,
		store:    store,
		logger:   logger,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the sweep loop.
func (s *Sweeper) Start() {
	s.logger.Info("starting session sweeper", "interval", s.interval)

	s.wg.Add(1)
	go s.run()
}

// Stop gracefully stops the sweep loop.
func (s *Sweeper) Stop(timeout time.Duration) error {
	s.logger.Info("stopping session sweeper")
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("session sweeper stopped gracefully")
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce()
		}
	}
}

// SweepOnce deletes everything expired as of now.
func (s *Sweeper) SweepOnce() int {
	n, err := s.store.DeleteExpired(s.ctx, s.now())
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Error("failed to delete expired sessions", "error", err)
		}
		return 0
	}
	if n > 0 {
		s.logger.Info("expired sessions removed", "count", n)
	}
	return n
}
