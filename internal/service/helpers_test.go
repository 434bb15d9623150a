package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/iconidentify/exambot/internal/config"
	"github.com/iconidentify/exambot/internal/domain"
	"github.com/iconidentify/exambot/internal/notify"
	"github.com/iconidentify/exambot/internal/repository"
	"github.com/iconidentify/exambot/internal/upload"
)

var errBackendDown = errors.New("backend down")

// fakeBackend is a scriptable backend.Client.
type fakeBackend struct {
	mu sync.Mutex

	loginOK  bool
	loginErr error

	ads      domain.AdSet
	fetchErr error

	updateErr error
	updated   []domain.AdSet

	genText  string
	genErr   error
	genBlock chan struct{}
	genCalls []genCall

	fetchCalls int
}

type genCall struct {
	kind   domain.GenerationKind
	images []string
}

func (f *fakeBackend) Login(ctx context.Context, username, password string) (bool, error) {
	return f.loginOK, f.loginErr
}

func (f *fakeBackend) FetchAds(ctx context.Context) (domain.AdSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.ads == nil {
		return domain.NewAdSet(), nil
	}
	return f.ads.Clone(), nil
}

func (f *fakeBackend) UpdateAds(ctx context.Context, ads domain.AdSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, ads.Clone())
	return f.updateErr
}

func (f *fakeBackend) Generate(ctx context.Context, kind domain.GenerationKind, images []string) (string, error) {
	f.mu.Lock()
	f.genCalls = append(f.genCalls, genCall{kind: kind, images: images})
	block := f.genBlock
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.genText, f.genErr
}

func (f *fakeBackend) generateCalls() []genCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]genCall(nil), f.genCalls...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDeps(t *testing.T, fb *fakeBackend) Deps {
	t.Helper()
	return Deps{
		Backend:    fb,
		Sessions:   repository.NewInMemorySessionRepository(),
		Encoder:    upload.NewEncoder(config.UploadConfig{MaxFileBytes: 1024, Concurrency: 2}),
		SessionTTL: time.Hour,
		Logger:     testLogger(),
	}
}

func messages(q *notify.Queue) []string {
	var out []string
	for _, n := range q.Drain() {
		out = append(out, n.Message)
	}
	return out
}

func lastToast(t *testing.T, q *notify.Queue) domain.Notification {
	t.Helper()
	items := q.Drain()
	if len(items) == 0 {
		t.Fatal("expected a toast, got none")
	}
	return items[len(items)-1]
}
