package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	mw "github.com/iconidentify/exambot/internal/api/middleware"
	"github.com/iconidentify/exambot/internal/config"
	"github.com/iconidentify/exambot/internal/domain"
	"github.com/iconidentify/exambot/internal/repository"
	"github.com/iconidentify/exambot/internal/service"
	"github.com/iconidentify/exambot/internal/upload"
	"github.com/iconidentify/exambot/pkg/ui"
)

var errBackendDown = errors.New("backend down")

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockBackend is a test implementation of backend.Client.
type mockBackend struct {
	mu        sync.Mutex
	loginOK   bool
	ads       domain.AdSet
	fetchErr  error
	updateErr error
	updated   []domain.AdSet
	genText   string
	genErr    error
}

func (m *mockBackend) Login(ctx context.Context, username, password string) (bool, error) {
	return m.loginOK && password == "secret", nil
}

func (m *mockBackend) FetchAds(ctx context.Context) (domain.AdSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	if m.ads == nil {
		return domain.NewAdSet(), nil
	}
	return m.ads.Clone(), nil
}

func (m *mockBackend) UpdateAds(ctx context.Context, ads domain.AdSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated = append(m.updated, ads.Clone())
	return m.updateErr
}

func (m *mockBackend) Generate(ctx context.Context, kind domain.GenerationKind, images []string) (string, error) {
	return m.genText, m.genErr
}

// mockPinger is a test implementation of Pinger.
type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error { return m.err }

type fixedCounter int

func (c fixedCounter) Len() int { return int(c) }

// testEnv wires the page handlers behind a visitor cookie and replays
// cookies between requests like a browser.
type testEnv struct {
	t          *testing.T
	backend    *mockBackend
	workspaces *service.Workspaces
	router     http.Handler
	cookies    map[string]*http.Cookie
	current    *service.Workspace
}

func newTestEnv(t *testing.T, backend *mockBackend) *testEnv {
	t.Helper()

	deps := service.Deps{
		Backend:    backend,
		Sessions:   repository.NewInMemorySessionRepository(),
		Encoder:    upload.NewEncoder(config.UploadConfig{MaxFileBytes: 1 << 20, Concurrency: 2}),
		SessionTTL: time.Hour,
		Logger:     testLogger(),
	}
	workspaces := service.NewWorkspaces(deps, time.Minute)
	t.Cleanup(workspaces.Close)

	renderer, err := ui.NewRenderer()
	if err != nil {
		t.Fatalf("failed to parse templates: %v", err)
	}
	sessions := mw.NewSessions("0123456789abcdef0123456789abcdef", false)

	home := NewHomeHandler(workspaces, sessions, renderer, 8<<20, testLogger())
	admin := NewAdminHandler(workspaces, sessions, renderer, testLogger())

	env := &testEnv{
		t:          t,
		backend:    backend,
		workspaces: workspaces,
		cookies:    make(map[string]*http.Cookie),
	}

	r := chi.NewRouter()
	r.Use(sessions.Visitor)
	r.Get("/_workspace", func(w http.ResponseWriter, r *http.Request) {
		env.current = workspaces.Get(mw.VisitorID(r.Context()))
	})
	r.Get("/", home.Index)
	r.Post("/upload", home.Upload)
	r.Post("/images/{imageID}/remove", home.RemoveImage)
	r.Post("/generate/{kind}", home.Generate)
	r.Get("/admin", admin.Show)
	r.Post("/admin/login", admin.Login)
	r.Post("/admin/logout", admin.Logout)
	r.Post("/admin/ads", admin.Save)
	r.Post("/admin/ads/reload", admin.Reload)

	env.router = r
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	e.t.Helper()
	for _, c := range e.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		e.cookies[c.Name] = c
	}
	return w
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (e *testEnv) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req)
}

type testFile struct {
	name        string
	contentType string
	content     []byte
}

func (e *testEnv) upload(files ...testFile) *httptest.ResponseRecorder {
	e.t.Helper()
	var body bytes.Buffer
	mp := multipart.NewWriter(&body)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="images"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := mp.CreatePart(h)
		if err != nil {
			e.t.Fatalf("CreatePart: %v", err)
		}
		part.Write(f.content)
	}
	mp.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mp.FormDataContentType())
	return e.do(req)
}

// workspace returns the workspace of the env's visitor.
func (e *testEnv) workspace() *service.Workspace {
	e.t.Helper()
	e.get("/_workspace")
	if e.current == nil {
		e.t.Fatal("no workspace captured")
	}
	return e.current
}
