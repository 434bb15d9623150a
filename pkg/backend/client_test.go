package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iconidentify/exambot/internal/config"
	"github.com/iconidentify/exambot/internal/domain"
)

func newTestClient(url string) *HTTPClient {
	return NewClient(config.BackendConfig{URL: url + "/", Timeout: 5 * time.Second})
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c := NewClient(config.BackendConfig{URL: "https://b.example.com///"})
	if c.baseURL != "https://b.example.com" {
		t.Errorf("baseURL = %q", c.baseURL)
	}
	if c.limiter != nil {
		t.Error("limiter should be nil when GenerateRPS is zero")
	}

	limited := NewClient(config.BackendConfig{URL: "https://b", GenerateRPS: 2})
	if limited.limiter == nil {
		t.Error("limiter should be set when GenerateRPS > 0")
	}
}

func TestHTTPClient_Login(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"success true", `{"success": true}`, true},
		{"success false", `{"success": false}`, false},
		{"success missing", `{}`, false},
		{"success numeric", `{"success": 1}`, true},
		{"success zero", `{"success": 0}`, false},
		{"success string", `{"success": "yes"}`, true},
		{"success null", `{"success": null}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("method = %s, want POST", r.Method)
				}
				if r.URL.Path != "/api/admin/login" {
					t.Errorf("path = %s, want /api/admin/login", r.URL.Path)
				}
				var req map[string]string
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Fatalf("decode request: %v", err)
				}
				if req["username"] != "admin" || req["password"] != "secret" {
					t.Errorf("credentials = %v", req)
				}
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			got, err := newTestClient(server.URL).Login(context.Background(), "admin", "secret")
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Login() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHTTPClient_Login_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Invalid credentials"}`))
	}))
	defer server.Close()

	ok, err := newTestClient(server.URL).Login(context.Background(), "admin", "wrong")
	if ok {
		t.Error("Login() should not succeed")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, http.StatusUnauthorized)
	}
	if apiErr.Path != "/api/admin/login" {
		t.Errorf("Path = %q", apiErr.Path)
	}
}

func TestHTTPClient_FetchAds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/ads" {
			t.Errorf("request = %s %s, want GET /api/ads", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"left1": {"imageUrl": "https://img/l1.png", "linkUrl": "https://l1"},
			"left2": {"imageUrl": "", "linkUrl": ""},
			"right1": {"imageUrl": "https://img/r1.png", "linkUrl": "https://r1"},
			"right2": {"imageUrl": "", "linkUrl": ""},
			"top": {"imageUrl": "https://img/t.png", "linkUrl": "https://t"},
			"bottom": {"imageUrl": "", "linkUrl": ""}
		}`))
	}))
	defer server.Close()

	ads, err := newTestClient(server.URL).FetchAds(context.Background())
	if err != nil {
		t.Fatalf("FetchAds() error = %v", err)
	}
	if len(ads) != 6 {
		t.Errorf("len = %d, want 6", len(ads))
	}
	if got := ads[domain.SlotRight1]; got.ImageURL != "https://img/r1.png" || got.LinkURL != "https://r1" {
		t.Errorf("right1 = %+v", got)
	}
}

func TestHTTPClient_FetchAds_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).FetchAds(context.Background()); err == nil {
		t.Error("FetchAds() should fail on 500")
	}
}

func TestHTTPClient_FetchAds_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).FetchAds(context.Background()); err == nil {
		t.Error("FetchAds() should fail on invalid JSON")
	}
}

func TestHTTPClient_FetchAds_NullBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`null`))
	}))
	defer server.Close()

	ads, err := newTestClient(server.URL).FetchAds(context.Background())
	if err == nil {
		t.Fatalf("FetchAds() = %v, want error for null body", ads)
	}
	if ads != nil {
		t.Errorf("ads = %v, want nil", ads)
	}
}

func TestHTTPClient_UpdateAds(t *testing.T) {
	ads := domain.NewAdSet()
	ads[domain.SlotBottom] = domain.AdSlot{ImageURL: "https://img/b.png", LinkURL: "https://b"}

	var received map[string]domain.AdSlot
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/ads/update" {
			t.Errorf("request = %s %s, want POST /api/ads/update", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode: %v", err)
		}
		w.Write([]byte(`{"message":"ok"}`))
	}))
	defer server.Close()

	if err := newTestClient(server.URL).UpdateAds(context.Background(), ads); err != nil {
		t.Fatalf("UpdateAds() error = %v", err)
	}
	if len(received) != 6 {
		t.Errorf("received %d slots, want 6", len(received))
	}
	if received["bottom"].ImageURL != "https://img/b.png" {
		t.Errorf("bottom = %+v", received["bottom"])
	}
}

func TestHTTPClient_Generate(t *testing.T) {
	for _, kind := range []domain.GenerationKind{domain.KindSummary, domain.KindQuestions} {
		t.Run(kind.String(), func(t *testing.T) {
			var calls int
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				if r.URL.Path != kind.Endpoint() {
					t.Errorf("path = %s, want %s", r.URL.Path, kind.Endpoint())
				}
				body, _ := io.ReadAll(r.Body)
				var req struct {
					Images []string `json:"images"`
				}
				if err := json.Unmarshal(body, &req); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if len(req.Images) != 2 || req.Images[0] != "QQ==" || req.Images[1] != "Qg==" {
					t.Errorf("images = %v", req.Images)
				}
				json.NewEncoder(w).Encode(map[string]string{"result": "**Done**"})
			}))
			defer server.Close()

			got, err := newTestClient(server.URL).Generate(context.Background(), kind, []string{"QQ==", "Qg=="})
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if got != "**Done**" {
				t.Errorf("Generate() = %q, want raw text", got)
			}
			if calls != 1 {
				t.Errorf("calls = %d, want 1", calls)
			}
		})
	}
}

func TestHTTPClient_Generate_MissingResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"model unavailable"}`))
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).Generate(context.Background(), domain.KindSummary, []string{"x"}); err == nil {
		t.Error("Generate() should fail when result is missing")
	}
}

func TestHTTPClient_Generate_RateLimitHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"ok"}`))
	}))
	defer server.Close()

	c := NewClient(config.BackendConfig{URL: server.URL, Timeout: 5 * time.Second, GenerateRPS: 0.001})

	if _, err := c.Generate(context.Background(), domain.KindSummary, []string{"x"}); err != nil {
		t.Fatalf("first Generate() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Generate(ctx, domain.KindSummary, []string{"x"}); err == nil {
		t.Error("second Generate() should fail waiting for the limiter")
	}
}

func TestHTTPClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestClient(server.URL).FetchAds(ctx); err == nil {
		t.Error("FetchAds() should fail with cancelled context")
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{nil, false},
		{true, true},
		{false, false},
		{float64(0), false},
		{float64(2), true},
		{"", false},
		{"ok", true},
		{map[string]any{}, true},
	}

	for _, tt := range tests {
		if got := truthy(tt.in); got != tt.want {
			t.Errorf("truthy(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
