// Package backend is the HTTP client for the ExamBot backend service.
//
// Admin and ad routes live under the "/api" prefix of the configured origin;
// generation routes hang directly off the origin.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/iconidentify/exambot/internal/config"
	"github.com/iconidentify/exambot/internal/domain"
)

// Client talks to the ExamBot backend.
type Client interface {
	// Login checks admin credentials. It reports the backend's success flag.
	Login(ctx context.Context, username, password string) (bool, error)
	// FetchAds returns the full six-slot ad configuration.
	FetchAds(ctx context.Context) (domain.AdSet, error)
	// UpdateAds replaces the full ad configuration.
	UpdateAds(ctx context.Context, ads domain.AdSet) error
	// Generate submits base64 image payloads and returns the raw result text.
	Generate(ctx context.Context, kind domain.GenerationKind, images []string) (string, error)
}

// APIError is returned for non-2xx backend responses.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// HTTPClient implements Client over JSON HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	// limiter throttles generation calls; nil means unlimited.
	limiter *rate.Limiter
}

// NewClient creates a new backend client.
func NewClient(cfg config.BackendConfig) *HTTPClient {
	c := &HTTPClient{
		baseURL: cfg.BaseURL(),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
	if cfg.GenerateRPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.GenerateRPS), 1)
	}
	return c
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success any `json:"success"`
}

type generateRequest struct {
	Images []string `json:"images"`
}

type generateResponse struct {
	Result *string `json:"result"`
}

// Login posts credentials to /api/admin/login.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (bool, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/api/admin/login", loginRequest{Username: username, Password: password}, &resp); err != nil {
		return false, err
	}
	return truthy(resp.Success), nil
}

// FetchAds reads /api/ads.
func (c *HTTPClient) FetchAds(ctx context.Context) (domain.AdSet, error) {
	var ads domain.AdSet
	if err := c.do(ctx, http.MethodGet, "/api/ads", nil, &ads); err != nil {
		return nil, err
	}
	// A null document decodes to a nil set.
	if ads == nil {
		return nil, fmt.Errorf("empty ads response")
	}
	return ads, nil
}

// UpdateAds posts the full set to /api/ads/update. The response body is ignored.
func (c *HTTPClient) UpdateAds(ctx context.Context, ads domain.AdSet) error {
	return c.do(ctx, http.MethodPost, "/api/ads/update", ads, nil)
}

// Generate posts images to the kind-specific generation endpoint.
func (c *HTTPClient) Generate(ctx context.Context, kind domain.GenerationKind, images []string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var resp generateResponse
	if err := c.do(ctx, http.MethodPost, kind.Endpoint(), generateRequest{Images: images}, &resp); err != nil {
		return "", err
	}
	if resp.Result == nil {
		return "", fmt.Errorf("generate %s: response has no result", kind)
	}
	return *resp.Result, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// truthy mirrors loose boolean checks on JSON values: false, 0, "", null
// and a missing field are all false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}
