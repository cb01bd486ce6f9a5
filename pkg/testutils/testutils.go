// Package testutils holds helpers shared by service and webapi tests: a fake
// backend, ready-made service dependencies and Fiber request helpers.
package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/amirasaad/payconsole/infra/cache"
	infraeventbus "github.com/amirasaad/payconsole/infra/eventbus"
	"github.com/amirasaad/payconsole/pkg/apiclient"
	"github.com/amirasaad/payconsole/pkg/eventbus"
	"github.com/amirasaad/payconsole/pkg/query"
	"github.com/amirasaad/payconsole/pkg/service"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// Backend is a fake payment API. Routes use net/http patterns such as
// "POST /v1/admin/fee-rules/{id}/activate"; every hit is counted.
type Backend struct {
	URL string

	mux      *http.ServeMux
	mu       sync.Mutex
	hits     map[string]int
	requests map[string][]*http.Request
	bodies   map[string][][]byte
}

// NewBackend starts a fake backend closed at test cleanup.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		mux:      http.NewServeMux(),
		hits:     make(map[string]int),
		requests: make(map[string][]*http.Request),
		bodies:   make(map[string][][]byte),
	}
	srv := httptest.NewServer(b.mux)
	t.Cleanup(srv.Close)
	b.URL = srv.URL
	return b
}

// Handle answers pattern with status. Successful responses wrap data in a
// {"success": true, "data": ...} envelope; failures send {"message": data}
// unless data is nil, in which case the body is empty.
func (b *Backend) Handle(pattern string, status int, data any) {
	b.HandleFunc(pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		switch {
		case status == http.StatusNoContent:
		case status >= 400 && data != nil:
			_ = json.NewEncoder(w).Encode(map[string]any{"message": data})
		case status < 400:
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
		}
	})
}

// HandleFunc registers a custom handler; hits are still counted.
func (b *Backend) HandleFunc(pattern string, h http.HandlerFunc) {
	b.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
		b.mu.Lock()
		b.hits[pattern]++
		b.requests[pattern] = append(b.requests[pattern], r.Clone(r.Context()))
		b.bodies[pattern] = append(b.bodies[pattern], body)
		b.mu.Unlock()
		h(w, r)
	})
}

// Count returns how many times pattern was hit.
func (b *Backend) Count(pattern string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[pattern]
}

// LastRequest returns the last request seen on pattern, or nil.
func (b *Backend) LastRequest(pattern string) *http.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	reqs := b.requests[pattern]
	if len(reqs) == 0 {
		return nil
	}
	return reqs[len(reqs)-1]
}

// LastBody returns the body of the last request seen on pattern.
func (b *Backend) LastBody(pattern string) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	bodies := b.bodies[pattern]
	if len(bodies) == 0 {
		return nil
	}
	return bodies[len(bodies)-1]
}

// Logger discards everything below error.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// Deps builds service dependencies against baseURL with a memory cache and
// a memory bus.
func Deps(t *testing.T, baseURL string) (service.Deps, *infraeventbus.MemoryEventBus) {
	t.Helper()
	logger := Logger()
	client, err := apiclient.New(
		apiclient.Config{BaseURL: baseURL, Timeout: 5 * time.Second},
		apiclient.WithTokenSource(apiclient.StaticToken("test-token")),
		apiclient.WithLogger(logger),
	)
	require.NoError(t, err)
	store := cache.NewMemoryCache()
	t.Cleanup(func() { _ = store.Close() })
	bus := infraeventbus.NewWithMemory(logger)
	return service.Deps{
		Client: client,
		Cache:  query.New(store, query.WithLogger(logger)),
		Bus:    bus,
		Logger: logger,
		Stale:  service.DefaultStaleTimes(),
	}, bus
}

// AdminActions returns the admin.action events published on bus.
func AdminActions(bus *infraeventbus.MemoryEventBus) []eventbus.AdminAction {
	var out []eventbus.AdminAction
	for _, e := range bus.Published() {
		if a, ok := e.(eventbus.AdminAction); ok {
			out = append(out, a)
		}
	}
	return out
}

// LastAdminAction returns the most recent admin.action event.
func LastAdminAction(t *testing.T, bus *infraeventbus.MemoryEventBus) eventbus.AdminAction {
	t.Helper()
	actions := AdminActions(bus)
	require.NotEmpty(t, actions, "no admin.action event was published")
	return actions[len(actions)-1]
}

// SignToken returns an HS256 console token for subject with role.
func SignToken(t *testing.T, secret, subject, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

// MakeRequest sends a request through app.Test. A non-empty body is sent as
// JSON and a non-empty token as a bearer token.
func MakeRequest(t *testing.T, app *fiber.App, method, path, body, token string) *http.Response {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// DecodeJSON reads resp's body into out.
func DecodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}
