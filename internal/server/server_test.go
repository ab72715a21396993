package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clinichub/clinic-gateway/internal/config"
	"github.com/clinichub/clinic-gateway/internal/handoff"
	"github.com/clinichub/clinic-gateway/internal/registry"
	"github.com/clinichub/clinic-gateway/internal/session"
)

type stubQueue struct{ depth int }

func (s stubQueue) Depth() int { return s.depth }

type stubBridge struct{ connected bool }

func (s stubBridge) IsConnected(ctx context.Context) bool { return s.connected }

func newTestServer(t *testing.T) (*Server, *session.Store) {
	t.Helper()
	logger := slog.Default()
	store := session.NewStore(30*time.Minute, "en", logger)
	hm := handoff.NewManager(store, 15*time.Minute, []string{"admin"}, logger)
	reg, err := registry.New([]*registry.Descriptor{
		{Name: "gemini-flash", Kind: registry.KindGenerative, Provider: "gemini", Enabled: true},
		{Name: "canned", Kind: registry.KindDeterministic, Enabled: true},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	cfg := &config.Config{Server: config.ServerConfig{Port: 18080, Host: "localhost"}}
	return New(cfg, store, hm, reg, stubQueue{depth: 2}, nil, nil, logger), store
}

func TestHealthHandler(t *testing.T) {
	srv, store := newTestServer(t)
	store.GetOrCreate("u1", "webchat")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp HealthResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Sessions != 1 || resp.QueueDepth != 2 {
		t.Errorf("unexpected health payload: %+v", resp)
	}
	if resp.Bridge != "" {
		t.Errorf("bridge field should be omitted without an operator bridge, got %q", resp.Bridge)
	}
}

func TestHealthReportsBridgeStatus(t *testing.T) {
	logger := slog.Default()
	store := session.NewStore(30*time.Minute, "en", logger)
	hm := handoff.NewManager(store, 15*time.Minute, []string{"admin"}, logger)
	reg, err := registry.New([]*registry.Descriptor{
		{Name: "canned", Kind: registry.KindDeterministic, Enabled: true},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	cfg := &config.Config{Server: config.ServerConfig{Port: 18080, Host: "localhost"}}

	for _, tc := range []struct {
		connected bool
		want      string
	}{
		{true, "connected"},
		{false, "disconnected"},
	} {
		srv := New(cfg, store, hm, reg, stubQueue{}, nil, stubBridge{connected: tc.connected}, logger)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
		var resp HealthResponse
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Bridge != tc.want {
			t.Errorf("bridge = %q, want %q", resp.Bridge, tc.want)
		}
	}
}

func TestSessionEndpoints(t *testing.T) {
	srv, store := newTestServer(t)
	store.GetOrCreate("u1", "webchat")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/sessions", nil))
	var list SessionsResponse
	json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list.Sessions) != 1 || list.Sessions[0].UserID != "u1" {
		t.Errorf("unexpected sessions list: %+v", list)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/sessions/u1", nil))
	if rec.Code != 200 {
		t.Errorf("expected 200 for known session, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/sessions/ghost", nil))
	if rec.Code != 404 {
		t.Errorf("expected 404 for unknown session, got %d", rec.Code)
	}
}

func TestHandoffEndpoints(t *testing.T) {
	srv, store := newTestServer(t)
	sess := store.GetOrCreate("u1", "webchat")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/handoff",
		strings.NewReader(`{"user_id":"u1","enabled":true}`)))
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !sess.InAdminMode() {
		t.Error("expected session in admin mode")
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/handoff/replied",
		strings.NewReader(`{"user_id":"u1"}`)))
	if rec.Code != 200 {
		t.Errorf("expected 200 for replied, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/handoff",
		strings.NewReader(`{"user_id":"u1","enabled":false}`)))
	if sess.InAdminMode() {
		t.Error("expected session back in automation")
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/handoff",
		strings.NewReader(`{"user_id":"ghost","enabled":true}`)))
	if rec.Code != 404 {
		t.Errorf("expected 404 for unknown user, got %d", rec.Code)
	}
}

func TestModelEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/models", nil))
	var models ModelsResponse
	json.Unmarshal(rec.Body.Bytes(), &models)
	if len(models.Models) != 2 || !models.Models[0].Current {
		t.Errorf("unexpected models payload: %+v", models)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/models/switch",
		strings.NewReader(`{"name":"canned"}`)))
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/models", nil))
	json.Unmarshal(rec.Body.Bytes(), &models)
	for _, m := range models.Models {
		if m.Name == "canned" && !m.Current {
			t.Error("expected canned to be current after switch")
		}
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/models/switch",
		strings.NewReader(`{"name":"nope"}`)))
	if rec.Code != 404 {
		t.Errorf("expected 404 for unknown model, got %d", rec.Code)
	}
}
