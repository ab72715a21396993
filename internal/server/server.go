// Package server is the admin and webhook HTTP surface of the gateway.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinichub/clinic-gateway/internal/channel/messenger"
	"github.com/clinichub/clinic-gateway/internal/config"
	"github.com/clinichub/clinic-gateway/internal/handoff"
	"github.com/clinichub/clinic-gateway/internal/registry"
	"github.com/clinichub/clinic-gateway/internal/session"
)

// QueueStats is the slice of the request queue the health endpoint reports.
type QueueStats interface {
	Depth() int
}

// BridgeStatus reports operator bridge connectivity for the health endpoint.
type BridgeStatus interface {
	IsConnected(ctx context.Context) bool
}

// Server represents the HTTP server
type Server struct {
	cfg        *config.Config
	store      *session.Store
	handoff    *handoff.Manager
	registry   *registry.Registry
	queue      QueueStats
	bridge     BridgeStatus
	httpServer *http.Server
	startTime  time.Time
	logger     *slog.Logger
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Uptime     string `json:"uptime"`
	Sessions   int    `json:"sessions"`
	QueueDepth int    `json:"queue_depth"`
	Bridge     string `json:"bridge,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// SessionsResponse represents the sessions list
type SessionsResponse struct {
	Sessions []session.View `json:"sessions"`
}

// ModelsResponse represents the backend ring
type ModelsResponse struct {
	Models []registry.View `json:"models"`
}

// HandoffRequest toggles operator control over a session
type HandoffRequest struct {
	UserID  string `json:"user_id"`
	Enabled bool   `json:"enabled"`
}

// OperatorRepliedRequest re-arms a session's operator quiet period
type OperatorRepliedRequest struct {
	UserID string `json:"user_id"`
}

// SwitchModelRequest selects the active backend by name
type SwitchModelRequest struct {
	Name string `json:"name"`
}

// New creates a new HTTP server. msgr may be nil when the Messenger
// channel is disabled; its webhook routes are then not mounted. bridge
// may be nil when the operator bridge is disabled; /health then omits
// the bridge field.
func New(cfg *config.Config, store *session.Store, hm *handoff.Manager,
	reg *registry.Registry, q QueueStats, msgr *messenger.MessengerAdapter,
	bridge BridgeStatus, logger *slog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		store:     store,
		handoff:   hm,
		registry:  reg,
		queue:     q,
		bridge:    bridge,
		logger:    logger,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/v1/sessions", s.sessionsHandler)
	mux.HandleFunc("/api/v1/sessions/", s.sessionHandler)
	mux.HandleFunc("/api/v1/handoff", s.handoffHandler)
	mux.HandleFunc("/api/v1/handoff/replied", s.operatorRepliedHandler)
	mux.HandleFunc("/api/v1/models", s.modelsHandler)
	mux.HandleFunc("/api/v1/models/switch", s.switchModelHandler)

	if msgr != nil {
		mux.HandleFunc("/webhook", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				msgr.VerifyHandler(w, r)
			case http.MethodPost:
				msgr.ReceiveHandler(w, r)
			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
		})
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:     "healthy",
		Version:    "1.0.0",
		Uptime:     time.Since(s.startTime).String(),
		Sessions:   s.store.Len(),
		QueueDepth: s.queue.Depth(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if s.bridge != nil {
		response.Bridge = "disconnected"
		if s.bridge.IsConnected(r.Context()) {
			response.Bridge = "connected"
		}
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) sessionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, SessionsResponse{Sessions: s.store.Snapshots()})
}

func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := strings.TrimPrefix(r.URL.Path, "/api/v1/sessions/")
	if userID == "" {
		http.Error(w, "user id required", http.StatusBadRequest)
		return
	}
	sess, ok := s.store.Get(userID)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handoffHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req HandoffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var err error
	if req.Enabled {
		err = s.handoff.Enable(req.UserID)
	} else {
		err = s.handoff.Disable(req.UserID)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) operatorRepliedHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req OperatorRepliedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.handoff.OperatorReplied(req.UserID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) modelsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, ModelsResponse{Models: s.registry.Snapshot()})
}

func (s *Server) switchModelHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req SwitchModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	d, err := s.registry.SwitchTo(req.Name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.logger.Info("active model switched by operator", "model", d.Name)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "current": d.Name})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
