// Package apihttp exposes the playback engine to player surfaces: session
// lifecycle, action dispatch, subtitle operations, preferences, and a
// WebSocket push channel for state snapshots.
package apihttp

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"playbackengine/internal/domain"
	"playbackengine/internal/domain/ports"
	"playbackengine/internal/session"
)

type Server struct {
	sessions    *session.Manager
	preferences ports.PreferencesStore
	progress    ports.ProgressStore
	logger      *slog.Logger
	handler     http.Handler
	wsHub       *wsHub

	rateLimitRPS   float64
	rateLimitBurst int
}

type ServerOption func(*Server)

func WithPreferences(store ports.PreferencesStore) ServerOption {
	return func(s *Server) {
		s.preferences = store
	}
}

func WithProgress(store ports.ProgressStore) ServerOption {
	return func(s *Server) {
		s.progress = store
	}
}

func WithRateLimit(rps float64, burst int) ServerOption {
	return func(s *Server) {
		if rps > 0 && burst > 0 {
			s.rateLimitRPS = rps
			s.rateLimitBurst = burst
		}
	}
}

func NewServer(sessions *session.Manager, logger *slog.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		sessions:       sessions,
		logger:         logger,
		wsHub:          newWSHub(logger),
		rateLimitRPS:   200,
		rateLimitBurst: 400,
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.wsHub.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/sessions", s.handleSessions)
	mux.HandleFunc("/api/v1/sessions/", s.handleSessionByID)
	mux.HandleFunc("/api/v1/preferences", s.handlePreferences)
	mux.HandleFunc("/api/v1/progress", s.handleProgress)
	mux.HandleFunc("/api/v1/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "playback-engine",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/healthz"
		}),
	)
	s.handler = recoveryMiddleware(s.logger, rateLimitMiddleware(s.rateLimitRPS, s.rateLimitBurst, metricsMiddleware(corsMiddleware(traced))))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close disconnects all WebSocket clients.
func (s *Server) Close() {
	if s.wsHub != nil {
		s.wsHub.Close()
	}
}

// BroadcastSession pushes a state snapshot to every connected surface; wired
// as the session manager's OnChange callback.
func (s *Server) BroadcastSession(sessionID string, state domain.PlaybackSession) {
	s.wsHub.BroadcastSession(sessionID, state)
}

// NavigateNext implements ports.Navigator over the WebSocket hub.
func (s *Server) NavigateNext(contentID string, autoplay bool) {
	s.wsHub.BroadcastNavigate(contentID, autoplay)
}

// BroadcastSource tells surfaces which URL a session's media element should
// carry; wired as the session manager's OnSurfaceSource callback.
func (s *Server) BroadcastSource(sessionID, url string) {
	s.wsHub.BroadcastSource(sessionID, url)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("ws upgrade failed", slog.String("error", err.Error()))
		return
	}
	client := &wsClient{
		hub:  s.wsHub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	// The hub stops consuming register once it shuts down; an upgrade that
	// lands in that window must not block here forever.
	select {
	case s.wsHub.register <- client:
	case <-s.wsHub.done:
		_ = conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}

// userID identifies the caller; surfaces send it in a header, single-user
// deployments fall back to "default".
func userID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-User-ID")); id != "" {
		return id
	}
	return "default"
}
