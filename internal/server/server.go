// Package server provides the HTTP status, stream and metrics surface for airmouse.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ayusman/airmouse/internal/engine"
	"github.com/ayusman/airmouse/internal/logging"
	"github.com/ayusman/airmouse/internal/metrics"
	"github.com/ayusman/airmouse/internal/server/api"
	"github.com/ayusman/airmouse/internal/sink"
	"github.com/ayusman/airmouse/internal/store"
)

// Status is the snapshot served on /api/status and pushed on /api/state.
type Status struct {
	Enabled    bool         `json:"enabled"`
	FPS        float64      `json:"fps"`
	Engine     engine.State `json:"engine"`
	LastAction string       `json:"last_action,omitempty"`
	Sinks      sink.Report  `json:"sinks"`
	Time       time.Time    `json:"time"`
}

// StatusSource supplies status snapshots. It must be safe for concurrent use.
type StatusSource interface {
	Status() Status
}

// Controller is a StatusSource that can also be switched on and off.
type Controller interface {
	StatusSource
	api.Switch
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Status    StatusSource
	Frames    *FrameBuffer
}

// Server represents the HTTP server for the airmouse application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	state  *StateHandler
	http   *http.Server
	logger zerolog.Logger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		logger: logging.Component("server"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	metrics.Register()
	s.mux.Handle("/metrics", promhttp.Handler())

	if s.config.Store != nil {
		s.mux.Handle("/api/events", api.NewEventsHandler(s.config.Store))
	}

	if s.config.Status != nil {
		s.mux.HandleFunc("/api/status", s.handleStatus)

		s.state = NewStateHandler(s.config.Status)
		s.mux.Handle("/api/state", s.state)

		if c, ok := s.config.Status.(Controller); ok {
			s.mux.Handle("/api/enabled", api.NewEnabledHandler(c))
		}
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).Round(time.Second).String(),
	}
	writeJSON(w, response)
}

// handleStatus handles GET requests to /api/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.config.Status.Status())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		// Streams end with ctx instead of holding up Shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http server listening")
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	s.Close()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// Close stops the websocket broadcaster.
func (s *Server) Close() {
	if s.state != nil {
		s.state.Close()
	}
}
