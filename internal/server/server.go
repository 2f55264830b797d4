// Package server exposes the relay over HTTP: one POST endpoint streams the
// output of an allow-listed command as a chunked text/plain response.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xdg/termrelay/internal/audit"
	"github.com/xdg/termrelay/internal/clog"
	"github.com/xdg/termrelay/internal/config"
	"github.com/xdg/termrelay/internal/policy"
	"github.com/xdg/termrelay/internal/relay"
)

// DefaultPath is the terminal endpoint used when none is configured.
const DefaultPath = "/api/terminal"

// maxBodyBytes bounds the JSON request body.
const maxBodyBytes = 64 << 10

// Server is the HTTP front end of termrelay.
type Server struct {
	// Addr is the address to listen on (e.g., ":8000").
	Addr string

	// Path is the terminal endpoint path.
	Path string

	validator *policy.Validator
	relay     *relay.Relay
	audit     *audit.Logger
	cors      corsPolicy

	server   *http.Server
	listener net.Listener
	mu       sync.Mutex
	running  bool
}

// New creates a server from its configuration. A nil audit logger disables
// auditing.
func New(cfg config.ServerConfig, v *policy.Validator, r *relay.Relay, a *audit.Logger) *Server {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	return &Server{
		Addr:      cfg.Listen,
		Path:      path,
		validator: v,
		relay:     r,
		audit:     a,
		cors:      newCORSPolicy(cfg.AllowedOrigins),
	}
}

// Handler returns the server's routes wrapped in the CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+s.Path, s.handleTerminal)
	mux.HandleFunc("GET /api/commands", s.handleCommands)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.cors.wrap(mux)
}

// Start begins accepting connections.
// It returns an error if the server is already running or fails to listen.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server already running")
	}

	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr, err)
	}

	s.listener = listener
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 30 * time.Second,
		ErrorLog:          log.New(clog.Writer(clog.LevelWarn), "server: ", 0),
	}
	s.running = true

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			clog.Error("server: %v", err)
		}
	}()

	clog.Info("server: listening on %s, terminal endpoint POST %s", listener.Addr(), s.Path)
	return nil
}

// Stop shuts the server down, waiting for in-flight streams until ctx is
// done. Connections still open at that point are closed, which cancels
// their streams and terminates the executions behind them.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	err := s.server.Shutdown(ctx)
	if err != nil {
		clog.Warn("server: graceful shutdown incomplete: %v", err)
		_ = s.server.Close()
	}
	return err
}

// ListenAddr returns the actual address the server is listening on, or ""
// if the server has not been started.
func (s *Server) ListenAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// terminalRequest is the request body for the terminal endpoint.
type terminalRequest struct {
	Command string `json:"command"`
}

// healthResponse is the response body for GET /healthz.
type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}

// commandsResponse is the response body for GET /api/commands.
type commandsResponse struct {
	Commands []string `json:"commands"`
}

// errorResponse is an error response.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleTerminal(w http.ResponseWriter, r *http.Request) {
	var req terminalRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id := uuid.NewString()
	reqLog := clog.With("req=" + id[:8])
	trail := s.audit.Begin(id, r.RemoteAddr, req.Command)
	reqLog.Debug("%s %q", r.RemoteAddr, req.Command)

	decision := s.validator.Validate(req.Command)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Request-Id", id)
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	_ = rc.Flush()

	for chunk := range s.relay.Stream(r.Context(), decision, relay.WithTrail(trail), relay.WithLogger(reqLog)) {
		if _, err := io.WriteString(w, chunk); err != nil {
			reqLog.Debug("write: %v", err)
			break
		}
		if err := rc.Flush(); err != nil {
			reqLog.Debug("flush: %v", err)
			break
		}
	}
}

func (s *Server) handleCommands(w http.ResponseWriter, _ *http.Request) {
	names := s.validator.AllowList().Names()
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, commandsResponse{Commands: names})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Backend: s.relay.Backend().Name()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
