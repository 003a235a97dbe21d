package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"gramline/internal/config"
	"gramline/internal/history"
	"gramline/internal/library"
	"gramline/internal/logging"
	"gramline/internal/workflow"
)

//go:embed static
var staticFS embed.FS

// Trigger starts a posting run on behalf of the dashboard.
type Trigger interface {
	Run(ctx context.Context, opts workflow.RunOptions) (*workflow.RunReport, error)
}

// Server exposes the dashboard API and UI over HTTP.
type Server struct {
	bind    string
	logger  *slog.Logger
	lib     *library.Library
	ledger  *history.Store
	trigger Trigger

	listener net.Listener
	server   *http.Server
}

// New builds a Server from configuration. The ledger and trigger are
// optional; missing pieces disable the corresponding endpoints gracefully.
func New(cfg *config.Config, lib *library.Library, ledger *history.Store, trigger Trigger, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("dashboard bind address not configured")
	}

	srv := &Server{
		bind:    bind,
		logger:  logging.NewComponentLogger(logger, "dashboard"),
		lib:     lib,
		ledger:  ledger,
		trigger: trigger,
	}

	token := cfg.Paths.APIToken
	mux := http.NewServeMux()
	mux.HandleFunc("/api/stats", authMiddleware(token, srv.handleStats))
	mux.HandleFunc("/api/post", authMiddleware(token, srv.handlePost))
	mux.HandleFunc("/api/months/", authMiddleware(token, srv.handleMonth))

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("embed static assets: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(static)))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Handler exposes the routed handler (used in tests).
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("dashboard listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("dashboard server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("dashboard listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
