package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/auth"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/config"
)

// Server represents the API server
type Server struct {
	config      config.ServerConfig
	handler     http.Handler
	handlers    *Handlers
	server      *http.Server
	authManager *auth.Manager
	schoolCtx   *SchoolContextProvider
	router      *chi.Mux
	apiRouter   chi.Router // sub-router for /api/v1 (carries auth middleware)
}

// NewServer creates a new API server. authManager, schoolCtx and hc may be
// nil; the corresponding routes and middleware are skipped.
func NewServer(cfg *config.Config, h *Handlers, authManager *auth.Manager, schoolCtx *SchoolContextProvider, hc *HealthChecker) *Server {
	router, apiRouter := SetupRoutes(h, authManager, schoolCtx, hc, cfg.CORS)

	return &Server{
		config:      cfg.Server,
		handler:     router,
		handlers:    h,
		authManager: authManager,
		schoolCtx:   schoolCtx,
		router:      router,
		apiRouter:   apiRouter,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.handler,
		// Timeouts are generous to support large media uploads (videos up to
		// 200MB). Individual endpoints use context deadlines for tighter control.
		ReadTimeout:       5 * time.Minute,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.handler
}

// APIRouter returns the authenticated /api/v1 sub-router for late-registered
// route groups.
func (s *Server) APIRouter() chi.Router {
	return s.apiRouter
}

// SchoolContext returns the school context provider, for cache invalidation
// after school mutations.
func (s *Server) SchoolContext() *SchoolContextProvider {
	return s.schoolCtx
}
