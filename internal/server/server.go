// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects handlers, middleware, and
// routes, and decides:
//   - which URL patterns map to which handler functions
//   - what middleware runs on which routes
//   - how the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// main.go opens the store and builds the verifier and provider client, then
// hands them to New:
//
//	Store    → IdentityService, ProjectService, ContractorService → handlers
//	Verifier → auth.RequireAuth
//
// Tests call New with an in-memory SQLite store and an HMAC verifier and
// drive Handler() through httptest.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/sakif/sitebook/internal/apperror"
	"github.com/sakif/sitebook/internal/auth"
	"github.com/sakif/sitebook/internal/handler"
	"github.com/sakif/sitebook/internal/middleware"
	"github.com/sakif/sitebook/internal/repository"
	"github.com/sakif/sitebook/internal/service"
)

var errRouteNotFound = &apperror.AppError{Err: apperror.ErrNotFound, Message: "no such route"}

// Config holds server configuration.
type Config struct {
	Port int
	// ExposeErrors adds internal error text to 500 responses. Development only.
	ExposeErrors       bool
	CORSAllowedOrigins []string
}

// Deps are the collaborators the server does not build itself.
type Deps struct {
	Store    repository.Store
	Verifier auth.Verifier
	// Profiles may be nil; users are then provisioned with placeholder values.
	Profiles auth.ProfileFetcher
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store. Start closes it after the HTTP server has
// drained, so no in-flight request sees a closed pool.
type Server struct {
	router  *chi.Mux
	config  Config
	logger  *slog.Logger
	store   repository.Store
	metrics *middleware.Metrics
}

// New creates a Server and registers every route.
func New(cfg Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if deps.Verifier == nil {
		return nil, errors.New("server: verifier is required")
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   deps.Store,
		metrics: middleware.NewMetrics(),
	}
	s.setupRoutes(deps)

	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /health                   → liveness + database ping
//	GET    /metrics                  → Prometheus exposition
//	GET    /api/projects/public      → public projects (no auth)
//	GET    /api/me                   → caller's local user
//	GET    /api/projects             → list own projects
//	POST   /api/projects             → create project
//	GET    /api/projects/{id}        → get project
//	PUT    /api/projects/{id}        → partial update (PATCH too)
//	DELETE /api/projects/{id}        → delete project
//	...same five for /api/contractors
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added:
//  1. RequestID assigns an id to each request (for tracing)
//  2. RealIP extracts the client IP from proxy headers
//  3. Logger logs each request with timing info
//  4. Metrics counts requests per route
//  5. Recoverer turns a panic into a 500 instead of crashing; it sits
//     inside Logger and Metrics so the 500 is still recorded
//  6. CORS answers preflight requests before auth sees them
//
// Protected routes then add RequireAuth (401 on a bad token) and Provision
// (resolve the local user).
func (s *Server) setupRoutes(deps Deps) {
	resp := handler.NewResponder(s.logger, s.config.ExposeErrors)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(s.metrics.Middleware)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.New(cors.Options{
		AllowedOrigins:   s.config.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{chimiddleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		resp.WriteError(w, r, errRouteNotFound)
	})

	identity := service.NewIdentityService(deps.Profiles, deps.Store, s.logger)
	projectHandler := handler.NewProjectHandler(service.NewProjectService(deps.Store, s.logger), resp)
	contractorHandler := handler.NewContractorHandler(service.NewContractorService(deps.Store, s.logger), resp)

	s.router.Get("/health", handler.HandleHealth(deps.Store, s.logger))
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		// Registered before the authenticated group; chi prefers the static
		// segment over {id}.
		r.Get("/projects/public", projectHandler.HandleListPublic)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(deps.Verifier, s.logger))
			r.Use(middleware.Provision(identity, s.metrics, resp.WriteError, s.logger))

			r.Get("/me", handler.HandleMe(resp))

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.HandleList)
				r.Post("/", projectHandler.HandleCreate)
				r.Get("/{id}", projectHandler.HandleGet)
				r.Put("/{id}", projectHandler.HandleUpdate)
				r.Patch("/{id}", projectHandler.HandleUpdate)
				r.Delete("/{id}", projectHandler.HandleDelete)
			})

			r.Route("/contractors", func(r chi.Router) {
				r.Get("/", contractorHandler.HandleList)
				r.Post("/", contractorHandler.HandleCreate)
				r.Get("/{id}", contractorHandler.HandleGet)
				r.Put("/{id}", contractorHandler.HandleUpdate)
				r.Patch("/{id}", contractorHandler.HandleUpdate)
				r.Delete("/{id}", contractorHandler.HandleDelete)
			})
		})
	})
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Close the store (flushes the SQLite WAL, releases Postgres connections)
func (s *Server) Start() error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
