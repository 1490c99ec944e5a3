// Package server wires the router, middleware and all route definitions.
//
// This package is the composition root: the database, services and handlers
// are constructed here in one place, each layer receiving only the interfaces
// it needs. main.go stays minimal — load config, create the server, start it.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/sakif/tradecircle/internal/auth"
	"github.com/sakif/tradecircle/internal/config"
	"github.com/sakif/tradecircle/internal/handler"
	"github.com/sakif/tradecircle/internal/middleware"
	sqliteRepo "github.com/sakif/tradecircle/internal/repository/sqlite"
	"github.com/sakif/tradecircle/internal/service"
	"github.com/sakif/tradecircle/internal/storage"
)

// Server owns the router and the resources that must be released on
// shutdown (the database connection).
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain:
//
//	sqlite.DB → services → handlers → routes
//
// The service layer receives repository interfaces, handlers receive
// services; nothing below this function constructs its own dependencies.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and binds every route to its handler.
//
// MIDDLEWARE ORDER: RequestID and RealIP run first so the logger and the
// rate limiter see the request ID and the real client IP; Recoverer wraps
// everything below it so a panicking handler becomes a 500, not a crash.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics)

	tokens, err := auth.NewTokenService(s.config.JWTSecret, time.Duration(s.config.JWTExpireHours)*time.Hour)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	images, err := storage.NewImageStore(s.config.UploadDir, s.logger)
	if err != nil {
		return fmt.Errorf("creating image store: %w", err)
	}

	var github *auth.GitHubProvider
	if s.config.GitHubEnabled() {
		callbackURL := s.config.GitHubCallbackURL
		if callbackURL == "" {
			callbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", s.config.Port)
		}
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, callbackURL)
	}

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	listingService := service.NewListingService(s.db, images, s.logger)

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	listingHandler := handler.NewListingHandler(listingService, images, s.logger)

	// Credential endpoints get a per-IP rate limit so password guessing and
	// bulk registration are throttled before they reach bcrypt.
	s.router.Group(func(r chi.Router) {
		if s.config.AuthRatePerMinute > 0 {
			limiter := middleware.NewIPRateLimiter(
				rate.Limit(float64(s.config.AuthRatePerMinute)/60.0),
				s.config.AuthRateBurst,
			)
			r.Use(limiter.Middleware)
		}
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
	})

	// Public reads.
	s.router.Get("/listings", listingHandler.HandleList)
	s.router.Get("/search", listingHandler.HandleSearch)

	// Authenticated routes.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/me", authHandler.HandleMe)
		r.Get("/my-listings", listingHandler.HandleMyListings)
		r.Post("/add-listing", listingHandler.HandleCreate)
		r.Put("/listings/{id}", listingHandler.HandleUpdate)
		r.Delete("/listings/{id}", listingHandler.HandleDelete)
	})

	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	s.router.Handle("/metrics", promhttp.Handler())

	return nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the server's resources without going through Start.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30 seconds
// to finish, close the database so the WAL is flushed.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.Bool("githubAuth", s.config.GitHubEnabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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
