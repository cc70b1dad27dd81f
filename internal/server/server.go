// Package server wires the application together: storage, token strategy,
// services, handlers, routes, and the HTTP server lifecycle.
//
// This is the composition root — every dependency is constructed here and
// injected downward. Each layer only receives what it needs: services get
// repository interfaces, handlers get services, and nobody below this
// package knows which token strategy is running.
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
	"github.com/redis/go-redis/v9"

	"github.com/sakif/taskboard/internal/auth"
	"github.com/sakif/taskboard/internal/config"
	"github.com/sakif/taskboard/internal/handler"
	"github.com/sakif/taskboard/internal/middleware"
	sqliteRepo "github.com/sakif/taskboard/internal/repository/sqlite"
	"github.com/sakif/taskboard/internal/service"
)

// Server owns the router and the resources that must be released on
// shutdown (the database, and the Redis client when the session strategy
// is active).
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	redis  *redis.Client // nil unless AuthStrategy == "session"
}

// New builds the full dependency graph for the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}

	strategy, err := s.newTokenStrategy()
	if err != nil {
		db.Close()
		return nil, err
	}

	if err := s.setupRoutes(strategy); err != nil {
		s.closeResources()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// newTokenStrategy constructs the configured TokenStrategy. The session
// strategy dials Redis eagerly so a bad address fails at startup, not at
// the first login.
func (s *Server) newTokenStrategy() (auth.TokenStrategy, error) {
	switch s.cfg.AuthStrategy {
	case config.StrategySession:
		client := redis.NewClient(&redis.Options{Addr: s.cfg.RedisAddr})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connecting to session store at %s: %w", s.cfg.RedisAddr, err)
		}
		s.redis = client

		s.logger.Info("auth: session strategy", slog.String("redis", s.cfg.RedisAddr))
		return auth.NewSessionStrategy(client, s.cfg.TokenTTL)

	case config.StrategyJWT:
		s.logger.Info("auth: jwt strategy", slog.Duration("ttl", s.cfg.TokenTTL))
		return auth.NewJWTStrategy(s.cfg.AuthSecret, s.cfg.TokenTTL)

	default:
		// config.Load already validated this; belt and braces.
		return nil, fmt.Errorf("unknown auth strategy %q", s.cfg.AuthStrategy)
	}
}

// setupRoutes configures middleware and all route handlers.
//
// ROUTE MAP:
//
//	GET  /                    home page (optional auth: greets known users)
//	GET  /login, /register    forms (public)
//	POST /login, /register    auth handlers (public)
//	GET/POST /logout          logout (public, idempotent)
//	GET  /tasks               dashboard          ┐
//	POST /tasks               create task        │ strict gate:
//	POST /tasks/{id}/status   update status      │ redirect to /login
//	POST /tasks/{id}/delete   delete task        ┘
//	GET  /api/me              current user       ┐ strict gate:
//	*    /api/tasks...        task JSON API      ┘ 401 JSON
func (s *Server) setupRoutes(strategy auth.TokenStrategy) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	fileServer := http.FileServer(http.Dir(s.cfg.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	view, err := handler.NewView(s.cfg.TemplateDir, s.logger)
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}

	users := sqliteRepo.NewUserDB(s.db)
	tasks := sqliteRepo.NewTaskDB(s.db)

	passwords := auth.NewPasswordService()
	authService := service.NewAuthService(users, strategy, passwords, s.logger)
	taskService := service.NewTaskService(tasks, s.logger)

	pageHandler := handler.NewPageHandler(view, s.logger)
	authHandler := handler.NewAuthHandler(authService, strategy, view, s.logger)
	taskHandler := handler.NewTaskHandler(taskService, view, s.logger)

	requireAuth := auth.RequireAuth(strategy, users, s.logger)
	optionalAuth := auth.OptionalAuth(strategy, users, s.logger)

	// Public pages. Home gets optional auth so it can greet a logged-in
	// user without demanding a login.
	s.router.With(optionalAuth).Get("/", pageHandler.HandleHome)
	s.router.Get("/login", pageHandler.HandleLoginPage)
	s.router.Get("/register", pageHandler.HandleRegisterPage)

	// Auth flows. Logout is registered for GET too so a plain link works;
	// it is idempotent either way.
	s.router.Post("/register", authHandler.HandleRegister)
	s.router.Post("/login", authHandler.HandleLogin)
	s.router.Post("/logout", authHandler.HandleLogout)
	s.router.Get("/logout", authHandler.HandleLogout)

	// Dashboard: strict gate, browser flavour (redirects to /login).
	s.router.Route("/tasks", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", taskHandler.HandleDashboard)
		r.Post("/", taskHandler.HandleCreateForm)
		r.Post("/{id}/status", taskHandler.HandleStatusForm)
		r.Post("/{id}/delete", taskHandler.HandleDeleteForm)
	})

	// JSON API: same gate; the /api/ prefix makes it answer 401 instead
	// of redirecting.
	s.router.Route("/api", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/me", authHandler.HandleMe)
		r.Get("/tasks", taskHandler.HandleListAPI)
		r.Post("/tasks", taskHandler.HandleCreateAPI)
		r.Put("/tasks/{id}/status", taskHandler.HandleStatusAPI)
		r.Delete("/tasks/{id}", taskHandler.HandleDeleteAPI)
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests (30s
// budget), release the database and session store.
func (s *Server) Start() error {
	defer s.closeResources()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
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
			slog.Int("port", s.cfg.Port),
			slog.String("database", s.cfg.DBPath),
			slog.String("authStrategy", s.cfg.AuthStrategy),
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

func (s *Server) closeResources() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("closing redis client", slog.String("error", err.Error()))
		}
	}
	if err := s.db.Close(); err != nil {
		s.logger.Warn("closing database", slog.String("error", err.Error()))
	}
}
