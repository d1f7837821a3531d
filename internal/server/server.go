// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: it picks the concrete store, identity
// provider and media host from the config and hands them, as interfaces, to
// the services and handlers. Nothing below this package knows which
// implementation it got.
//
// DEPENDENCY FLOW:
//
//	config.Config → Store (sqlite | postgres)
//	              → identity.Provider (local | clerk)
//	              → media.Store (S3-compatible)
//	              → auth.TokenService
//	Store + Provider + Media → EducatorService → EducatorHandler
//	Store                    → UserSyncService → WebhookHandler
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/sakif/course-marketplace/internal/auth"
	"github.com/sakif/course-marketplace/internal/config"
	"github.com/sakif/course-marketplace/internal/handler"
	"github.com/sakif/course-marketplace/internal/identity"
	"github.com/sakif/course-marketplace/internal/media"
	"github.com/sakif/course-marketplace/internal/middleware"
	"github.com/sakif/course-marketplace/internal/repository"
	pgRepo "github.com/sakif/course-marketplace/internal/repository/postgres"
	sqliteRepo "github.com/sakif/course-marketplace/internal/repository/sqlite"
	"github.com/sakif/course-marketplace/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Deps are the external systems the server talks to.
type Deps struct {
	Store    repository.Store
	Identity identity.Provider
	Media    media.Store
	Tokens   *auth.TokenService
}

// Server owns the router and the store. The store is closed when Start returns.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  repository.Store
}

// New opens every dependency named by cfg and wires the routes.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	deps, err := buildDeps(ctx, cfg, store)
	if err != nil {
		store.Close() // nothing else holds it yet
		return nil, err
	}

	return NewWithDeps(cfg, deps, logger), nil
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.DBDriver == config.DriverPostgres {
		db, err := pgRepo.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return db, nil
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func buildDeps(ctx context.Context, cfg *config.Config, store repository.Store) (Deps, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return Deps{}, fmt.Errorf("creating token service: %w", err)
	}

	var idp identity.Provider
	switch cfg.IdentityProvider {
	case config.IdentityClerk:
		idp = identity.NewClerk(cfg.ClerkAPIURL, cfg.ClerkSecretKey, cfg.IdentityTimeout)
	default:
		idp = identity.NewLocal(store)
	}

	mediaStore, err := media.NewS3Store(ctx, media.S3Config{
		Endpoint:      cfg.S3Endpoint,
		Region:        cfg.S3Region,
		Bucket:        cfg.S3Bucket,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		PublicBaseURL: cfg.S3PublicBaseURL,
	})
	if err != nil {
		return Deps{}, fmt.Errorf("creating media store: %w", err)
	}

	return Deps{Store: store, Identity: idp, Media: mediaStore, Tokens: tokens}, nil
}

// NewWithDeps wires routes around already constructed dependencies.
func NewWithDeps(cfg *config.Config, deps Deps, logger *slog.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  deps.Store,
	}
	s.setupRoutes(deps)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware and handlers.
//
// ROUTES:
//
//	GET    /healthz
//	GET    /api/educator/update-role        any signed-in user
//	POST   /api/educator/add-course         educators only
//	GET    /api/educator/courses            educators only
//	GET    /api/educator/dashboard          educators only
//	GET    /api/educator/enrolled-students  educators only
//	DELETE /api/educator/course/{id}        educators only
//	POST   /api/webhooks/identity           only when WEBHOOK_SECRET is set
//
// Middleware runs in the order it is added. RequestID comes before Logger so
// each log line carries the id.
func (s *Server) setupRoutes(deps Deps) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.New(cors.Options{
		AllowedOrigins:   s.config.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)

	health := handler.NewHealthHandler(deps.Store, s.logger)
	s.router.Get("/healthz", health.HandleHealth)

	educatorSvc := service.NewEducatorService(deps.Identity, deps.Store, deps.Store, deps.Media, s.logger)
	educator := handler.NewEducatorHandler(educatorSvc, s.config.MaxUploadBytes, s.config.ExposeErrorDetails, s.logger)

	s.router.Route("/api/educator", func(r chi.Router) {
		r.Use(auth.Authenticate(deps.Tokens))

		r.With(auth.RequireAuthenticated).Get("/update-role", educator.HandleUpdateRole)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireEducator(deps.Identity, s.logger, s.config.ExposeErrorDetails))
			r.Post("/add-course", educator.HandleAddCourse)
			r.Get("/courses", educator.HandleListCourses)
			r.Get("/dashboard", educator.HandleDashboard)
			r.Get("/enrolled-students", educator.HandleEnrolledStudents)
			r.Delete("/course/{id}", educator.HandleDeleteCourse)
		})
	})

	if s.config.WebhookSecret != "" {
		syncSvc := service.NewUserSyncService(deps.Store, s.logger)
		webhook := handler.NewWebhookHandler(syncSvc, s.config.WebhookSecret, s.logger)
		s.router.Post("/api/webhooks/identity", webhook.HandleIdentityEvent)
	} else {
		s.logger.Warn("WEBHOOK_SECRET not set, identity webhooks disabled")
	}
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to 30 seconds and closes the store.
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second, // uploads
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("env", s.config.Environment),
			slog.String("db_driver", s.config.DBDriver),
			slog.String("identity", s.config.IdentityProvider),
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

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
