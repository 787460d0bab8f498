// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/blogcore/blogcore/internal/comments"
	commentspostgres "github.com/blogcore/blogcore/internal/comments/postgres"
	"github.com/blogcore/blogcore/internal/config"
	"github.com/blogcore/blogcore/internal/domain"
	"github.com/blogcore/blogcore/internal/identity"
	"github.com/blogcore/blogcore/internal/identity/authz"
	"github.com/blogcore/blogcore/internal/identity/jwt"
	"github.com/blogcore/blogcore/internal/identity/password"
	"github.com/blogcore/blogcore/internal/pkg/ctxlog"
	"github.com/blogcore/blogcore/internal/pkg/httputil"
	"github.com/blogcore/blogcore/internal/pkg/metrics"
	"github.com/blogcore/blogcore/internal/pkg/postgres"
	"github.com/blogcore/blogcore/internal/posts"
	postspostgres "github.com/blogcore/blogcore/internal/posts/postgres"
	"github.com/blogcore/blogcore/internal/users"
	userspostgres "github.com/blogcore/blogcore/internal/users/postgres"
	"github.com/blogcore/blogcore/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const dbMetricsInterval = 15 * time.Second

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	server        *http.Server
	metricsServer *http.Server
	users         *users.Service
}

// New creates a new application instance. Unreadable or mismatched signing keys
// are fatal.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)

	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer connectCancel()

	db, err := postgres.Connect(connectCtx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	app := &App{
		config: cfg,
		logger: logger,
		db:     db,
	}

	router, err := app.setupRouter()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("setup router: %w", err)
	}

	app.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Bootstrap performs first-run setup: it creates the configured admin account
// if it does not exist yet.
func (a *App) Bootstrap(ctx context.Context) error {
	email := a.config.Bootstrap.AdminEmail
	if email == "" {
		return nil
	}

	plain, created, err := a.users.EnsureAdmin(ctx, email)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		// Printed once so the operator can log in; change it afterwards.
		a.logger.Warn("bootstrap admin created", "email", email, "password", plain)
	}
	return nil
}

// Run serves HTTP until ctx is cancelled or a server fails, then shuts down
// gracefully within the configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		metrics.CollectDBPoolMetrics(gctx, a.db, dbMetricsInterval)
		return nil
	})

	g.Go(func() error {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.logger.Info("starting server",
			"host", a.config.Server.Host,
			"port", a.config.Server.Port,
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		return a.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown gracefully shuts down both servers and closes the database pool.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	var g errgroup.Group
	g.Go(func() error {
		if err := a.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown metrics server: %w", err)
		}
		return nil
	})
	err := g.Wait()

	a.db.Close()
	return err
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

func (a *App) setupRouter() (*chi.Mux, error) {
	keys, err := jwt.LoadKeyPair(a.config.JWT.PrivateKeyPath, a.config.JWT.PublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load signing keys: %w", err)
	}
	tokens, err := jwt.NewService(jwt.Config{
		Keys:   keys,
		Expiry: a.config.JWT.Expiry,
		Issuer: a.config.JWT.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("create token service: %w", err)
	}
	hasher, err := password.New(password.Config{
		MinLength: a.config.Password.MinLength,
		Cost:      a.config.Password.Cost,
	})
	if err != nil {
		return nil, fmt.Errorf("create password hasher: %w", err)
	}

	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(httputil.SecureHeaders(httputil.SecurityConfig{
		SSLRedirect: a.config.Security.SSLRedirect,
	}))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(a.config.Server.RequestTimeout))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		http.ServeFile(w, r, "api/openapi/openapi.yaml")
	})

	usersRepo := userspostgres.NewRepository(a.db)
	a.users = users.NewService(usersRepo, hasher)
	usersHandler := users.NewHandler(a.users)

	var identityOpts []identity.Option
	if a.config.RateLimit.LoginPerAccountBurst > 0 {
		identityOpts = append(identityOpts, identity.WithLoginThrottle(identity.NewLoginThrottle(identity.ThrottleConfig{
			Burst:    a.config.RateLimit.LoginPerAccountBurst,
			Interval: a.config.RateLimit.LoginPerAccountInterval,
		})))
	}
	identityService := identity.NewService(usersRepo, tokens, hasher, identityOpts...)
	identityHandler := identity.NewHandler(identityService)

	postsRepo := postspostgres.NewRepository(a.db)
	postsService := posts.NewService(postsRepo)
	postsHandler := posts.NewHandler(postsService)

	commentsService := comments.NewService(commentspostgres.NewRepository(a.db), postsRepo)
	commentsHandler := comments.NewHandler(commentsService)

	r.Route("/api/v1", func(r chi.Router) {
		identityHandler.RegisterRoutes(r, loginRateLimit(a.config.RateLimit.LoginPerMinute))

		postsHandler.RegisterPublicRoutes(r)
		commentsHandler.RegisterPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(httputil.AuthMiddleware(identityService))

			r.Group(func(r chi.Router) {
				r.Use(httputil.RequirePolicy(authz.Authenticated()))
				identityHandler.RegisterProtectedRoutes(r)
				commentsHandler.RegisterRoutes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(httputil.RequireAnyRole(domain.RoleAuthor, domain.RoleAdmin))
				postsHandler.RegisterRoutes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(httputil.RequireAnyRole(domain.RoleAdmin))
				usersHandler.RegisterRoutes(r)
			})
		})
	})

	return r, nil
}

// loginRateLimit caps login requests per client IP. Zero disables it.
func loginRateLimit(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return nil
	}
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			ctxlog.FromContext(r.Context()).Warn("login rate limit exceeded", "remote_addr", r.RemoteAddr)
			httputil.Error(w, http.StatusTooManyRequests, "Too many login attempts, try again later")
		}),
	)
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.GitCommit,
		"build_date": version.BuildDate,
	})
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
