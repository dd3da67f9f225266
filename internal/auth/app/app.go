package app

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

	httpapi "github.com/aussiebroadwan/synapse/internal/auth/http"
	"github.com/aussiebroadwan/synapse/internal/auth/service"
	"github.com/aussiebroadwan/synapse/internal/auth/store"
	"github.com/aussiebroadwan/synapse/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/synapse/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/synapse/pkg/cryptox"
	"github.com/aussiebroadwan/synapse/pkg/slogx"
	goredis "github.com/redis/go-redis/v9"
)

// BuildVersion is overridden at build time via -ldflags "-X ...app.BuildVersion=...".
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	keys     *AuthKeys
	denylist store.Denylist // nil when tokens are stateless
	rdb      *goredis.Client

	// Services
	tokenService        *service.TokenService
	authService         *service.AuthService
	mfaService          *service.MFAService
	userService         *service.UserService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	svcCfg, err := cfg.ServiceConfig()
	if err != nil {
		return nil, err
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	keys, err := InitAuthKeys(app.cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.keys = keys

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initRevocation(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices(svcCfg)
	app.initHTTP()

	return app, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	if app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(sqlite.DSN(app.cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initRevocation picks the token denylist. Without one, logout is
// client-side only and tokens stay valid until they expire.
func (app *Application) initRevocation(ctx context.Context) error {
	switch app.cfg.RevocationBackend {
	case RevocationNone, "":
		app.logger.Info("token revocation disabled, sessions are stateless")
	case RevocationSQLite:
		app.denylist = store.NewSQLDenylist(app.db)
		app.logger.Info("token revocation enabled", "backend", RevocationSQLite)
	case RevocationRedis:
		if app.cfg.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis revocation backend")
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		rdb, err := redis.NewClient(pingCtx, app.cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.rdb = rdb
		app.denylist = redis.NewDenylist(rdb, "")
		app.logger.Info("token revocation enabled", "backend", RevocationRedis)
	default:
		return fmt.Errorf("unsupported AUTH_REVOCATION_BACKEND %q", app.cfg.RevocationBackend)
	}
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices(cfg service.Config) {
	app.tokenService = &service.TokenService{
		Signer:   app.keys.Signer,
		Verifier: app.keys.Verifier,
		Denylist: app.denylist,
		Issuer:   cfg.Issuer,
		TTL:      cfg.TokenTTL,
	}

	app.mfaService = &service.MFAService{Store: app.db, Config: cfg}
	app.userService = &service.UserService{Store: app.db}
	app.authService = &service.AuthService{
		Store:  app.db,
		Tokens: app.tokenService,
		MFA:    app.mfaService,
		Config: cfg,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keys.KeySet,
		app.keys.Signer,
		BuildVersion,
		app.db,
		app.logger,
		app.cfg.CORSOrigins,
	)

	// Wire services to router
	router.AuthService = app.authService
	router.TokenService = app.tokenService
	router.MFAService = app.mfaService
	router.UserService = app.userService
	if d, ok := app.denylist.(*redis.Denylist); ok {
		router.Revocation = d
	}
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
