// Package server wires configuration, storage, services and both
// transports into a runnable application.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/todokeeper/internal/server/objectstore"
	"github.com/dmitrijs2005/todokeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"
	"github.com/dmitrijs2005/todokeeper/internal/timex"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	gs "github.com/dmitrijs2005/todokeeper/internal/server/grpc"
)

// shutdownTimeout bounds how long in-flight HTTP requests may take after a
// stop signal.
const shutdownTimeout = 10 * time.Second

var sqlOpen = sql.Open

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	clock       timex.Clock
	redis       *redis.Client
	limiter     ratelimit.Limiter

	accountService   *services.AccountService
	taskService      *services.TaskService
	extensionService *services.ExtensionService
	exportService    *services.ExportService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	clock := timex.SystemClock{Location: loc}

	db, err := sqlOpen("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()

	app := &App{
		config:      c,
		logger:      logger,
		db:          db,
		repomanager: rm,
		clock:       clock,
	}

	app.accountService = services.NewAccountService(db, rm, auth.NewBcryptVerifier(c.BcryptCost),
		c.SecretKey, c.AccessTokenValidityDuration, logger)
	app.taskService = services.NewTaskService(db, rm, clock, logger)
	app.extensionService = services.NewExtensionService(db, rm, clock, logger)

	if c.S3Bucket != "" {
		store, err := objectstore.NewS3Store(ctx, objectstore.Config{
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		app.exportService = services.NewExportService(db, rm, store, clock, logger)
	}

	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		app.limiter = ratelimit.NewSlidingWindowLimiter(app.redis,
			ratelimit.Config{Requests: c.RateLimitRequests, Window: c.RateLimitWindow}, "todokeeper:ratelimit:")
	}

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	var interceptors []grpc.UnaryServerInterceptor
	if app.limiter != nil {
		interceptors = append(interceptors, ratelimit.UnaryServerInterceptor(app.limiter, app.logger))
	}

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.accountService, app.taskService,
		app.extensionService, app.clock, app.config.SecretKey, interceptors...)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) httpHandler() http.Handler {
	deps := httpapi.Deps{
		Accounts:   app.accountService,
		Tasks:      app.taskService,
		Extensions: app.extensionService,
		Limiter:    app.limiter,
		RateLimit:  app.config.RateLimitRequests,
		Clock:      app.clock,
		SecretKey:  []byte(app.config.SecretKey),
		Logger:     app.logger,
	}
	// a nil *ExportService must not become a non-nil interface
	if app.exportService != nil {
		deps.Exports = app.exportService
	}
	return httpapi.NewRouter(httpapi.NewHandler(deps))
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           app.httpHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown failed", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run applies migrations and serves gRPC and HTTP until a stop signal or
// the first server failure.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.close()

	app.logger.Info(ctx, "Starting app...")

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return nil
}

func (app *App) close() {
	if app.redis != nil {
		_ = app.redis.Close()
	}
	_ = app.db.Close()
}
