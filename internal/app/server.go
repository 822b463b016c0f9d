package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/heartmarshall/tilawah/internal/adapter/postgres"
	"github.com/heartmarshall/tilawah/internal/adapter/postgres/cloudstore"
	"github.com/heartmarshall/tilawah/internal/adapter/redis"
	"github.com/heartmarshall/tilawah/internal/auth"
	"github.com/heartmarshall/tilawah/internal/config"
	"github.com/heartmarshall/tilawah/internal/service/cloudsync"
	"github.com/heartmarshall/tilawah/internal/transport/middleware"
	"github.com/heartmarshall/tilawah/internal/transport/rest"
)

const rateLimitCleanup = 5 * time.Minute

// RunServer starts the cloudsync backend and blocks until SIGINT/SIGTERM or
// a fatal server error.
func RunServer(ctx context.Context) error {
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting cloudsync",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := postgres.Migrate(ctx, cfg.Database.DSN); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	checks := []rest.Check{{Name: "database", Pinger: pool, Critical: true}}

	var redisClient *goredis.Client
	var svc *cloudsync.Service
	store := cloudstore.New(pool)
	if cfg.Redis.Addr != "" {
		redisClient, err = redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("close redis", slog.String("error", err.Error()))
			}
		}()

		cache := redis.NewSnapshotCache(redisClient, cfg.Redis.SnapshotTTL)
		checks = append(checks, rest.Check{Name: "redis", Pinger: cache})
		svc = cloudsync.NewService(logger, store, cache)
	} else {
		svc = cloudsync.NewService(logger, store, nil)
	}

	limiter := middleware.NewRateLimiter(rateLimitCleanup)
	defer limiter.Stop()

	handler := rest.NewRouter(rest.RouterDeps{
		Sync:      rest.NewSyncHandler(svc, cfg.Server.MaxBodyBytes, logger),
		Health:    rest.NewHealthHandler(Version, checks...),
		Validator: auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL),
		Limiter:   limiter,
		Server:    cfg.Server,
		CORS:      cfg.CORS,
		Log:       logger,
	})

	return serve(ctx, logger, newHTTPServer(cfg.Server, handler), cfg.Server.ShutdownTimeout)
}

func newHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    1 << 20,
	}
}

// serve runs srv until ctx is done, then shuts it down within timeout.
func serve(ctx context.Context, logger *slog.Logger, srv *http.Server, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
