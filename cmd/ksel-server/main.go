// cmd/ksel-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ksel-bot/internal/app"
	"ksel-bot/internal/common/config"
	"ksel-bot/internal/common/database"
	"ksel-bot/internal/common/logger"
	"ksel-bot/internal/common/observability"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting ksel server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(observability.Options{
		ServiceName:    cfg.Observability.ServiceName,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
		Logger:         log,
	})
	defer obs.Shutdown(context.Background())

	ctx := context.Background()
	opts := app.Options{Observability: obs}

	// --- Redis result mirror (optional) ---
	if cfg.Cache.Redis.Enabled {
		var redis *database.RedisClient
		err := retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Cache.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 5, time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Warn("redis unavailable, continuing without result mirror", zap.Error(err))
		} else {
			defer redis.Close()
			opts.Redis = redis
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- PostgreSQL audit log (optional) ---
	if cfg.Audit.Enabled {
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Warn("postgres unavailable, continuing without audit log", zap.Error(err))
		} else {
			defer pg.Close()
			opts.Postgres = pg
			zapLog.Info("PostgreSQL connected successfully")
		}
	}

	application, err := app.New(ctx, cfg, log, opts)
	if err != nil {
		zapLog.Fatal("failed to build application", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      application.Router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: config.GetDuration(cfg.Command.InlineTimeout) + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	if err := application.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("Deferred lookups did not finish before shutdown deadline", zap.Error(err))
	}

	zapLog.Info("ksel server stopped gracefully")
}
