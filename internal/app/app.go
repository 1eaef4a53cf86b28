// Package app wires the lookup pipeline into one HTTP handler.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ksel-bot/internal/common/audit"
	"ksel-bot/internal/common/cache"
	"ksel-bot/internal/common/config"
	"ksel-bot/internal/common/database"
	commonhttp "ksel-bot/internal/common/http"
	"ksel-bot/internal/common/logger"
	"ksel-bot/internal/common/observability"
	"ksel-bot/internal/common/validation"
	commandhandler "ksel-bot/internal/pipeline/command-handler"
	lookupcoordinator "ksel-bot/internal/pipeline/lookup-coordinator"
	notificationdispatcher "ksel-bot/internal/pipeline/notification-dispatcher"
	recordextractor "ksel-bot/internal/pipeline/record-extractor"
	registrysource "ksel-bot/internal/pipeline/registry-source"
)

// Options carries the optional backing services. Nil fields disable the
// feature they back.
type Options struct {
	Observability *observability.Observability
	Redis         *database.RedisClient
	Postgres      *database.PostgresClient
}

type App struct {
	Store       *cache.Store
	Coordinator *lookupcoordinator.Coordinator
	Dispatcher  *notificationdispatcher.Dispatcher
	Handler     *commandhandler.Handler
	Router      http.Handler

	httpClient *commonhttp.Client
	logger     logger.Logger
}

func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts Options) (*App, error) {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	var storeOpts []cache.Option
	if cfg.Cache.FreshTTL > 0 {
		storeOpts = append(storeOpts, cache.WithFreshTTL(config.GetDuration(cfg.Cache.FreshTTL)))
	}
	store, err := cache.NewStore(cfg.Cache.Capacity, storeOpts...)
	if err != nil {
		return nil, err
	}

	httpClient := commonhttp.NewClient(commonhttp.PoolConfig{
		MaxConnsPerHost: cfg.HTTP.MaxConnsPerHost,
		MaxIdleConns:    cfg.HTTP.MaxIdleConns,
		IdleConnTimeout: config.GetDuration(cfg.HTTP.IdleConnTimeout),
	})

	extractorCfg, err := recordextractor.LoadConfig(cfg.Extractor)
	if err != nil {
		return nil, err
	}

	source := registrysource.NewSource(registrysource.LoadConfig(cfg.Registry), httpClient, log)
	extractor := recordextractor.NewExtractor(extractorCfg, log)

	coordOpts := []lookupcoordinator.Option{lookupcoordinator.WithObservability(opts.Observability)}
	if opts.Redis != nil {
		coordOpts = append(coordOpts, lookupcoordinator.WithMirror(
			cache.NewRedisMirror(opts.Redis.Client, config.GetDuration(cfg.Cache.Redis.TTL)),
		))
	}
	coordinator := lookupcoordinator.NewCoordinator(lookupcoordinator.LoadConfig(cfg.Lookup), store, source, extractor, log, coordOpts...)

	dispatcher := notificationdispatcher.NewDispatcher(notificationdispatcher.LoadConfig(cfg.Notify), httpClient, log)

	var recorder audit.Recorder = audit.NopRecorder{}
	if opts.Postgres != nil {
		pr, err := audit.NewPostgresRecorder(opts.Postgres.DB, cfg.Audit.Table)
		if err != nil {
			return nil, err
		}
		ectx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pr.EnsureTable(ectx); err != nil {
			return nil, fmt.Errorf("prepare audit table: %w", err)
		}
		recorder = pr
	}

	validator, err := validation.NewCommandValidator()
	if err != nil {
		return nil, err
	}

	handler := commandhandler.NewHandler(
		commandhandler.LoadConfig(cfg.Command, cfg.Notify),
		coordinator, dispatcher, recorder, validator, log,
	)

	return &App{
		Store:       store,
		Coordinator: coordinator,
		Dispatcher:  dispatcher,
		Handler:     handler,
		Router:      handler.Router(),
		httpClient:  httpClient,
		logger:      log,
	}, nil
}

// Shutdown drains deferred lookups and releases pooled connections.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Handler.Shutdown(ctx)
	a.httpClient.Close()
	return err
}
