// internal/pipeline/lookup-coordinator/coordinator.go
package lookupcoordinator

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"ksel-bot/internal/common/cache"
	apperrors "ksel-bot/internal/common/errors"
	"ksel-bot/internal/common/logger"
	"ksel-bot/internal/common/metrics"
	"ksel-bot/internal/common/observability"
	"ksel-bot/internal/models"
)

const Component = "lookup-coordinator"

type Coordinator struct {
	config    *Config
	store     *cache.Store
	source    Searcher
	extractor Extractor
	mirror    Mirror
	obs       *observability.Observability
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

type Option func(*Coordinator)

func WithMirror(m Mirror) Option {
	return func(c *Coordinator) { c.mirror = m }
}

func WithObservability(o *observability.Observability) Option {
	return func(c *Coordinator) { c.obs = o }
}

func NewCoordinator(config *Config, store *cache.Store, source Searcher, extractor Extractor, log logger.Logger, opts ...Option) *Coordinator {
	log = logger.ForComponent(log, Component)
	c := &Coordinator{
		config:    config,
		store:     store,
		source:    source,
		extractor: extractor,
		errors:    apperrors.NewErrorHandler(log),
		logger:    log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve produces exactly one outcome for q within deadline (the
// configured fetch timeout when deadline is zero). Only the calling
// goroutine writes to the cache; the fetch goroutine just reports back on a
// buffered channel and is abandoned once the deadline passes.
func (c *Coordinator) Resolve(ctx context.Context, q models.Query, deadline time.Duration) models.Outcome {
	start := time.Now()
	ctx, span := c.obs.StartSpan(ctx, "lookup.resolve",
		attribute.String("ksel.model_key", q.ModelKey),
		attribute.String("ksel.correlation_id", q.CorrelationID),
	)
	defer span.End()

	out := c.resolve(ctx, q, deadline)

	span.SetAttributes(
		attribute.String("ksel.outcome", out.Kind.String()),
		attribute.Bool("ksel.cache_hit", out.FromCache),
	)
	if out.Kind == models.OutcomeError {
		span.SetStatus(codes.Error, out.Detail)
	}
	metrics.LookupsTotal.WithLabelValues(out.Kind.String()).Inc()
	c.obs.RecordLookup(ctx, out.Kind.String(), out.FromCache)
	c.obs.RecordLookupDuration(ctx, time.Since(start), out.Kind.String())

	fields := q.LogFields()
	fields["outcome"] = out.Kind.String()
	fields["fromCache"] = out.FromCache
	fields["durationMs"] = time.Since(start).Milliseconds()
	c.logger.Info("lookup resolved", fields)
	return out
}

func (c *Coordinator) resolve(ctx context.Context, q models.Query, deadline time.Duration) models.Outcome {
	key := q.ModelKey
	if key == "" {
		return models.Failed(apperrors.NewInputEmptyError().Message)
	}

	if c.config.ShortCircuit {
		if e, ok := c.store.GetFresh(key); ok {
			var out models.Outcome
			if e.Negative {
				out = models.NotFound()
				out.Text = e.Value
			} else {
				out = models.Found(e.Value, nil)
			}
			out.FromCache = true
			return out
		}
	}

	if deadline <= 0 {
		deadline = c.config.FetchTimeout
	}
	version := c.store.Ticket()

	fetchCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	results := make(chan fetchResult, 1)
	go c.fetch(fetchCtx, key, results)

	select {
	case res := <-results:
		return c.complete(ctx, q, version, deadline, res)
	case <-fetchCtx.Done():
		return c.timedOut(ctx, q, deadline)
	}
}

func (c *Coordinator) fetch(ctx context.Context, key string, results chan<- fetchResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			results <- fetchResult{err: fmt.Errorf("registry fetch panicked: %v", r), elapsed: time.Since(start)}
		}
	}()

	table, err := c.source.Search(ctx, key)
	if err != nil {
		results <- fetchResult{err: err, elapsed: time.Since(start)}
		return
	}
	var records []models.Record
	if !table.NoMatch {
		records = c.extractor.Select(c.extractor.Extract(table), key)
	}
	results <- fetchResult{records: records, elapsed: time.Since(start)}
}

func (c *Coordinator) complete(ctx context.Context, q models.Query, version uint64, deadline time.Duration, res fetchResult) models.Outcome {
	key := q.ModelKey

	if res.err != nil {
		if apperrors.IsTimeout(res.err) {
			return c.timedOut(ctx, q, deadline)
		}
		metrics.RegistryFetchDuration.WithLabelValues("error").Observe(res.elapsed.Seconds())
		stdErr := c.errors.Handle(res.err, q.LogFields())
		return models.Failed(stdErr.Details)
	}

	if len(res.records) == 0 {
		metrics.RegistryFetchDuration.WithLabelValues("not_found").Observe(res.elapsed.Seconds())
		out := models.NotFound()
		if c.config.CacheNegative {
			c.store.PutVersioned(key, out.Render(key, c.config.Messages), true, version)
		}
		return out
	}

	metrics.RegistryFetchDuration.WithLabelValues("found").Observe(res.elapsed.Seconds())
	text := c.extractor.Render(res.records)
	if c.store.PutVersioned(key, text, false, version) {
		c.saveMirror(ctx, key)
	} else {
		c.logger.Debug("newer result already cached", q.LogFields())
	}
	return models.Found(text, res.records)
}

// timedOut serves the most recent rendering for the key, fresh or not,
// from memory and then from the mirror.
func (c *Coordinator) timedOut(ctx context.Context, q models.Query, deadline time.Duration) models.Outcome {
	metrics.RegistryFetchDuration.WithLabelValues("timeout").Observe(deadline.Seconds())

	timeoutErr := apperrors.NewRegistryTimeoutError(deadline)
	fields := q.LogFields()
	fields["errorCode"] = string(timeoutErr.Code)
	fields["details"] = timeoutErr.Details

	if e, ok := c.store.Get(q.ModelKey); ok {
		fields["stale"] = "memory"
		c.logger.Warn("registry deadline exceeded", fields)
		return models.TimedOut(e.Value, true)
	}

	if c.mirror != nil {
		mctx, cancel := c.mirrorContext(ctx)
		defer cancel()
		e, ok, err := c.mirror.Load(mctx, q.ModelKey)
		if err != nil {
			c.logger.Warn("mirror load failed", map[string]interface{}{"error": err, "modelKey": q.ModelKey})
		} else if ok {
			fields["stale"] = "mirror"
			c.logger.Warn("registry deadline exceeded", fields)
			return models.TimedOut(e.Value, true)
		}
	}

	c.logger.Warn("registry deadline exceeded", fields)
	return models.TimedOut("", false)
}

func (c *Coordinator) saveMirror(ctx context.Context, key string) {
	if c.mirror == nil {
		return
	}
	e, ok := c.store.Get(key)
	if !ok {
		return
	}
	mctx, cancel := c.mirrorContext(ctx)
	defer cancel()
	if err := c.mirror.Save(mctx, e); err != nil {
		c.logger.Warn("mirror save failed", map[string]interface{}{"error": err, "modelKey": key})
	}
}

// mirrorContext outlives a cancelled request so a late write still lands.
func (c *Coordinator) mirrorContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := c.config.MirrorTimeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}
