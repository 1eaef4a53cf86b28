// internal/pipeline/command-handler/handler.go
package commandhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"ksel-bot/internal/common/audit"
	apperrors "ksel-bot/internal/common/errors"
	"ksel-bot/internal/common/logger"
	"ksel-bot/internal/common/metrics"
	"ksel-bot/internal/common/validation"
	"ksel-bot/internal/models"
)

const Component = "command-handler"

// Handler serves the /ksel slash command. Deferred lookups run on their own
// goroutines, detached from the request, and are tracked until Shutdown.
type Handler struct {
	config    *Config
	resolver  Resolver
	notifier  Notifier
	recorder  audit.Recorder
	validator *validation.Validator
	errors    *apperrors.ErrorHandler
	logger    logger.Logger

	tasks    sync.WaitGroup
	draining atomic.Bool
	baseCtx  context.Context
	cancel   context.CancelFunc
}

func NewHandler(config *Config, resolver Resolver, notifier Notifier, recorder audit.Recorder, validator *validation.Validator, log logger.Logger) *Handler {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	log = logger.ForComponent(log, Component)
	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		config:    config,
		resolver:  resolver,
		notifier:  notifier,
		recorder:  recorder,
		validator: validator,
		errors:    apperrors.NewErrorHandler(log),
		logger:    log,
		baseCtx:   ctx,
		cancel:    cancel,
	}
}

func (h *Handler) HandleCommand(w http.ResponseWriter, r *http.Request) {
	req, err := h.decode(w, r)
	if err != nil {
		metrics.CommandsTotal.WithLabelValues("rejected").Inc()
		h.errors.Handle(apperrors.NewInvalidPayloadError(err.Error()), map[string]interface{}{
			"contentType": r.Header.Get("Content-Type"),
		})
		writeText(w, http.StatusBadRequest, h.config.Messages.BadRequest)
		return
	}

	q := models.NewQuery(req.Text, req.CallbackAddress, req.ChannelID, req.MessageID, r.Header.Get("X-Request-ID"))
	if q.ModelKey == "" {
		metrics.CommandsTotal.WithLabelValues("empty").Inc()
		writeJSON(w, http.StatusOK, models.CommandResponse{Text: h.config.Messages.Prompt})
		return
	}

	mode := h.modeFor(q)
	metrics.CommandsTotal.WithLabelValues(mode).Inc()
	h.logger.Info("command received", withField(q.LogFields(), "mode", mode))

	if mode == ModeDeferred {
		h.startDeferred(q)
		writeJSON(w, http.StatusOK, models.CommandResponse{Text: h.config.Messages.SearchingFor(q.ModelKey)})
		return
	}

	start := time.Now()
	ctx := r.Context()
	if h.config.InlineTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.InlineTimeout)
		defer cancel()
	}
	out := h.resolver.Resolve(ctx, q, 0)
	writeJSON(w, http.StatusOK, models.CommandResponse{Text: out.Render(q.ModelKey, h.config.Messages)})
	h.record(ctx, q, out, time.Since(start))
}

// modeFor picks inline or deferred delivery. Deferred delivery needs a
// callback address, so both auto and deferred fall back to inline without
// one.
func (h *Handler) modeFor(q models.Query) string {
	if h.config.Mode == ModeInline || !q.HasCallback() {
		return ModeInline
	}
	return ModeDeferred
}

func (h *Handler) startDeferred(q models.Query) {
	h.tasks.Add(1)
	metrics.DeferredTasksActive.Inc()
	go func() {
		defer h.tasks.Done()
		defer metrics.DeferredTasksActive.Dec()
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("deferred lookup panicked", withField(q.LogFields(), "panic", fmt.Sprint(r)))
			}
		}()
		h.runDeferred(h.baseCtx, q)
	}()
}

// runDeferred announces, resolves, delivers and audits, strictly in that
// order, so the final answer always replaces the placeholder.
func (h *Handler) runDeferred(ctx context.Context, q models.Query) {
	start := time.Now()
	var messageID string
	if h.config.Announce {
		messageID = h.notifier.Announce(ctx, q)
	}
	out := h.resolver.Resolve(ctx, q, 0)
	h.notifier.Deliver(ctx, q, out, messageID)
	h.record(ctx, q, out, time.Since(start))
}

func (h *Handler) record(ctx context.Context, q models.Query, out models.Outcome, elapsed time.Duration) {
	timeout := h.config.AuditTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	err := h.recorder.Record(actx, audit.Entry{
		CorrelationID: q.CorrelationID,
		ModelKey:      q.ModelKey,
		Outcome:       out.Kind.String(),
		ChannelID:     q.Channel,
		Duration:      elapsed,
		FromCache:     out.FromCache,
	})
	if err != nil {
		h.errors.Handle(err, q.LogFields())
	}
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Time: time.Now().UTC().Format(time.RFC3339)})
}

func (h *Handler) HandleReady(w http.ResponseWriter, _ *http.Request) {
	if h.draining.Load() {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "draining", Time: time.Now().UTC().Format(time.RFC3339)})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ready", Time: time.Now().UTC().Format(time.RFC3339)})
}

// Shutdown waits for in-flight deferred lookups. If ctx expires first the
// remaining tasks are cancelled and ctx's error is returned.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.draining.Store(true)
	done := make(chan struct{})
	go func() {
		h.tasks.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.cancel()
		return nil
	case <-ctx.Done():
		h.cancel()
		h.logger.Warn("shutdown deadline reached with deferred lookups still running", nil)
		return ctx.Err()
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (models.CommandRequest, error) {
	var req models.CommandRequest

	limit := h.config.MaxBodyBytes
	if limit <= 0 {
		limit = 64 << 10
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		return req, fmt.Errorf("read body: %w", err)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return req, fmt.Errorf("parse form: %w", err)
		}
		req.Text = values.Get("text")
		req.CallbackAddress = values.Get("response_url")
		req.ChannelID = values.Get("channel_id")
		req.MessageID = values.Get("message_id")
		return req, nil
	}

	result, err := h.validator.ValidateBytes(body)
	if err != nil {
		return req, err
	}
	if !result.Valid {
		return req, fmt.Errorf("schema: %s", result.Error())
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, fmt.Errorf("decode body: %w", err)
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, text)
}

func withField(fields map[string]interface{}, key string, value interface{}) map[string]interface{} {
	fields[key] = value
	return fields
}
