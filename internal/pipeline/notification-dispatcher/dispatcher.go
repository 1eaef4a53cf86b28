// internal/pipeline/notification-dispatcher/dispatcher.go
package notificationdispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "ksel-bot/internal/common/errors"
	"ksel-bot/internal/common/logger"
	"ksel-bot/internal/common/metrics"
	"ksel-bot/internal/models"
)

const (
	Component = "notification-dispatcher"

	PhaseAnnounce = "announce"
	PhaseDeliver  = "deliver"
)

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Dispatcher posts placeholder and final messages to a query's callback
// address. Failures are logged and counted, never retried and never
// returned to the caller.
type Dispatcher struct {
	config *Config
	client Doer
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewDispatcher(config *Config, client Doer, log logger.Logger) *Dispatcher {
	log = logger.ForComponent(log, Component)
	return &Dispatcher{
		config: config,
		client: client,
		errors: apperrors.NewErrorHandler(log),
		logger: log,
	}
}

// Announce posts the "searching" placeholder and returns the message id the
// platform assigned to it, or "" when none was reported or the post failed.
func (d *Dispatcher) Announce(ctx context.Context, q models.Query) string {
	ack, ok := d.post(ctx, PhaseAnnounce, q, models.CallbackMessage{
		Text:            d.config.Messages.SearchingFor(q.ModelKey),
		ReplaceOriginal: false,
		ChannelID:       q.Channel,
		MessageID:       q.MessageID,
	})
	if !ok {
		return ""
	}
	return ack.ID()
}

// Deliver posts the rendered outcome, replacing the message identified by
// messageID (or the query's own message id when messageID is empty).
func (d *Dispatcher) Deliver(ctx context.Context, q models.Query, out models.Outcome, messageID string) {
	if messageID == "" {
		messageID = q.MessageID
	}
	d.post(ctx, PhaseDeliver, q, models.CallbackMessage{
		Text:            out.Render(q.ModelKey, d.config.Messages),
		ReplaceOriginal: true,
		ChannelID:       q.Channel,
		MessageID:       messageID,
	})
}

func (d *Dispatcher) post(ctx context.Context, phase string, q models.Query, msg models.CallbackMessage) (models.CallbackAck, bool) {
	start := time.Now()
	ack, err := d.send(ctx, q.Callback, msg)
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues(phase, "failed").Inc()
		fields := q.LogFields()
		fields["phase"] = phase
		d.errors.Handle(apperrors.NewNotificationSendFailedError(phase, err), fields)
		return models.CallbackAck{}, false
	}

	metrics.NotificationsTotal.WithLabelValues(phase, "sent").Inc()
	d.logger.Debug("callback sent", map[string]interface{}{
		"phase":         phase,
		"correlationId": q.CorrelationID,
		"durationMs":    time.Since(start).Milliseconds(),
	})
	return ack, true
}

func (d *Dispatcher) send(ctx context.Context, callback string, msg models.CallbackMessage) (models.CallbackAck, error) {
	u, err := url.Parse(callback)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.CallbackAck{}, fmt.Errorf("invalid callback address %q", callback)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return models.CallbackAck{}, fmt.Errorf("marshal callback message: %w", err)
	}

	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return models.CallbackAck{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return models.CallbackAck{}, err
	}
	defer resp.Body.Close()

	limit := d.config.MaxAckBytes
	if limit <= 0 {
		limit = 64 << 10
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, limit))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.CallbackAck{}, fmt.Errorf("callback returned status %d", resp.StatusCode)
	}

	// a non-JSON acknowledgement is fine, it just carries no message id
	var ack models.CallbackAck
	_ = json.Unmarshal(data, &ack)
	return ack, nil
}
