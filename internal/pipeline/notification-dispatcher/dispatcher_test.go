package notificationdispatcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ksel-bot/internal/common/config"
	commonhttp "ksel-bot/internal/common/http"
	"ksel-bot/internal/common/logger"
	"ksel-bot/internal/models"
)

type callbackRecorder struct {
	mu       sync.Mutex
	messages []models.CallbackMessage
}

func (c *callbackRecorder) add(m models.CallbackMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, m)
}

func (c *callbackRecorder) all() []models.CallbackMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.CallbackMessage(nil), c.messages...)
}

func newCallbackServer(t *testing.T, rec *callbackRecorder, reply string) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var msg models.CallbackMessage
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		rec.add(msg)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(reply))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestDispatcher(t *testing.T) *Dispatcher {
	client := commonhttp.NewClient(commonhttp.DefaultPoolConfig())
	t.Cleanup(client.Close)
	cfg := &Config{Timeout: time.Second, MaxAckBytes: 1024, Messages: models.DefaultMessages()}
	return NewDispatcher(cfg, client, logger.NewTestLogger(t))
}

func TestDispatcher_AnnounceThenDeliver(t *testing.T) {
	rec := &callbackRecorder{}
	server := newCallbackServer(t, rec, `{"ok":true,"ts":"1700000000.000100"}`)
	d := newTestDispatcher(t)

	q := models.NewQuery("KTC-K501", server.URL, "C1", "M-inbound", "corr")
	id := d.Announce(context.Background(), q)
	assert.Equal(t, "1700000000.000100", id)

	d.Deliver(context.Background(), q, models.Found("[A-1]\nKTC-K501", nil), id)

	msgs := rec.all()
	require.Len(t, msgs, 2)
	assert.Equal(t, "🔍 [KTC-K501] 검색 중입니다...", msgs[0].Text)
	assert.False(t, msgs[0].ReplaceOriginal)
	assert.Equal(t, "C1", msgs[0].ChannelID)

	assert.Equal(t, "[A-1]\nKTC-K501", msgs[1].Text)
	assert.True(t, msgs[1].ReplaceOriginal)
	assert.Equal(t, "1700000000.000100", msgs[1].MessageID, "deliver targets the announced message")
}

func TestDispatcher_DeliverFallsBackToInboundMessageID(t *testing.T) {
	rec := &callbackRecorder{}
	server := newCallbackServer(t, rec, `accepted`)
	d := newTestDispatcher(t)

	q := models.NewQuery("K", server.URL, "C1", "M-inbound", "")
	assert.Empty(t, d.Announce(context.Background(), q), "non-JSON ack carries no id")

	d.Deliver(context.Background(), q, models.TimedOut("", false), "")

	msgs := rec.all()
	require.Len(t, msgs, 2)
	assert.Equal(t, "M-inbound", msgs[1].MessageID)
	assert.Equal(t, models.DefaultMessages().RetryLater, msgs[1].Text)
}

func TestDispatcher_FailuresAreSwallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"messageId":"ignored"}`))
	}))
	defer server.Close()

	d := newTestDispatcher(t)
	q := models.NewQuery("K", server.URL, "", "", "")

	assert.Empty(t, d.Announce(context.Background(), q))
	assert.NotPanics(t, func() {
		d.Deliver(context.Background(), q, models.Failed("secret detail"), "")
	})
}

func TestDispatcher_InvalidCallbackAddress(t *testing.T) {
	d := newTestDispatcher(t)

	for _, cb := range []string{"not a url", "ftp://host/x", "http://"} {
		q := models.NewQuery("K", cb, "", "", "")
		assert.Empty(t, d.Announce(context.Background(), q), cb)
	}
}

func TestDispatcher_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := commonhttp.NewClient(commonhttp.DefaultPoolConfig())
	defer client.Close()
	d := NewDispatcher(&Config{Timeout: 50 * time.Millisecond, Messages: models.DefaultMessages()}, client, logger.NewTestLogger(t))

	start := time.Now()
	id := d.Announce(context.Background(), models.NewQuery("K", server.URL, "", "", ""))
	assert.Empty(t, id)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDispatcher_ErrorDetailNeverDelivered(t *testing.T) {
	rec := &callbackRecorder{}
	server := newCallbackServer(t, rec, `{}`)
	d := newTestDispatcher(t)

	q := models.NewQuery("K", server.URL, "", "", "")
	d.Deliver(context.Background(), q, models.Failed("dial tcp 10.1.2.3:443: connection refused"), "")

	msgs := rec.all()
	require.Len(t, msgs, 1)
	assert.NotContains(t, msgs[0].Text, "10.1.2.3")
	assert.Equal(t, models.DefaultMessages().Failure, msgs[0].Text)
}

func TestLoadConfig(t *testing.T) {
	cfg := LoadConfig(config.NotifyConfig{Announce: true, Timeout: 5000})
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, models.DefaultMessages().Searching, cfg.Messages.Searching)
}
