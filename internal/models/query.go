package models

import (
	"strings"

	"github.com/google/uuid"
)

// Query is one incoming /ksel command. It is built once by NewQuery and
// never modified afterwards.
type Query struct {
	ModelKey      string
	Callback      string
	Channel       string
	MessageID     string
	CorrelationID string
}

// NewQuery trims the model key (case is preserved) and assigns a
// correlation id when the caller did not supply one.
func NewQuery(modelKey, callback, channel, messageID, correlationID string) Query {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	return Query{
		ModelKey:      strings.TrimSpace(modelKey),
		Callback:      strings.TrimSpace(callback),
		Channel:       channel,
		MessageID:     messageID,
		CorrelationID: correlationID,
	}
}

func (q Query) HasCallback() bool {
	return q.Callback != ""
}

// LogFields returns the fields every log line about this query carries.
func (q Query) LogFields() map[string]interface{} {
	return map[string]interface{}{
		"modelKey":      q.ModelKey,
		"correlationId": q.CorrelationID,
		"channelId":     q.Channel,
		"hasCallback":   q.HasCallback(),
	}
}
