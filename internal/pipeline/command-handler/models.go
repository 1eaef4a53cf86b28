// internal/pipeline/command-handler/models.go
package commandhandler

import (
	"context"
	"time"

	"ksel-bot/internal/models"
)

// Resolver is implemented by the lookup coordinator.
type Resolver interface {
	Resolve(ctx context.Context, q models.Query, deadline time.Duration) models.Outcome
}

// Notifier is implemented by the notification dispatcher.
type Notifier interface {
	Announce(ctx context.Context, q models.Query) string
	Deliver(ctx context.Context, q models.Query, out models.Outcome, messageID string)
}

type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}
