// internal/pipeline/notification-dispatcher/config.go
package notificationdispatcher

import (
	"time"

	"ksel-bot/internal/common/config"
	"ksel-bot/internal/models"
)

type Config struct {
	Timeout     time.Duration
	MaxAckBytes int64
	Messages    models.Messages
}

func LoadConfig(nc config.NotifyConfig) *Config {
	return &Config{
		Timeout:     config.GetDuration(nc.Timeout),
		MaxAckBytes: 64 << 10,
		Messages:    models.DefaultMessages(),
	}
}
