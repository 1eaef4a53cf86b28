// internal/pipeline/command-handler/config.go
package commandhandler

import (
	"time"

	"ksel-bot/internal/common/config"
	"ksel-bot/internal/models"
)

const (
	ModeAuto     = "auto"
	ModeInline   = "inline"
	ModeDeferred = "deferred"
)

type Config struct {
	Mode          string
	InlineTimeout time.Duration
	Announce      bool
	AuditTimeout  time.Duration
	MaxBodyBytes  int64
	Messages      models.Messages
}

func LoadConfig(cc config.CommandConfig, nc config.NotifyConfig) *Config {
	return &Config{
		Mode:          cc.Mode,
		InlineTimeout: config.GetDuration(cc.InlineTimeout),
		Announce:      nc.Announce,
		AuditTimeout:  2 * time.Second,
		MaxBodyBytes:  64 << 10,
		Messages:      models.DefaultMessages(),
	}
}
