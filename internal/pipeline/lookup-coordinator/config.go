// internal/pipeline/lookup-coordinator/config.go
package lookupcoordinator

import (
	"time"

	"ksel-bot/internal/common/config"
	"ksel-bot/internal/models"
)

type Config struct {
	FetchTimeout  time.Duration
	ShortCircuit  bool
	CacheNegative bool
	MirrorTimeout time.Duration
	Messages      models.Messages
}

func LoadConfig(lc config.LookupConfig) *Config {
	return &Config{
		FetchTimeout:  config.GetDuration(lc.FetchTimeout),
		ShortCircuit:  lc.ShortCircuit,
		CacheNegative: lc.CacheNegative,
		MirrorTimeout: 500 * time.Millisecond,
		Messages:      models.DefaultMessages(),
	}
}
