// internal/pipeline/registry-source/config.go
package registrysource

import "ksel-bot/internal/common/config"

type Config struct {
	BaseURL        string
	SearchKey      string
	NoMatchMarkers []string
	MaxBodyBytes   int64
	UserAgent      string
}

func LoadConfig(rc config.RegistryConfig) *Config {
	return &Config{
		BaseURL:        rc.BaseURL,
		SearchKey:      rc.SearchKey,
		NoMatchMarkers: rc.NoMatchMarkers,
		MaxBodyBytes:   rc.MaxBodyBytes,
		UserAgent:      rc.UserAgent,
	}
}
