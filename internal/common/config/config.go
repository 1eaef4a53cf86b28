// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Registry      RegistryConfig      `mapstructure:"registry"`
	HTTP          HTTPConfig          `mapstructure:"http"`
	Lookup        LookupConfig        `mapstructure:"lookup"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Extractor     ExtractorConfig     `mapstructure:"extractor"`
	Command       CommandConfig       `mapstructure:"command"`
	Notify        NotifyConfig        `mapstructure:"notify"`
	Audit         AuditConfig         `mapstructure:"audit"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ShutdownTimeout int `mapstructure:"shutdown_timeout_ms"` // milliseconds
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// RegistryConfig describes the external certification registry.
type RegistryConfig struct {
	BaseURL        string   `mapstructure:"base_url"`
	SearchKey      string   `mapstructure:"search_key"`
	NoMatchMarkers []string `mapstructure:"no_match_markers"`
	MaxBodyBytes   int64    `mapstructure:"max_body_bytes"`
	UserAgent      string   `mapstructure:"user_agent"`
}

// HTTPConfig sizes the shared outbound connection pool.
type HTTPConfig struct {
	MaxConnsPerHost int `mapstructure:"max_conns_per_host"`
	MaxIdleConns    int `mapstructure:"max_idle_conns"`
	IdleConnTimeout int `mapstructure:"idle_conn_timeout_ms"` // milliseconds
}

type LookupConfig struct {
	FetchTimeout  int  `mapstructure:"fetch_timeout_ms"` // milliseconds
	ShortCircuit  bool `mapstructure:"short_circuit"`
	CacheNegative bool `mapstructure:"cache_negative"`
}

type CacheConfig struct {
	Capacity int              `mapstructure:"capacity"`
	FreshTTL int              `mapstructure:"fresh_ttl_ms"` // milliseconds, 0 = never stale
	Redis    RedisMirrorConfig `mapstructure:"redis"`
}

type RedisMirrorConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl_ms"` // milliseconds
}

type ExtractorConfig struct {
	Mode       string `mapstructure:"mode"` // "all" or "exact"
	MaxRows    int    `mapstructure:"max_rows"`
	Layout     string `mapstructure:"layout"`
	LayoutFile string `mapstructure:"layout_file"`
}

type CommandConfig struct {
	Mode          string `mapstructure:"mode"`              // "auto", "inline" or "deferred"
	InlineTimeout int    `mapstructure:"inline_timeout_ms"` // milliseconds
}

type NotifyConfig struct {
	Announce bool `mapstructure:"announce"`
	Timeout  int  `mapstructure:"timeout_ms"` // milliseconds
}

type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Table   string `mapstructure:"table"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}
