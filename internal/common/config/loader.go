// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const DefaultRegistryURL = "https://www.crefia.or.kr/portal/store/cardTerminal/cardTerminalList.xx"

func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	// base config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// environment overlay
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // ignore error if not found

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	// REGISTRY_BASE_URL overrides registry.base_url, and so on
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it and so
// boolean switches that default to true survive Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ksel-bot")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout_ms", 15000)

	v.SetDefault("registry.base_url", DefaultRegistryURL)
	v.SetDefault("registry.search_key", "03")
	v.SetDefault("registry.no_match_markers", []string{
		"검색 결과가 없습니다",
		"조회된 데이터가 없습니다",
		"등록된 데이터가 없습니다",
	})
	v.SetDefault("registry.max_body_bytes", 2<<20)
	v.SetDefault("registry.user_agent", "ksel-bot")

	v.SetDefault("http.max_conns_per_host", 10)
	v.SetDefault("http.max_idle_conns", 5)
	v.SetDefault("http.idle_conn_timeout_ms", 30000)

	v.SetDefault("lookup.fetch_timeout_ms", 4000)
	v.SetDefault("lookup.short_circuit", true)
	v.SetDefault("lookup.cache_negative", true)

	v.SetDefault("cache.capacity", 20)
	v.SetDefault("cache.fresh_ttl_ms", 0)
	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.address", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.ttl_ms", 24*60*60*1000)

	v.SetDefault("extractor.mode", "all")
	v.SetDefault("extractor.max_rows", 10)
	v.SetDefault("extractor.layout", "paired-dates")
	v.SetDefault("extractor.layout_file", "")

	v.SetDefault("command.mode", "auto")
	v.SetDefault("command.inline_timeout_ms", 5000)

	v.SetDefault("notify.announce", true)
	v.SetDefault("notify.timeout_ms", 5000)

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.table", "ksel_lookup_audit")

	v.SetDefault("database.postgres.host", "")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "")
	v.SetDefault("database.postgres.user", "")
	v.SetDefault("database.postgres.password", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("observability.service_name", "ksel-bot")
	v.SetDefault("observability.jaeger_endpoint", "")
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// Direct override for the handful of conventional variable names that
// hosting platforms set without our prefixing scheme.
func overrideEmptyConfig(cfg *Config) {
	if val := os.Getenv("PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Cache.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Cache.Redis.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15000
	}

	if cfg.Registry.BaseURL == "" {
		cfg.Registry.BaseURL = DefaultRegistryURL
	}
	if cfg.Registry.SearchKey == "" {
		cfg.Registry.SearchKey = "03"
	}
	if cfg.Registry.MaxBodyBytes <= 0 {
		cfg.Registry.MaxBodyBytes = 2 << 20
	}

	if cfg.HTTP.MaxConnsPerHost == 0 {
		cfg.HTTP.MaxConnsPerHost = 10
	}
	if cfg.HTTP.MaxIdleConns == 0 {
		cfg.HTTP.MaxIdleConns = 5
	}
	if cfg.HTTP.IdleConnTimeout == 0 {
		cfg.HTTP.IdleConnTimeout = 30000
	}

	if cfg.Lookup.FetchTimeout == 0 {
		cfg.Lookup.FetchTimeout = 4000
	}

	if cfg.Cache.Capacity == 0 {
		cfg.Cache.Capacity = 20
	}
	if cfg.Cache.Redis.TTL == 0 {
		cfg.Cache.Redis.TTL = 24 * 60 * 60 * 1000
	}

	if cfg.Extractor.Mode == "" {
		cfg.Extractor.Mode = "all"
	}
	if cfg.Extractor.MaxRows == 0 {
		cfg.Extractor.MaxRows = 10
	}
	if cfg.Extractor.Layout == "" {
		cfg.Extractor.Layout = "paired-dates"
	}

	if cfg.Command.Mode == "" {
		cfg.Command.Mode = "auto"
	}
	if cfg.Command.InlineTimeout == 0 {
		cfg.Command.InlineTimeout = 5000
	}
	if cfg.Notify.Timeout == 0 {
		cfg.Notify.Timeout = 5000
	}

	if cfg.Audit.Table == "" {
		cfg.Audit.Table = "ksel_lookup_audit"
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 5
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "ksel-bot"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	if !strings.HasPrefix(cfg.Registry.BaseURL, "http://") && !strings.HasPrefix(cfg.Registry.BaseURL, "https://") {
		return fmt.Errorf("registry.base_url must be an http(s) URL")
	}
	if cfg.Cache.Capacity < 1 {
		return fmt.Errorf("cache.capacity must be positive")
	}
	if cfg.Lookup.FetchTimeout < 0 || cfg.Command.InlineTimeout < 0 || cfg.Notify.Timeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}

	switch cfg.Extractor.Mode {
	case "all", "exact":
	default:
		return fmt.Errorf("extractor.mode must be \"all\" or \"exact\", got %q", cfg.Extractor.Mode)
	}

	switch cfg.Command.Mode {
	case "auto", "inline", "deferred":
	default:
		return fmt.Errorf("command.mode must be auto, inline or deferred, got %q", cfg.Command.Mode)
	}

	if cfg.Cache.Redis.Enabled && cfg.Cache.Redis.Address == "" {
		return fmt.Errorf("cache.redis.address is required when the redis mirror is enabled")
	}

	if cfg.Audit.Enabled {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required when audit is enabled")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required when audit is enabled")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required when audit is enabled")
		}
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
