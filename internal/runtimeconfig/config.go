package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrStorageDriverUnknown      = errors.New("drydeck config: storage driver is invalid")
	ErrStorageDSNRequired        = errors.New("drydeck config: storage dsn is required for sql drivers")
	ErrStoragePoolInvalid        = errors.New("drydeck config: storage pool settings must be zero or positive")
	ErrCacheTTLInvalid           = errors.New("drydeck config: cache ttl must be positive when cache is enabled")
	ErrHTTPAddrRequired          = errors.New("drydeck config: http address is required")
	ErrHTTPBasePathInvalid       = errors.New("drydeck config: http base path must start with /")
	ErrHTTPRateLimitInvalid      = errors.New("drydeck config: http rate limit requires a positive window")
	ErrLoggingProviderUnknown    = errors.New("drydeck config: logging provider is invalid")
	ErrLoggingLevelInvalid       = errors.New("drydeck config: logging level is invalid")
	ErrLoggingFormatInvalid      = errors.New("drydeck config: logging format is invalid")
	ErrNormalizerRequiresPostgis = errors.New("drydeck config: address normalizer requires the postgres driver")
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config aggregates the runtime settings for the drydeck service.
type Config struct {
	Storage  StorageConfig `yaml:"storage"`
	Cache    CacheConfig   `yaml:"cache"`
	HTTP     HTTPConfig    `yaml:"http"`
	Logging  LoggingConfig `yaml:"logging"`
	Features Features      `yaml:"features"`
}

// StorageConfig selects the repository backend and its connection pool.
type StorageConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	PingTimeout     time.Duration `yaml:"ping_timeout"`
	Debug           bool          `yaml:"debug"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

// CacheConfig toggles the repository read cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// HTTPConfig captures listener and admin API settings.
type HTTPConfig struct {
	Addr              string        `yaml:"addr"`
	BasePath          string        `yaml:"base_path"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	RateLimit         int           `yaml:"rate_limit"`
	RateWindow        time.Duration `yaml:"rate_window"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// Features toggles optional functionality.
type Features struct {
	Normalizer bool `yaml:"normalizer"`
	Metrics    bool `yaml:"metrics"`
}

// DefaultConfig returns settings suitable for local development: a SQLite
// file database, cache on and console logging.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Driver:          DriverSQLite,
			DSN:             "file:drydeck.db?cache=shared",
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: time.Hour,
			PingTimeout:     5 * time.Second,
			AutoMigrate:     true,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Minute,
		},
		HTTP: HTTPConfig{
			Addr:              ":8080",
			BasePath:          "/api",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			RateLimit:         100,
			RateWindow:        time.Minute,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		Features: Features{
			Metrics: true,
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	driver := normalize(cfg.Storage.Driver)
	switch driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return fmt.Errorf("%w: %s", ErrStorageDSNRequired, driver)
		}
	default:
		return fmt.Errorf("%w: %q", ErrStorageDriverUnknown, cfg.Storage.Driver)
	}
	if cfg.Storage.MaxOpenConns < 0 || cfg.Storage.MaxIdleConns < 0 || cfg.Storage.ConnMaxLifetime < 0 {
		return ErrStoragePoolInvalid
	}
	if cfg.Cache.Enabled && cfg.Cache.TTL <= 0 {
		return ErrCacheTTLInvalid
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		return ErrHTTPAddrRequired
	}
	if base := strings.TrimSpace(cfg.HTTP.BasePath); base != "" && !strings.HasPrefix(base, "/") {
		return fmt.Errorf("%w: %q", ErrHTTPBasePathInvalid, base)
	}
	if cfg.HTTP.RateLimit > 0 && cfg.HTTP.RateWindow <= 0 {
		return ErrHTTPRateLimitInvalid
	}

	provider := normalize(cfg.Logging.Provider)
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}

	if cfg.Features.Normalizer && driver != DriverPostgres {
		return ErrNormalizerRequiresPostgis
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger", "none":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch normalize(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch normalize(format) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
