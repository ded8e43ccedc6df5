package runtimeconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides.
const EnvPrefix = "DRYDECK_"

// Load builds a configuration from defaults, the optional YAML file at path
// and DRYDECK_* environment variables, in that order of precedence, then
// validates it.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := Decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode overlays YAML data onto cfg. Unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overlays DRYDECK_* variables onto cfg.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if lookup == nil {
		return nil
	}
	env := envReader{lookup: lookup}

	env.str("STORAGE_DRIVER", &cfg.Storage.Driver)
	env.str("STORAGE_DSN", &cfg.Storage.DSN)
	env.integer("STORAGE_MAX_OPEN_CONNS", &cfg.Storage.MaxOpenConns)
	env.integer("STORAGE_MAX_IDLE_CONNS", &cfg.Storage.MaxIdleConns)
	env.duration("STORAGE_CONN_MAX_LIFETIME", &cfg.Storage.ConnMaxLifetime)
	env.boolean("STORAGE_DEBUG", &cfg.Storage.Debug)
	env.boolean("STORAGE_AUTO_MIGRATE", &cfg.Storage.AutoMigrate)

	env.boolean("CACHE_ENABLED", &cfg.Cache.Enabled)
	env.duration("CACHE_TTL", &cfg.Cache.TTL)

	env.str("HTTP_ADDR", &cfg.HTTP.Addr)
	env.str("HTTP_BASE_PATH", &cfg.HTTP.BasePath)
	env.integer("HTTP_RATE_LIMIT", &cfg.HTTP.RateLimit)
	env.duration("HTTP_RATE_WINDOW", &cfg.HTTP.RateWindow)
	env.duration("HTTP_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout)

	env.str("LOG_PROVIDER", &cfg.Logging.Provider)
	env.str("LOG_LEVEL", &cfg.Logging.Level)
	env.str("LOG_FORMAT", &cfg.Logging.Format)
	env.boolean("LOG_ADD_SOURCE", &cfg.Logging.AddSource)
	if raw, ok := env.get("LOG_FOCUS"); ok {
		cfg.Logging.Focus = splitList(raw)
	}

	env.boolean("FEATURES_NORMALIZER", &cfg.Features.Normalizer)
	env.boolean("FEATURES_METRICS", &cfg.Features.Metrics)

	return errors.Join(env.errs...)
}

type envReader struct {
	lookup LookupFunc
	errs   []error
}

func (e *envReader) get(key string) (string, bool) {
	value, ok := e.lookup(EnvPrefix + key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func (e *envReader) str(key string, target *string) {
	if value, ok := e.get(key); ok {
		*target = value
	}
}

func (e *envReader) integer(key string, target *int) {
	if value, ok := e.get(key); ok {
		n, err := strconv.Atoi(value)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			return
		}
		*target = n
	}
}

func (e *envReader) boolean(key string, target *bool) {
	if value, ok := e.get(key); ok {
		b, err := strconv.ParseBool(value)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			return
		}
		*target = b
	}
}

func (e *envReader) duration(key string, target *time.Duration) {
	if value, ok := e.get(key); ok {
		d, err := time.ParseDuration(value)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			return
		}
		*target = d
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
