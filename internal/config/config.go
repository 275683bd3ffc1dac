// Package config holds process-level configuration for the rulekit API
// and CLI, read from environment variables with typed defaults, in the
// style of config/security.go's struct-construction (fields grouped by
// concern, a Default...Config constructor) combined with the
// os.Getenv/getEnv reading mechanism already used by api/logging.go and
// api/tracing.go.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// StoreBackend selects which core/store.RuleStore implementation the
// process wires up.
type StoreBackend string

const (
	StoreBackendMemory StoreBackend = "memory"
	StoreBackendFile   StoreBackend = "file"
)

// Config is the full set of environment-driven process settings.
type Config struct {
	Server  ServerConfig
	Reload  ReloadConfig
	Store   StoreConfig
	Logging LoggingConfig
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port            string
	GinMode         string
	ShutdownGrace   time.Duration
	JaegerEndpoint  string
	Environment     string
}

// ReloadConfig controls the hot-reload controller's background monitor.
type ReloadConfig struct {
	AutoReloadEnabled bool
	IntervalSeconds   int
	ValidateOnReload  bool
	HistorySize       int
}

// StoreConfig selects and parameterizes the RuleStore backend.
type StoreConfig struct {
	Backend   StoreBackend
	Dir       string
	SchemaDir string
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level string
}

// Load builds a Config from environment variables, falling back to
// defaults for anything unset.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Port:           getEnv("RULEKIT_PORT", "8080"),
			GinMode:        getEnv("GIN_MODE", "debug"),
			ShutdownGrace:  getEnvDuration("RULEKIT_SHUTDOWN_GRACE", 5*time.Second),
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
			Environment:    getEnv("RULEKIT_ENVIRONMENT", "development"),
		},
		Reload: ReloadConfig{
			AutoReloadEnabled: getEnvBool("RULEKIT_AUTO_RELOAD", false),
			IntervalSeconds:   getEnvInt("RULEKIT_RELOAD_INTERVAL_SECONDS", 30),
			ValidateOnReload:  getEnvBool("RULEKIT_RELOAD_VALIDATE", true),
			HistorySize:       getEnvInt("RULEKIT_RELOAD_HISTORY_SIZE", 50),
		},
		Store: StoreConfig{
			Backend:   StoreBackend(strings.ToLower(getEnv("RULEKIT_STORE_BACKEND", string(StoreBackendMemory)))),
			Dir:       getEnv("RULEKIT_STORE_DIR", "./state/rules"),
			SchemaDir: getEnv("RULEKIT_SCHEMA_DIR", "./schemas"),
		},
		Logging: LoggingConfig{
			Level: getEnv("RULEKIT_LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case StoreBackendMemory, StoreBackendFile:
	default:
		return fmt.Errorf("invalid RULEKIT_STORE_BACKEND %q: must be %q or %q", c.Store.Backend, StoreBackendMemory, StoreBackendFile)
	}
	if c.Reload.IntervalSeconds < 5 || c.Reload.IntervalSeconds > 3600 {
		return fmt.Errorf("invalid RULEKIT_RELOAD_INTERVAL_SECONDS %d: must be in [5, 3600]", c.Reload.IntervalSeconds)
	}
	if c.Reload.HistorySize <= 0 {
		return fmt.Errorf("invalid RULEKIT_RELOAD_HISTORY_SIZE %d: must be positive", c.Reload.HistorySize)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
