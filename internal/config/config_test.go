package config

import (
	"os"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"RULEKIT_PORT", "GIN_MODE", "RULEKIT_SHUTDOWN_GRACE", "JAEGER_ENDPOINT", "RULEKIT_ENVIRONMENT",
		"RULEKIT_AUTO_RELOAD", "RULEKIT_RELOAD_INTERVAL_SECONDS", "RULEKIT_RELOAD_VALIDATE", "RULEKIT_RELOAD_HISTORY_SIZE",
		"RULEKIT_STORE_BACKEND", "RULEKIT_STORE_DIR", "RULEKIT_SCHEMA_DIR", "RULEKIT_LOG_LEVEL",
	}
	for _, k := range keys {
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Store.Backend != StoreBackendMemory {
		t.Errorf("Backend = %q, want %q", cfg.Store.Backend, StoreBackendMemory)
	}
	if cfg.Reload.IntervalSeconds != 30 {
		t.Errorf("IntervalSeconds = %d, want 30", cfg.Reload.IntervalSeconds)
	}
	if !cfg.Reload.ValidateOnReload {
		t.Error("ValidateOnReload should default true")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	clearEnv(t)
	defer clearEnv(t)

	os.Setenv("RULEKIT_STORE_BACKEND", "file")
	os.Setenv("RULEKIT_STORE_DIR", "/tmp/rules")
	os.Setenv("RULEKIT_RELOAD_INTERVAL_SECONDS", "60")
	os.Setenv("RULEKIT_AUTO_RELOAD", "true")
	os.Setenv("RULEKIT_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Store.Backend != StoreBackendFile {
		t.Errorf("Backend = %q, want file", cfg.Store.Backend)
	}
	if cfg.Store.Dir != "/tmp/rules" {
		t.Errorf("Dir = %q, want /tmp/rules", cfg.Store.Dir)
	}
	if cfg.Reload.IntervalSeconds != 60 {
		t.Errorf("IntervalSeconds = %d, want 60", cfg.Reload.IntervalSeconds)
	}
	if !cfg.Reload.AutoReloadEnabled {
		t.Error("AutoReloadEnabled should be true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_InvalidBackend(t *testing.T) {
	clearEnv(t)
	defer clearEnv(t)

	os.Setenv("RULEKIT_STORE_BACKEND", "redis")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid store backend")
	}
}

func TestLoad_InvalidReloadInterval(t *testing.T) {
	clearEnv(t)
	defer clearEnv(t)

	os.Setenv("RULEKIT_RELOAD_INTERVAL_SECONDS", "1")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for reload interval below minimum")
	}
}
