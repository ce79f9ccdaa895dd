package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("expected path %s, got %s", path, resolved)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}

	def := Default()
	if cfg.Addr != def.Addr || cfg.MaxClients != def.MaxClients || cfg.MaxNameLen != def.MaxNameLen {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.WriteTimeout != def.WriteTimeout {
		t.Fatalf("write timeout: expected %v, got %v", def.WriteTimeout, cfg.WriteTimeout)
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("addr: \":7000\"\nmax_clients: 10\nwrite_timeout: 2s\nlog_level: debug\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("LINECHAT_MAX_CLIENTS", "3")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7000" {
		t.Errorf("addr from file: got %q", cfg.Addr)
	}
	if cfg.MaxClients != 3 {
		t.Errorf("env must override file: got %d", cfg.MaxClients)
	}
	if cfg.WriteTimeout != 2*time.Second {
		t.Errorf("write timeout: got %v", cfg.WriteTimeout)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level: got %q", cfg.LogLevel)
	}
	if cfg.MaxLineLen != Default().MaxLineLen {
		t.Errorf("unset keys keep defaults: got %d", cfg.MaxLineLen)
	}
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":9000", MaxClients: 5})

	if cfg.Addr != ":9000" || cfg.MaxClients != 5 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.MaxNameLen != Default().MaxNameLen {
		t.Fatalf("zero values must not override: %+v", cfg)
	}
}
