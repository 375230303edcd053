package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadParsesDatabaseSection(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "12345:TEST"
storage:
  backend: postgres
  database:
    host: db.internal
    port: "5432"
    user: trainbot
    password: secret
    name: trainbot
    sslmode: disable
    max_connections: 8
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Backend != StoragePostgres {
		t.Fatalf("backend = %q, want postgres", cfg.Storage.Backend)
	}
	db := cfg.Storage.Database
	if db.Host != "db.internal" || db.Port != "5432" || db.Name != "trainbot" {
		t.Fatalf("database section not parsed: %+v", db)
	}
	if db.MaxConnections != 8 {
		t.Fatalf("max_connections = %d, want 8", db.MaxConnections)
	}
}

func TestLoadPostgresRequiresHost(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "12345:TEST"
storage:
  backend: postgres
`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted postgres backend without a host")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "12345:TEST"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Errorf("run_mode = %q, want longpoll", cfg.Telegram.RunMode)
	}
	if cfg.Storage.Backend != StorageFile || cfg.Storage.FilePath != "users.json" {
		t.Errorf("storage defaults = %q %q", cfg.Storage.Backend, cfg.Storage.FilePath)
	}
	if cfg.OTP.Length != 6 || cfg.OTP.TTLSeconds != 600 || cfg.OTP.Attempts != 3 {
		t.Errorf("otp defaults = %+v", cfg.OTP)
	}
	if cfg.WebApp.Listen != ":8080" {
		t.Errorf("webapp.listen = %q, want :8080", cfg.WebApp.Listen)
	}
}

func TestLoadMissingFileUsesEnvOnly(t *testing.T) {
	t.Setenv("BOT_TOKEN", "12345:ENV")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "12345:ENV" {
		t.Fatalf("token = %q, want env value", cfg.Telegram.Token)
	}
}
