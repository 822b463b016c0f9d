package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// serverEnv sets the minimum env vars for a valid backend config.
func serverEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DSN", "postgres://u:p@localhost:5432/testdb")
	t.Setenv("AUTH_JWT_SECRET", "this-is-a-very-long-jwt-secret-for-testing-32+")
}

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

const validYAML = `
log:
  level: "debug"
  format: "text"

store:
  path: "/tmp/tilawah-test.db"
  busy_timeout: "2s"

cloud:
  base_url: "https://sync.example.com"
  token: "tok"
  user_id: "u-1"
  timeout: "5s"

sync:
  enabled: true
  interval: "2m"
  cycle_timeout: "30s"

srs:
  default_ease_factor: 2.5
  min_ease_factor: 1.3
  timezone: "Asia/Riyadh"

server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: "5s"

database:
  dsn: "postgres://u:p@localhost:5432/testdb"
  max_conns: 10

auth:
  jwt_secret: "this-is-a-very-long-jwt-secret-for-testing-32+"

redis:
  addr: "localhost:6379"
  snapshot_ttl: "30s"
`

// validConfig returns a Config that passes Validate and ValidateServer.
func validConfig() *Config {
	return &Config{
		Log:   LogConfig{Level: "info", Format: "json"},
		Store: StoreConfig{Path: "./tilawah.db", BusyTimeout: 5 * time.Second},
		Sync:  SyncConfig{Enabled: true, Interval: 5 * time.Minute, CycleTimeout: time.Minute},
		SRS:   SRSConfig{DefaultEaseFactor: 2.5, MinEaseFactor: 1.3},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{DSN: "postgres://u:p@localhost:5432/testdb"},
		Auth: AuthConfig{
			JWTSecret:      "this-is-a-very-long-jwt-secret-for-testing-32+",
			JWTIssuer:      "tilawah",
			AccessTokenTTL: time.Hour,
		},
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Log
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want %q", cfg.Log.Level, "debug")
	}

	// Store
	if cfg.Store.Path != "/tmp/tilawah-test.db" {
		t.Errorf("store.path = %q", cfg.Store.Path)
	}
	if cfg.Store.BusyTimeout != 2*time.Second {
		t.Errorf("store.busy_timeout = %v, want 2s", cfg.Store.BusyTimeout)
	}

	// Cloud
	if !cfg.Cloud.SignedIn() {
		t.Error("cloud should be signed in")
	}
	if cfg.Cloud.Timeout != 5*time.Second {
		t.Errorf("cloud.timeout = %v, want 5s", cfg.Cloud.Timeout)
	}

	// Sync
	if cfg.Sync.Interval != 2*time.Minute {
		t.Errorf("sync.interval = %v, want 2m", cfg.Sync.Interval)
	}

	// SRS
	if cfg.SRS.Location().String() != "Asia/Riyadh" {
		t.Errorf("srs location = %v", cfg.SRS.Location())
	}

	// Server side
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.MaxConns != 10 {
		t.Errorf("database.max_conns = %d, want 10", cfg.Database.MaxConns)
	}
	if cfg.Redis.SnapshotTTL != 30*time.Second {
		t.Errorf("redis.snapshot_ttl = %v, want 30s", cfg.Redis.SnapshotTTL)
	}
	if err := cfg.ValidateServer(); err != nil {
		t.Errorf("ValidateServer: %v", err)
	}
}

func TestLoad_ENVOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("SYNC_INTERVAL", "10m")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Sync.Interval != 10*time.Minute {
		t.Errorf("sync.interval = %v, want 10m (ENV override)", cfg.Sync.Interval)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want %q (ENV override)", cfg.Log.Level, "warn")
	}
}

func TestLoad_NoFile_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	_ = os.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Store.Path != "./tilawah.db" {
		t.Errorf("store.path = %q, want default", cfg.Store.Path)
	}
	if cfg.Sync.Interval != 5*time.Minute {
		t.Errorf("sync.interval = %v, want 5m (default)", cfg.Sync.Interval)
	}
	if !cfg.Sync.Enabled {
		t.Error("sync.enabled should default to true")
	}
	if cfg.Cloud.SignedIn() {
		t.Error("cloud should not be signed in without credentials")
	}
}

func TestLoadServer_RequiresDSNAndSecret(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	_ = os.Chdir(t.TempDir())

	if _, err := LoadServer(); err == nil {
		t.Fatal("expected error without DATABASE_DSN")
	}

	serverEnv(t)
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Auth.JWTIssuer != "tilawah" {
		t.Errorf("auth.jwt_issuer = %q, want default", cfg.Auth.JWTIssuer)
	}
}

func TestLoad_ExplicitPathNotFound(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, `{{{invalid yaml`)
	t.Setenv("CONFIG_PATH", path)

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "empty store path", mutate: func(c *Config) { c.Store.Path = "" }, wantErr: true},
		{name: "sync interval too short", mutate: func(c *Config) { c.Sync.Interval = time.Second }, wantErr: true},
		{name: "zero cycle timeout", mutate: func(c *Config) { c.Sync.CycleTimeout = 0 }, wantErr: true},
		{name: "min ease zero", mutate: func(c *Config) { c.SRS.MinEaseFactor = 0 }, wantErr: true},
		{name: "default ease below floor", mutate: func(c *Config) { c.SRS.DefaultEaseFactor = 1.2 }, wantErr: true},
		{name: "bad timezone", mutate: func(c *Config) { c.SRS.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "relative cloud url", mutate: func(c *Config) { c.Cloud.BaseURL = "sync.example.com" }, wantErr: true},
		{name: "absolute cloud url", mutate: func(c *Config) { c.Cloud.BaseURL = "http://localhost:8080" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateServer(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing dsn", mutate: func(c *Config) { c.Database.DSN = "" }, wantErr: true},
		{name: "short secret", mutate: func(c *Config) { c.Auth.JWTSecret = "short" }, wantErr: true},
		{name: "zero ttl", mutate: func(c *Config) { c.Auth.AccessTokenTTL = 0 }, wantErr: true},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.ValidateServer()
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSRSConfig_LocationFallback(t *testing.T) {
	t.Parallel()

	if loc := (SRSConfig{}).Location(); loc != time.Local {
		t.Errorf("empty timezone = %v, want Local", loc)
	}
	if loc := (SRSConfig{Timezone: "UTC"}).Location(); loc.String() != "UTC" {
		t.Errorf("UTC timezone = %v", loc)
	}
}
