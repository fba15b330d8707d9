// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/fsrf-audit/internal/audit"
	"github.com/tomtom215/fsrf-audit/internal/blobstore"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = testSecret
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.Driver != blobstore.DriverBadger {
		t.Errorf("Storage.Driver = %q, want badger", cfg.Storage.Driver)
	}
	if cfg.Storage.Key != audit.DefaultBlobKey {
		t.Errorf("Storage.Key = %q, want %q", cfg.Storage.Key, audit.DefaultBlobKey)
	}
	if cfg.Audit.MaxEvents != 1000 {
		t.Errorf("Audit.MaxEvents = %d, want 1000", cfg.Audit.MaxEvents)
	}
	if cfg.Audit.StrictVocabulary {
		t.Error("Audit.StrictVocabulary should be false by default")
	}
	if cfg.Audit.SwallowWriteErrors {
		t.Error("Audit.SwallowWriteErrors should be false by default")
	}
	if cfg.Security.AuthMode != "jwt" {
		t.Errorf("Security.AuthMode = %q, want jwt", cfg.Security.AuthMode)
	}
	if cfg.EventBus.Enabled {
		t.Error("EventBus.Enabled should be false by default")
	}

	// Defaults alone are invalid: the JWT secret has no default.
	if err := cfg.Validate(); err == nil {
		t.Error("defaults without jwt secret should fail validation")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("AUDIT_MAX_EVENTS", "250")
	t.Setenv("AUDIT_STRICT_VOCABULARY", "true")
	t.Setenv("CORS_ORIGINS", "https://portal.example, https://admin.example")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,127.0.0.1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("Storage.Driver = %q, want memory", cfg.Storage.Driver)
	}
	if cfg.Audit.MaxEvents != 250 {
		t.Errorf("Audit.MaxEvents = %d, want 250", cfg.Audit.MaxEvents)
	}
	if !cfg.Audit.StrictVocabulary {
		t.Error("Audit.StrictVocabulary should be true")
	}
	want := []string{"https://portal.example", "https://admin.example"}
	if len(cfg.Security.CORSOrigins) != len(want) {
		t.Fatalf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
	for i := range want {
		if cfg.Security.CORSOrigins[i] != want[i] {
			t.Errorf("CORSOrigins[%d] = %q, want %q", i, cfg.Security.CORSOrigins[i], want[i])
		}
	}
	if len(cfg.Security.TrustedProxies) != 2 || cfg.Security.TrustedProxies[1] != "127.0.0.1" {
		t.Errorf("TrustedProxies = %v", cfg.Security.TrustedProxies)
	}
	if cfg.Security.RateLimitWindow != 30*time.Second {
		t.Errorf("RateLimitWindow = %v, want 30s", cfg.Security.RateLimitWindow)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 7000
storage:
  driver: file
  path: /tmp/audit.json
audit:
  max_events: 500
security:
  jwt_secret: ` + testSecret + `
  users:
    - id: auditor-1
      email: auditor@example.com
      password_hash: "$2a$10$abcdefghijklmnopqrstuv"
      role: auditor
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)
	// Environment wins over the file.
	t.Setenv("AUDIT_MAX_EVENTS", "600")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want 7000", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "file" || cfg.Storage.Path != "/tmp/audit.json" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Audit.MaxEvents != 600 {
		t.Errorf("Audit.MaxEvents = %d, want 600", cfg.Audit.MaxEvents)
	}
	if len(cfg.Security.Users) != 1 || cfg.Security.Users[0].Role != "auditor" {
		t.Errorf("Users = %+v", cfg.Security.Users)
	}
}

func TestLoad_InvalidFails(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", "short")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail with a short jwt secret")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"STORAGE_DRIVER", "storage.driver"},
		{"DATABASE_URL", "storage.dsn"},
		{"AUDIT_MAX_EVENTS", "audit.max_events"},
		{"JWT_SECRET", "security.jwt_secret"},
		{"NATS_URL", "eventbus.url"},
		{"log_level", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := envTransformFunc(tt.key); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad environment", func(c *Config) { c.Server.Environment = "qa" }, "server.environment"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "sqlite" }, "storage.driver"},
		{"empty key", func(c *Config) { c.Storage.Key = " " }, "storage.key"},
		{"file without path", func(c *Config) { c.Storage.Driver = "file"; c.Storage.Path = "" }, "storage.path"},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = "postgres" }, "storage.dsn"},
		{"redis without addr", func(c *Config) { c.Storage.Driver = "redis" }, "storage.redis_addr"},
		{"zero max events", func(c *Config) { c.Audit.MaxEvents = 0 }, "audit.max_events"},
		{"huge max events", func(c *Config) { c.Audit.MaxEvents = MaxEventsLimit + 1 }, "audit.max_events"},
		{"short secret", func(c *Config) { c.Security.JWTSecret = "x" }, "jwt_secret"},
		{"unknown auth mode", func(c *Config) { c.Security.AuthMode = "basic" }, "auth_mode"},
		{"auth none in dev", func(c *Config) { c.Security.AuthMode = "none" }, ""},
		{"auth none in production", func(c *Config) {
			c.Security.AuthMode = "none"
			c.Server.Environment = "production"
		}, "not allowed in production"},
		{"wildcard cors in production", func(c *Config) {
			c.Server.Environment = "production"
			c.Security.CORSOrigins = []string{"*"}
		}, "cors_origins"},
		{"bad trusted proxy", func(c *Config) { c.Security.TrustedProxies = []string{"10.0.0.0/99"} }, "trusted_proxies"},
		{"trusted proxy cidr", func(c *Config) { c.Security.TrustedProxies = []string{"10.0.0.0/8", "127.0.0.1"} }, ""},
		{"zero rate limit", func(c *Config) { c.Security.RateLimitReqs = 0 }, "rate_limit_requests"},
		{"zero rate limit when disabled", func(c *Config) {
			c.Security.RateLimitReqs = 0
			c.Security.RateLimitDisabled = true
		}, ""},
		{"admin without password", func(c *Config) { c.Security.AdminEmail = "a@example.com" }, "admin_password_hash"},
		{"admin with both passwords", func(c *Config) {
			c.Security.AdminPassword = "pw"
			c.Security.AdminPasswordHash = "hash"
		}, "only one"},
		{"duplicate users", func(c *Config) {
			c.Security.Users = []UserConfig{
				{Email: "a@example.com", PasswordHash: "h"},
				{Email: "A@example.com", PasswordHash: "h"},
			}
		}, "duplicate"},
		{"eventbus without url", func(c *Config) {
			c.EventBus.Enabled = true
			c.EventBus.URL = ""
		}, "eventbus.url"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConversions(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Driver = "redis"
	cfg.Storage.RedisAddr = "localhost:6379"
	cfg.Storage.RedisDB = 3
	cfg.Audit.SwallowWriteErrors = true

	bs := cfg.BlobStore()
	if bs.Driver != "redis" || bs.Redis.Addr != "localhost:6379" || bs.Redis.DB != 3 {
		t.Errorf("BlobStore() = %+v", bs)
	}
	rc := cfg.Recorder()
	if rc.MaxEvents != 1000 || !rc.SwallowWriteErrors {
		t.Errorf("Recorder() = %+v", rc)
	}
}
