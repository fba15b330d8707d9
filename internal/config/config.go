// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

// Package config loads service configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence.
package config

import (
	"time"

	"github.com/tomtom215/fsrf-audit/internal/audit"
	"github.com/tomtom215/fsrf-audit/internal/blobstore"
)

// Config holds all service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Storage  StorageConfig  `koanf:"storage"`
	Audit    AuditConfig    `koanf:"audit"`
	Security SecurityConfig `koanf:"security"`
	EventBus EventBusConfig `koanf:"eventbus"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// StorageConfig selects where the audit collection lives.
type StorageConfig struct {
	Driver        string `koanf:"driver"` // nop, memory, file, badger, duckdb, postgres, redis
	Key           string `koanf:"key"`
	Path          string `koanf:"path"`
	DSN           string `koanf:"dsn"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
}

// AuditConfig tunes the recorder.
type AuditConfig struct {
	MaxEvents          int  `koanf:"max_events"`
	StrictVocabulary   bool `koanf:"strict_vocabulary"`
	SwallowWriteErrors bool `koanf:"swallow_write_errors"`
	LiveFeed           bool `koanf:"live_feed"`
}

// SecurityConfig holds authentication, authorization and HTTP hardening.
type SecurityConfig struct {
	AuthMode  string        `koanf:"auth_mode"` // jwt or none
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`

	// Bootstrap administrator. AdminPassword is hashed at start-up and
	// never stored; prefer AdminPasswordHash.
	AdminEmail        string `koanf:"admin_email"`
	AdminPassword     string `koanf:"admin_password"`
	AdminPasswordHash string `koanf:"admin_password_hash"`

	// Users are additional accounts, normally from the YAML file.
	Users []UserConfig `koanf:"users"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	LoginRateLimit    int           `koanf:"login_rate_limit"`

	Casbin CasbinConfig `koanf:"casbin"`
}

// UserConfig is one configured account.
type UserConfig struct {
	ID           string `koanf:"id"`
	Email        string `koanf:"email"`
	PasswordHash string `koanf:"password_hash"`
	Role         string `koanf:"role"`
}

// CasbinConfig configures authorization. Empty paths use the embedded
// model and policy.
type CasbinConfig struct {
	ModelPath    string        `koanf:"model_path"`
	PolicyPath   string        `koanf:"policy_path"`
	DefaultRole  string        `koanf:"default_role"`
	CacheEnabled bool          `koanf:"cache_enabled"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
}

// EventBusConfig configures publishing recorded events to NATS.
type EventBusConfig struct {
	Enabled          bool          `koanf:"enabled"`
	URL              string        `koanf:"url"`
	Subject          string        `koanf:"subject"`
	QueueSize        int           `koanf:"queue_size"`
	MaxReconnects    int           `koanf:"max_reconnects"`
	ReconnectWait    time.Duration `koanf:"reconnect_wait"`
	BreakerFailures  uint32        `koanf:"breaker_failures"`
	BreakerOpenDelay time.Duration `koanf:"breaker_open_delay"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// BlobStore converts storage settings for blobstore.Open.
func (c *Config) BlobStore() blobstore.Config {
	return blobstore.Config{
		Driver: c.Storage.Driver,
		Key:    c.Storage.Key,
		Path:   c.Storage.Path,
		DSN:    c.Storage.DSN,
		Redis: blobstore.RedisOptions{
			Addr:     c.Storage.RedisAddr,
			Password: c.Storage.RedisPassword,
			DB:       c.Storage.RedisDB,
		},
	}
}

// Recorder converts audit settings for audit.NewRecorder.
func (c *Config) Recorder() audit.Config {
	return audit.Config{
		MaxEvents:          c.Audit.MaxEvents,
		StrictVocabulary:   c.Audit.StrictVocabulary,
		SwallowWriteErrors: c.Audit.SwallowWriteErrors,
	}
}
