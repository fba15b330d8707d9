// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/fsrf-audit/internal/audit"
	"github.com/tomtom215/fsrf-audit/internal/blobstore"
)

// MinJWTSecretLength is the shortest accepted HMAC secret.
const MinJWTSecretLength = 32

// MaxEventsLimit bounds audit.max_events; the whole collection is
// rewritten on every append.
const MaxEventsLimit = 100000

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateAudit(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateEventBus(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout < 0 {
		return errors.New("server.shutdown_timeout must not be negative")
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("server.environment must be development, staging or production, got %q", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateStorage() error {
	driver := c.Storage.Driver
	known := false
	for _, d := range blobstore.Drivers() {
		if d == driver {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("storage.driver must be one of %s, got %q", strings.Join(blobstore.Drivers(), ", "), driver)
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return errors.New("storage.key is required")
	}
	switch driver {
	case blobstore.DriverFile:
		if c.Storage.Path == "" {
			return errors.New("storage.path is required when storage.driver is file")
		}
	case blobstore.DriverPostgres:
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn (DATABASE_URL) is required when storage.driver is postgres")
		}
	case blobstore.DriverRedis:
		if c.Storage.RedisAddr == "" {
			return errors.New("storage.redis_addr is required when storage.driver is redis")
		}
	}
	return nil
}

func (c *Config) validateAudit() error {
	if c.Audit.MaxEvents < 1 || c.Audit.MaxEvents > MaxEventsLimit {
		return fmt.Errorf("audit.max_events must be between 1 and %d, got %d", MaxEventsLimit, c.Audit.MaxEvents)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if err := c.validateAuthMode(); err != nil {
		return err
	}
	if err := c.validateCORS(); err != nil {
		return err
	}
	if _, err := audit.ParseTrustedProxies(c.Security.TrustedProxies); err != nil {
		return fmt.Errorf("security.trusted_proxies: %w", err)
	}
	if err := c.validateRateLimits(); err != nil {
		return err
	}
	return c.validateUsers()
}

func (c *Config) validateAuthMode() error {
	switch c.Security.AuthMode {
	case "jwt":
		if len(c.Security.JWTSecret) < MinJWTSecretLength {
			return fmt.Errorf("security.jwt_secret must be at least %d characters when auth_mode is jwt", MinJWTSecretLength)
		}
		if c.Security.TokenTTL <= 0 {
			return errors.New("security.token_ttl must be positive when auth_mode is jwt")
		}
	case "none":
		if c.IsProduction() {
			return errors.New("security.auth_mode none is not allowed in production")
		}
	default:
		return fmt.Errorf("security.auth_mode must be jwt or none, got %q", c.Security.AuthMode)
	}
	return nil
}

func (c *Config) validateCORS() error {
	if !c.IsProduction() {
		return nil
	}
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return errors.New("security.cors_origins must not contain * in production")
		}
	}
	return nil
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return errors.New("security.rate_limit_requests must be positive")
	}
	if c.Security.RateLimitWindow <= 0 {
		return errors.New("security.rate_limit_window must be positive")
	}
	if c.Security.LoginRateLimit < 1 {
		return errors.New("security.login_rate_limit must be positive")
	}
	return nil
}

func (c *Config) validateUsers() error {
	if c.Security.AdminPassword != "" && c.Security.AdminPasswordHash != "" {
		return errors.New("set only one of security.admin_password and security.admin_password_hash")
	}
	if c.Security.AdminEmail != "" && c.Security.AdminPassword == "" && c.Security.AdminPasswordHash == "" {
		return errors.New("security.admin_password_hash is required when security.admin_email is set")
	}
	seen := make(map[string]bool, len(c.Security.Users))
	for i, u := range c.Security.Users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" {
			return fmt.Errorf("security.users[%d].email is required", i)
		}
		if u.PasswordHash == "" {
			return fmt.Errorf("security.users[%d].password_hash is required", i)
		}
		if seen[email] {
			return fmt.Errorf("security.users[%d]: duplicate email %s", i, email)
		}
		seen[email] = true
	}
	return nil
}

func (c *Config) validateEventBus() error {
	if !c.EventBus.Enabled {
		return nil
	}
	if c.EventBus.URL == "" {
		return errors.New("eventbus.url is required when eventbus.enabled is true")
	}
	if c.EventBus.Subject == "" {
		return errors.New("eventbus.subject is required when eventbus.enabled is true")
	}
	if c.EventBus.QueueSize < 1 {
		return errors.New("eventbus.queue_size must be positive")
	}
	if c.EventBus.BreakerFailures == 0 {
		return errors.New("eventbus.breaker_failures must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled", "off":
	default:
		return fmt.Errorf("logging.level must be trace, debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
