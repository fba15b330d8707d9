// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/fsrf-audit/internal/audit"
	"github.com/tomtom215/fsrf-audit/internal/config"
	"github.com/tomtom215/fsrf-audit/internal/logging"
	"github.com/tomtom215/fsrf-audit/internal/middleware"
)

// LoginRateWindow is the window for the login limiter.
const LoginRateWindow = 5 * time.Minute

// ChiMiddlewareConfig holds configuration for Chi middleware factories.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSExposedHeaders   []string
	CORSAllowCredentials bool
	CORSMaxAge           int // seconds

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
	RateLimitKeyFunc  httprate.KeyFunc

	// LoginRateLimit is attempts per LoginRateWindow per client address.
	LoginRateLimit int

	// TrustedProxies are IPs or CIDRs whose X-Forwarded-For and X-Real-IP
	// headers are believed. Empty means the connection peer is the client.
	TrustedProxies []string
}

// DefaultChiMiddlewareConfig returns a secure default configuration.
// CORS origins default to empty, requiring explicit configuration.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins:   []string{},
		CORSAllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		CORSExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		CORSAllowCredentials: false,
		CORSMaxAge:           86400,

		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		LoginRateLimit:    5,
	}
}

// ChiMiddlewareConfigFrom maps the security section of the configuration.
func ChiMiddlewareConfigFrom(cfg *config.SecurityConfig) *ChiMiddlewareConfig {
	c := DefaultChiMiddlewareConfig()
	c.CORSAllowedOrigins = cfg.CORSOrigins
	if cfg.RateLimitReqs > 0 {
		c.RateLimitRequests = cfg.RateLimitReqs
	}
	if cfg.RateLimitWindow > 0 {
		c.RateLimitWindow = cfg.RateLimitWindow
	}
	if cfg.LoginRateLimit > 0 {
		c.LoginRateLimit = cfg.LoginRateLimit
	}
	c.RateLimitDisabled = cfg.RateLimitDisabled
	c.TrustedProxies = cfg.TrustedProxies
	return c
}

// ChiMiddleware provides Chi-compatible middleware factories.
type ChiMiddleware struct {
	config  *ChiMiddlewareConfig
	cors    func(http.Handler) http.Handler
	trusted *audit.TrustedProxies
}

// NewChiMiddleware creates a new Chi middleware factory with the given configuration.
func NewChiMiddleware(config *ChiMiddlewareConfig) *ChiMiddleware {
	if config == nil {
		config = DefaultChiMiddlewareConfig()
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   config.CORSAllowedOrigins,
		AllowedMethods:   config.CORSAllowedMethods,
		AllowedHeaders:   config.CORSAllowedHeaders,
		ExposedHeaders:   config.CORSExposedHeaders,
		AllowCredentials: config.CORSAllowCredentials,
		MaxAge:           config.CORSMaxAge,
	})

	trusted, err := audit.ParseTrustedProxies(config.TrustedProxies)
	if err != nil {
		logging.Warn().Err(err).Msg("Ignoring invalid trusted proxy entries")
	}

	return &ChiMiddleware{
		config:  config,
		cors:    corsHandler,
		trusted: trusted,
	}
}

// Config returns the configuration the factory was built with.
func (m *ChiMiddleware) Config() *ChiMiddlewareConfig {
	return m.config
}

// ClientInfo resolves the client address, honouring forwarding headers only
// from trusted proxies, and attaches it for audit records.
func (m *ChiMiddleware) ClientInfo() func(http.Handler) http.Handler {
	return chiMiddleware(middleware.ClientInfo(m.trusted))
}

// CORS returns the go-chi/cors middleware.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

func passthrough(next http.Handler) http.Handler {
	return next
}

// RateLimit limits API requests per client address.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return passthrough
	}
	keyFunc := m.config.RateLimitKeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}
	return httprate.Limit(
		m.config.RateLimitRequests,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(rateLimited),
	)
}

// RateLimitLogin is the strict brute-force limiter for the login endpoint.
// It stays on even when general rate limiting is disabled.
func (m *ChiMiddleware) RateLimitLogin() func(http.Handler) http.Handler {
	return httprate.Limit(
		m.config.LoginRateLimit,
		LoginRateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rateLimited),
	)
}

func rateLimited(w http.ResponseWriter, r *http.Request) {
	logging.Ctx(r.Context()).Warn().
		Str("path", r.URL.Path).
		Str("remote_addr", sanitizeLogValue(r.RemoteAddr)).
		Msg("Rate limit exceeded")
	respondError(w, r, http.StatusTooManyRequests, ErrCodeRateLimited, "Too many requests", nil)
}
