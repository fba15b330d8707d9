// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/fsrf-audit/internal/logging"
)

type contextKey string

// ClaimsContextKey stores *Claims in a request context.
const ClaimsContextKey contextKey = "claims"

// Auth modes.
const (
	AuthModeJWT  = "jwt"
	AuthModeNone = "none"
)

// ErrMissingToken is the rejection reason when a request carries no
// credentials at all.
var ErrMissingToken = errors.New("missing token")

// DevClaims identify requests when authentication is disabled.
var DevClaims = Claims{UserID: "dev", Email: "dev@localhost", Role: RoleAdmin}

// RejectFunc observes requests that failed authentication.
type RejectFunc func(r *http.Request, reason string)

// Middleware authenticates API requests.
type Middleware struct {
	jwtManager *JWTManager
	authMode   string
	onReject   RejectFunc
}

// NewMiddleware returns authentication middleware. jwtManager may be nil
// only when authMode is "none".
func NewMiddleware(jwtManager *JWTManager, authMode string) *Middleware {
	return &Middleware{jwtManager: jwtManager, authMode: authMode}
}

// OnReject registers fn to observe rejected requests.
func (m *Middleware) OnReject(fn RejectFunc) {
	m.onReject = fn
}

// AuthMode returns the configured mode.
func (m *Middleware) AuthMode() string {
	return m.authMode
}

// Authenticate requires a valid token and stores its claims in the context.
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.authMode == AuthModeNone {
			claims := DevClaims
			next(w, r.WithContext(ContextWithClaims(r.Context(), &claims)))
			return
		}

		token, err := extractToken(r)
		if err != nil {
			m.reject(w, r, err.Error())
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Token validation failed")
			m.reject(w, r, "invalid token")
			return
		}

		next(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	}
}

func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, reason string) {
	if m.onReject != nil {
		m.onReject(r, reason)
	}
	w.Header().Set("WWW-Authenticate", `Bearer realm="fsrf-audit"`)
	http.Error(w, "Unauthorized: "+reason, http.StatusUnauthorized)
}

// extractToken reads the bearer token from the Authorization header, or
// the "token" cookie when the header is absent.
func extractToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		cookie, err := r.Cookie("token")
		if err != nil || cookie.Value == "" {
			return "", ErrMissingToken
		}
		return cookie.Value, nil
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("invalid authorization header")
	}
	return strings.TrimSpace(token), nil
}

// ContextWithClaims returns ctx carrying claims.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

// ClaimsFromContext returns the authenticated claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok && claims != nil
}
