// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package authz

import (
	"net/http"

	"github.com/tomtom215/fsrf-audit/internal/auth"
	"github.com/tomtom215/fsrf-audit/internal/logging"
	"github.com/tomtom215/fsrf-audit/internal/metrics"
)

// DenyFunc observes a denied request. claims is nil when the request
// carried no authentication context.
type DenyFunc func(r *http.Request, claims *auth.Claims, object, action string)

// Middleware enforces permissions on handlers.
type Middleware struct {
	enforcer *Enforcer
	onDeny   DenyFunc
}

// NewMiddleware returns authorization middleware backed by enforcer.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer}
}

// OnDeny registers fn to observe denials.
func (m *Middleware) OnDeny(fn DenyFunc) {
	m.onDeny = fn
}

// Require wraps next so it runs only when the caller's role holds
// object:action. It must run after auth.Middleware.Authenticate.
func (m *Middleware) Require(object, action string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			m.deny(w, r, nil, object, action, "Forbidden: no authentication context")
			return
		}

		allowed, err := m.enforcer.EnforceRole(claims.Role, object, action)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Authorization error")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if !allowed {
			m.deny(w, r, claims, object, action, "Forbidden: insufficient permissions")
			return
		}

		next(w, r)
	}
}

func (m *Middleware) deny(w http.ResponseWriter, r *http.Request, claims *auth.Claims, object, action, message string) {
	metrics.AuthorizationDenied.WithLabelValues(object, action).Inc()

	ev := logging.Ctx(r.Context()).Warn().
		Str("object", object).
		Str("action", action).
		Str("path", r.URL.Path)
	if claims != nil {
		ev = ev.Str("user_id", claims.UserID).Str("role", claims.Role)
	}
	ev.Msg("Authorization denied")

	if m.onDeny != nil {
		m.onDeny(r, claims, object, action)
	}
	http.Error(w, message, http.StatusForbidden)
}
