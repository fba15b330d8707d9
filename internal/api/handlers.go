// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/fsrf-audit/internal/audit"
	"github.com/tomtom215/fsrf-audit/internal/auth"
	"github.com/tomtom215/fsrf-audit/internal/blobstore"
	"github.com/tomtom215/fsrf-audit/internal/config"
	"github.com/tomtom215/fsrf-audit/internal/logging"
	ws "github.com/tomtom215/fsrf-audit/internal/websocket"
)

// Version is reported by the health endpoints. Set at build time.
var Version = "dev"

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_audit.go: audit log endpoints
//   - handlers_auth.go: login, logout and the security event hooks
//   - handlers_health.go: liveness and readiness
type Handler struct {
	recorder      *audit.Recorder
	store         blobstore.Store
	storageDriver string
	config        *config.Config
	jwtManager    *auth.JWTManager
	credentials   *auth.CredentialStore
	wsHub         *ws.Hub
	startTime     time.Time
	now           func() time.Time
}

// Deps groups the Handler's collaborators. Recorder and Config are
// required; the rest may be nil when the feature is off.
type Deps struct {
	Recorder      *audit.Recorder
	Store         blobstore.Store
	StorageDriver string
	Config        *config.Config
	JWTManager    *auth.JWTManager
	Credentials   *auth.CredentialStore
	Hub           *ws.Hub
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		recorder:      d.Recorder,
		store:         d.Store,
		storageDriver: d.StorageDriver,
		config:        d.Config,
		jwtManager:    d.JWTManager,
		credentials:   d.Credentials,
		wsHub:         d.Hub,
		startTime:     time.Now(),
		now:           time.Now,
	}
}

// record writes an event produced by the API itself. A failure is logged
// and never fails the request that triggered it.
func (h *Handler) record(r *http.Request, in audit.LogInput) {
	if _, err := h.recorder.Log(r.Context(), in); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("action", string(in.Action)).Msg("failed to record audit event")
	}
}

// actor returns the authenticated user, or "unknown" for both fields.
func actor(r *http.Request) (userID, email string) {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		return claims.UserID, claims.Email
	}
	return audit.UnknownActor, audit.UnknownActor
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  4096,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Browsers always send Origin; an empty one would bypass CORS.
	if origin == "" {
		logging.Ctx(r.Context()).Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	if h.config == nil {
		return true
	}
	for _, allowedOrigin := range h.config.Security.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}

	logging.Ctx(r.Context()).Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
