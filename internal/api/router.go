// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/fsrf-audit/internal/auth"
	"github.com/tomtom215/fsrf-audit/internal/authz"
	"github.com/tomtom215/fsrf-audit/internal/middleware"
)

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Router wires handlers to routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	authn         *auth.Middleware
	authz         *authz.Middleware
}

// NewRouter creates a router and connects the authentication and
// authorization hooks to the handler's audit recording.
func NewRouter(handler *Handler, chiMw *ChiMiddleware, authn *auth.Middleware, authzMw *authz.Middleware) *Router {
	authn.OnReject(handler.RecordRejected)
	authzMw.OnDeny(handler.RecordDenied)
	return &Router{
		handler:       handler,
		chiMiddleware: chiMw,
		authn:         authn,
		authz:         authzMw,
	}
}

// require composes authentication and an object:action permission check.
func (router *Router) require(action string, h http.HandlerFunc) http.HandlerFunc {
	return router.authn.Authenticate(router.authz.Require(authz.ObjectAudit, action, h))
}

// Setup builds the chi route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()
	h := router.handler

	// Applied to all routes, in order.
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(router.chiMiddleware.ClientInfo()) // before rate limits, which key on RemoteAddr
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(chiMiddleware(middleware.AccessLog))
	r.Use(chiMiddleware(middleware.PrometheusMetrics))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(router.chiMiddleware.RateLimitLogin()).Post("/login", h.Login)
		r.Post("/logout", router.authn.Authenticate(h.Logout))
	})

	r.Route("/api/v1/audit", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())

		r.Post("/events", router.require(authz.ActionWrite, h.LogEvent))
		r.Get("/events", router.require(authz.ActionRead, h.ListEvents))
		r.Delete("/events", router.require(authz.ActionDelete, h.ClearEvents))
		r.Get("/events/{id}", router.require(authz.ActionRead, h.GetEvent))
		r.Get("/stats", router.require(authz.ActionRead, h.Stats))
		r.Get("/export", router.require(authz.ActionExport, h.Export))

		r.Get("/actions", router.require(authz.ActionRead, h.Actions))
		r.Get("/resource-types", router.require(authz.ActionRead, h.ResourceTypes))
		r.Get("/severities", router.require(authz.ActionRead, h.Severities))
		r.Get("/statuses", router.require(authz.ActionRead, h.Statuses))

		r.Get("/stream", router.require(authz.ActionRead, h.Stream))
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, ErrCodeNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	return r
}
