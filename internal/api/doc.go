// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

/*
Package api exposes the audit recorder over HTTP.

Routes are registered on a go-chi/chi router under /api/v1. Every JSON
response uses the models.APIResponse envelope:

	{"status": "success", "data": {...}, "metadata": {"timestamp": "..."}}
	{"status": "error", "data": null, "metadata": {...}, "error": {"code": "NOT_FOUND", "message": "..."}}

Endpoints:

	POST   /api/v1/auth/login             public, rate limited
	POST   /api/v1/auth/logout            authenticated
	POST   /api/v1/audit/events           audit:write
	GET    /api/v1/audit/events           audit:read    filter and page
	GET    /api/v1/audit/events/{id}      audit:read
	DELETE /api/v1/audit/events           audit:delete  requires ?confirm=true
	GET    /api/v1/audit/stats            audit:read
	GET    /api/v1/audit/export           audit:export  format=json|cef
	GET    /api/v1/audit/actions          audit:read
	GET    /api/v1/audit/resource-types   audit:read
	GET    /api/v1/audit/severities       audit:read
	GET    /api/v1/audit/statuses         audit:read
	GET    /api/v1/audit/stream           audit:read    WebSocket live feed
	GET    /api/v1/health/live, /ready    public
	GET    /metrics                       public
	GET    /swagger/*                     public        Swagger UI and doc.json

Authentication failures and authorization denials are themselves recorded
as unauthorized_access events, and logins and logouts as user_login,
login_failed and user_logout.

ClientInfo trusts X-Forwarded-For and X-Real-IP only from peers listed in
security.trusted_proxies, and runs before the rate limiters because they
key on RemoteAddr.

Middleware order:

	RequestID -> ClientInfo -> Recoverer -> CORS -> AccessLog -> PrometheusMetrics
	    -> RateLimit -> Authenticate -> Require(object, action) -> handler
*/
package api
