// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

// Package auth authenticates portal staff for the audit API.
//
// Credentials are bcrypt hashes held in a CredentialStore built from
// configuration. A successful login yields an HS256 JWT from JWTManager;
// Middleware.Authenticate validates the bearer token (or the "token"
// cookie) on each request and places the Claims in the request context.
//
// With auth_mode "none" every request runs as a development identity
// holding the admin role. Configuration validation forbids this in
// production.
package auth
