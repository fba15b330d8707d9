// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package main

// General API information for swag. The handler annotations live next to
// each handler in internal/api.
//
// @title FSRF Audit API
// @version 1.0
// @description Audit trail for the FSRF regulatory portal. Events are stored newest first
// @description in a bounded collection and are never modified once written.
// @description
// @description ## Authentication
// @description
// @description Endpoints under /audit require a JWT, either as a Bearer token or in the
// @description `token` cookie set by /auth/login.
// @description
// @description ## Error Responses
// @description
// @description Errors use the same envelope as successful responses, with `status` set to
// @description "error" and an `error` object carrying `code`, `message` and optional `details`.
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/fsrf-audit/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @BasePath /api/v1
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description "Bearer " followed by the token returned from /auth/login.
//
// @tag.name Audit
// @tag.description Recording, querying, exporting and clearing audit events
//
// @tag.name Vocabulary
// @tag.description Known actions, resource types, severities and statuses
//
// @tag.name Auth
// @tag.description Session login and logout
//
// @tag.name Health
// @tag.description Liveness and readiness probes
