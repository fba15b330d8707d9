// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

// Package middleware holds net/http middleware shared by the API router:
// request IDs, client capture for audit records, Prometheus
// instrumentation and access logging.
//
// All middleware has the signature func(http.HandlerFunc) http.HandlerFunc;
// the router adapts it to chi.
package middleware
