// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

// Package authz authorizes audit API requests with Casbin RBAC.
//
// Permissions are object/action pairs:
//
//	audit:read    list, get, statistics, vocabularies, live stream
//	audit:write   record an event
//	audit:export  JSON and CEF export
//	audit:delete  clear the collection
//
// The embedded policy grants read to viewer, write to editor, export to
// auditor and everything to admin, with admin inheriting auditor and
// editor and both inheriting viewer. A policy file replaces the embedded
// one when configured.
//
// Denials are counted in metrics and reported to the registered DenyFunc;
// the API layer uses it to record unauthorized_access audit events.
package authz
