// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

// Package services holds suture.Service adapters for components that do not
// speak suture's Serve(ctx) contract natively. The websocket hub and event
// bus publisher implement it themselves and are added to the tree directly.
package services
