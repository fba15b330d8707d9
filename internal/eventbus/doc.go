// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

// Package eventbus forwards recorded audit events to NATS so SIEM
// collectors and other services can consume them.
//
// Publisher implements audit.Sink. Deliver only enqueues; a supervised
// Serve loop publishes through Watermill's NATS publisher behind a
// circuit breaker. When the queue is full or the breaker is open the
// event is dropped from the bus and counted. The stored audit record is
// never affected.
//
// Events are published to "<subject>.<resource_type>", e.g.
// fsrf.audit.events.auth, with the JSON-encoded event as payload and
// action, severity and status in message metadata.
package eventbus
