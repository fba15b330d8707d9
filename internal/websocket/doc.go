// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

/*
Package websocket provides the live audit feed.

The Hub is registered with the audit recorder as a sink. Every stored event
is fanned out to connected clients as an "audit_event" message. Each client
carries its own filter, taken from the query string at connect time, so a
compliance officer can watch only failed logins or only critical events.

Architecture:

	Recorder.Log -> Hub.Deliver -> broadcast channel -> Client.send -> writePump

The hub loop gives client lifecycle events priority over broadcasts so the
client set is always settled before a message is fanned out. Clients are
visited in connection order.

Each client has two goroutines:
  - readPump: reads from the socket, answers "ping" messages, tracks pongs
  - writePump: writes queued messages and sends keepalive pings

A client whose send buffer is full is dropped rather than blocking the hub.

Message Types:

  - audit_event: a newly stored audit record
  - audit_cleared: the collection was deleted
  - ping / pong: application-level keepalive

Usage:

	hub := websocket.NewHub()
	recorder.AddSink(hub)
	go hub.Serve(ctx)

	client := websocket.NewClient(hub, conn, filter)
	hub.Register <- client
	client.Start()
*/
package websocket
