// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

/*
Package main is the entry point for the FSRF Audit server.

The server records security-relevant actions taken in the regulatory portal
(logins, report submissions, configuration changes, denied access) into a
bounded, newest-first audit collection, and serves it to administrators over
a REST API with filtering, statistics, export and a live WebSocket feed.

# Application Architecture

	RootSupervisor ("fsrf-audit")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket hub           (AUDIT_LIVE_FEED=true)
	│   └── NATS event publisher    (NATS_ENABLED=true)
	└── APISupervisor ("api-layer")
	    └── HTTP server

Start-up order:

 1. Configuration (koanf: defaults, config.yaml, environment)
 2. Logging (zerolog)
 3. Blob store (STORAGE_DRIVER: memory, file, badger, duckdb, postgres, redis, nop)
 4. Recorder, plus its sinks (hub, publisher)
 5. Authentication (JWT) and authorization (Casbin)
 6. HTTP router and server

The Swagger UI for the REST API is served at /swagger/index.html.

# Configuration

Common environment variables:

	HTTP_PORT=8080
	STORAGE_DRIVER=badger
	STORAGE_PATH=/data/audit
	JWT_SECRET=$(openssl rand -base64 32)
	ADMIN_EMAIL=admin@example.org
	ADMIN_PASSWORD_HASH='$2a$12$...'
	AUTH_MODE=none            # development only, refused in production
	TRUSTED_PROXIES=10.0.0.0/8  # peers whose X-Forwarded-For is honoured
	NATS_ENABLED=true
	NATS_URL=nats://nats:4222

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops the HTTP
server (draining in-flight requests up to SHUTDOWN_TIMEOUT), closes WebSocket
clients and drains the publisher queue. The blob store closes last.
*/
package main
