// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

/*
Package supervisor runs the service's long-lived components under a suture v4
supervisor tree.

	RootSupervisor ("fsrf-audit")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── websocket.Hub          (if audit.live_feed)
	│   └── eventbus.Publisher     (if eventbus.enabled)
	└── APISupervisor ("api-layer")
	    └── services.HTTPServerService

Crashed services restart with suture's backoff. Supervisor events are logged
through sutureslog, backed by the zerolog slog adapter in internal/logging.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	err = tree.Serve(ctx)
*/
package supervisor
