// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/tomtom215/fsrf-audit/docs" // registers the OpenAPI description
	"github.com/tomtom215/fsrf-audit/internal/api"
	"github.com/tomtom215/fsrf-audit/internal/audit"
	"github.com/tomtom215/fsrf-audit/internal/auth"
	"github.com/tomtom215/fsrf-audit/internal/authz"
	"github.com/tomtom215/fsrf-audit/internal/blobstore"
	"github.com/tomtom215/fsrf-audit/internal/config"
	"github.com/tomtom215/fsrf-audit/internal/eventbus"
	"github.com/tomtom215/fsrf-audit/internal/logging"
	"github.com/tomtom215/fsrf-audit/internal/supervisor"
	"github.com/tomtom215/fsrf-audit/internal/supervisor/services"
	ws "github.com/tomtom215/fsrf-audit/internal/websocket"
)

//nolint:gocyclo // Sequential start-up
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: os.Stderr,
	})
	logging.Info().
		Str("version", api.Version).
		Str("environment", cfg.Server.Environment).
		Msg("Starting FSRF Audit")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === STORAGE ===
	store, err := blobstore.Open(ctx, cfg.BlobStore())
	if err != nil {
		logging.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to open audit storage")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing audit storage")
		}
	}()
	logging.Info().Str("driver", store.Driver()).Str("key", cfg.Storage.Key).Msg("Audit storage opened")

	recorder := audit.NewRecorder(store, cfg.Recorder())

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// === SINKS ===
	var hub *ws.Hub
	if cfg.Audit.LiveFeed {
		hub = ws.NewHub()
		recorder.AddSink(hub)
		tree.AddMessagingService(hub)
		logging.Info().Msg("Live audit feed enabled")
	}

	if cfg.EventBus.Enabled {
		publisher, err := eventbus.NewPublisher(eventbus.ConfigFrom(&cfg.EventBus), logging.NewWatermillAdapter())
		if err != nil {
			logging.Fatal().Err(err).Str("url", cfg.EventBus.URL).Msg("Failed to create event publisher")
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing event publisher")
			}
		}()
		recorder.AddSink(publisher)
		tree.AddMessagingService(publisher)
		logging.Info().
			Str("url", cfg.EventBus.URL).
			Str("subject", cfg.EventBus.Subject).
			Msg("NATS event publishing enabled")
	} else {
		logging.Info().Msg("NATS event publishing disabled (NATS_ENABLED=false)")
	}

	// === AUTHENTICATION ===
	var jwtManager *auth.JWTManager
	if cfg.Security.AuthMode == auth.AuthModeNone {
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("  Every request acts as an administrator.")
		logging.Warn().Msg("  NEVER use AUTH_MODE=none outside local development!")
		logging.Warn().Msg("============================================================")
	} else {
		jwtManager, err = auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
	}

	credentials, err := auth.NewCredentialStoreFromConfig(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load user accounts")
	}
	logging.Info().Int("users", credentials.Len()).Str("mode", cfg.Security.AuthMode).Msg("Authentication configured")

	// === AUTHORIZATION ===
	enforcer, err := authz.NewEnforcer(authz.EnforcerConfigFrom(&cfg.Security.Casbin))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization")
	}
	defer enforcer.Close()

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	for _, origin := range cfg.Security.CORSOrigins {
		if origin == "*" {
			logging.Warn().Msg("CORS allows any origin (CORS_ORIGINS=*); set explicit origins in production")
			break
		}
	}

	// === HTTP ===
	handler := api.NewHandler(api.Deps{
		Recorder:      recorder,
		Store:         store,
		StorageDriver: store.Driver(),
		Config:        cfg,
		JWTManager:    jwtManager,
		Credentials:   credentials,
		Hub:           hub,
	})
	router := api.NewRouter(
		handler,
		api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(&cfg.Security)),
		auth.NewMiddleware(jwtManager, cfg.Security.AuthMode),
		authz.NewMiddleware(enforcer),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === RUN ===
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}
