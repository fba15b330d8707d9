// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/fsrf-audit/internal/blobstore"
	"github.com/tomtom215/fsrf-audit/internal/models"
)

// readinessTimeout bounds the storage probe.
const readinessTimeout = 2 * time.Second

// HealthLive handles liveness probes. It never touches storage.
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.HealthStatus}
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, models.HealthStatus{
		Status:  "alive",
		Version: Version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	}, newMetadata(r, time.Time{}))
}

// HealthReady handles readiness probes. It returns 503 when the blob store
// cannot be read. A store with no environment (nop) is reported as
// "unavailable" but still ready, because the recorder treats it as a no-op.
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.HealthStatus}
// @Failure 503 {object} models.APIResponse{data=models.HealthStatus}
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"storage": h.probeStorage(r.Context())}
	if h.wsHub != nil {
		checks["live_feed"] = "ok"
	}

	status, code := "ready", http.StatusOK
	if checks["storage"] == "error" {
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	respondSuccess(w, code, models.HealthStatus{
		Status:        status,
		Version:       Version,
		Uptime:        time.Since(h.startTime).Round(time.Second).String(),
		StorageDriver: h.storageDriver,
		Checks:        checks,
	}, newMetadata(r, time.Time{}))
}

func (h *Handler) probeStorage(ctx context.Context) string {
	if h.store == nil {
		return "unavailable"
	}
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	_, err := h.store.Read(ctx)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, blobstore.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
