// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/fsrf-audit/internal/audit"
	"github.com/tomtom215/fsrf-audit/internal/logging"
	"github.com/tomtom215/fsrf-audit/internal/models"
	ws "github.com/tomtom215/fsrf-audit/internal/websocket"
)

// LogEvent handles POST /api/v1/audit/events. The actor and client address
// come from the request, never from the body.
// @Summary Record an audit event
// @Tags Audit
// @Accept json
// @Produce json
// @Param request body models.LogEventRequest true "Event"
// @Success 201 {object} models.APIResponse{data=audit.Event}
// @Failure 400 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Security BearerAuth
// @Router /audit/events [post]
func (h *Handler) LogEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.LogEventRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "Invalid request body", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	userID, email := actor(r)
	in := audit.LogInput{
		UserID:       userID,
		UserEmail:    email,
		Action:       audit.Action(req.Action),
		ResourceType: audit.ResourceType(req.ResourceType),
		ResourceID:   req.ResourceID,
		Details:      req.Details,
		Severity:     audit.Severity(req.Severity),
		Status:       audit.Status(req.Status),
	}
	if len(req.Metadata) > 0 {
		in.Metadata = req.Metadata
	}

	ev, err := h.recorder.Log(r.Context(), in)
	switch {
	case errors.Is(err, audit.ErrInvalidInput):
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, ErrCodeStorage, "Failed to record audit event", err)
		return
	case ev == nil:
		// No storage environment: the call succeeded but nothing was kept.
		respondSuccess(w, http.StatusAccepted, nil, newMetadata(r, start))
		return
	}

	respondSuccess(w, http.StatusCreated, ev, newMetadata(r, start))
}

// listRequestFromQuery reads filter and paging parameters.
func listRequestFromQuery(r *http.Request) models.ListEventsRequest {
	q := r.URL.Query()
	return models.ListEventsRequest{
		UserID:       q.Get("user_id"),
		Action:       q.Get("action"),
		ResourceType: q.Get("resource_type"),
		Severity:     q.Get("severity"),
		Status:       q.Get("status"),
		DateFrom:     q.Get("date_from"),
		DateTo:       q.Get("date_to"),
		Search:       q.Get("search"),
		Page:         getIntParam(r, "page", 1),
		PerPage:      getIntParam(r, "per_page", audit.DefaultPageSize),
	}
}

// ListEvents handles GET /api/v1/audit/events.
//
// Date bounds that do not parse are ignored rather than rejected. Viewing
// the unfiltered first page records admin_access; a search records
// search_performed with the term and result count.
// @Summary List audit events
// @Tags Audit
// @Produce json
// @Param user_id query string false "Actor ID"
// @Param action query string false "Action"
// @Param resource_type query string false "Resource type"
// @Param severity query string false "Severity"
// @Param status query string false "Status"
// @Param date_from query string false "Inclusive lower bound (RFC 3339 or YYYY-MM-DD)"
// @Param date_to query string false "Inclusive upper bound (RFC 3339 or YYYY-MM-DD)"
// @Param search query string false "Case-insensitive search term"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Page size" default(50)
// @Success 200 {object} models.APIResponse{data=models.EventList}
// @Failure 400 {object} models.APIResponse
// @Security BearerAuth
// @Router /audit/events [get]
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := listRequestFromQuery(r)
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}
	for _, bound := range []string{req.DateFrom, req.DateTo} {
		if !audit.ValidDateBound(bound) {
			logging.Ctx(r.Context()).Debug().Str("bound", sanitizeLogValue(bound)).Msg("ignoring unparseable date bound")
		}
	}

	filter := req.Filter()
	events, err := h.recorder.Filtered(r.Context(), filter)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeStorage, "Failed to read audit log", err)
		return
	}
	page, info := audit.Paginate(events, req.Page, req.PerPage)

	userID, email := actor(r)
	if filter.IsZero() && req.Page == 1 {
		h.record(r, audit.LogInput{
			UserID:       userID,
			UserEmail:    email,
			Action:       audit.ActionAdminAccess,
			ResourceType: audit.ResourceSystem,
			Details:      "Viewed audit log",
			Severity:     audit.SeverityLow,
		})
	}
	if req.Search != "" {
		h.record(r, audit.LogInput{
			UserID:       userID,
			UserEmail:    email,
			Action:       audit.ActionSearchPerformed,
			ResourceType: audit.ResourceSystem,
			Details:      fmt.Sprintf("Searched audit log for %q", req.Search),
			Severity:     audit.SeverityLow,
			Metadata:     map[string]interface{}{"query": req.Search, "results": info.Total},
		})
	}

	meta := newMetadata(r, start)
	meta.Pagination = &info
	respondSuccess(w, http.StatusOK, models.EventList{Events: page}, meta)
}

// GetEvent handles GET /api/v1/audit/events/{id}.
// @Summary Get an audit event
// @Tags Audit
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} models.APIResponse{data=audit.Event}
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /audit/events/{id} [get]
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")

	ev, err := h.recorder.Get(r.Context(), id)
	if errors.Is(err, audit.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Audit event not found", nil)
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeStorage, "Failed to read audit log", err)
		return
	}
	respondSuccess(w, http.StatusOK, ev, newMetadata(r, start))
}

// Stats handles GET /api/v1/audit/stats.
// @Summary Audit statistics
// @Tags Audit
// @Produce json
// @Success 200 {object} models.APIResponse{data=audit.Statistics}
// @Security BearerAuth
// @Router /audit/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	stats, err := h.recorder.Statistics(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeStorage, "Failed to compute statistics", err)
		return
	}
	respondSuccess(w, http.StatusOK, stats, newMetadata(r, start))
}

// Export handles GET /api/v1/audit/export?format=json|cef as a download.
// @Summary Export the audit log
// @Tags Audit
// @Produce json,plain
// @Param format query string false "Export format" Enums(json, cef)
// @Success 200 {file} file
// @Failure 400 {object} models.APIResponse
// @Security BearerAuth
// @Router /audit/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	req := models.ExportRequest{Format: r.URL.Query().Get("format")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	var (
		body        []byte
		contentType string
		ext         string
	)
	switch req.Format {
	case "cef":
		var buf bytes.Buffer
		if err := h.recorder.ExportCEF(r.Context(), &buf); err != nil {
			respondError(w, r, http.StatusInternalServerError, ErrCodeStorage, "Failed to export audit log", err)
			return
		}
		body, contentType, ext = buf.Bytes(), "text/plain; charset=utf-8", "cef"
	default:
		data, err := h.recorder.Export(r.Context())
		if err != nil {
			respondError(w, r, http.StatusInternalServerError, ErrCodeStorage, "Failed to export audit log", err)
			return
		}
		body, contentType, ext = data, "application/json", "json"
	}

	filename := audit.ExportFilename(h.now(), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to write export")
	}
}

// ClearEvents handles DELETE /api/v1/audit/events?confirm=true.
//
// Clearing is total: no event describing the clear is written, so the
// collection is empty afterwards.
// @Summary Clear the audit log
// @Tags Audit
// @Produce json
// @Param confirm query bool true "Must be true"
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Security BearerAuth
// @Router /audit/events [delete]
func (h *Handler) ClearEvents(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		respondError(w, r, http.StatusBadRequest, ErrCodeConfirmationRequired,
			"Clearing the audit log is irreversible; repeat the request with confirm=true", nil)
		return
	}

	if err := h.recorder.Clear(r.Context()); err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeStorage, "Failed to clear audit log", err)
		return
	}

	userID, _ := actor(r)
	logging.Ctx(r.Context()).Warn().Str("user_id", userID).Msg("audit log cleared via API")
	if h.wsHub != nil {
		h.wsHub.BroadcastCleared()
	}
	respondSuccess(w, http.StatusOK, map[string]bool{"cleared": true}, newMetadata(r, time.Time{}))
}

// Actions handles GET /api/v1/audit/actions.
// @Summary List known actions
// @Tags Vocabulary
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]string}
// @Security BearerAuth
// @Router /audit/actions [get]
func (h *Handler) Actions(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, audit.Actions(), newMetadata(r, time.Time{}))
}

// ResourceTypes handles GET /api/v1/audit/resource-types.
// @Summary List known resource types
// @Tags Vocabulary
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]string}
// @Security BearerAuth
// @Router /audit/resource-types [get]
func (h *Handler) ResourceTypes(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, audit.ResourceTypes(), newMetadata(r, time.Time{}))
}

// Severities handles GET /api/v1/audit/severities.
// @Summary List severities
// @Tags Vocabulary
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]string}
// @Security BearerAuth
// @Router /audit/severities [get]
func (h *Handler) Severities(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, audit.Severities(), newMetadata(r, time.Time{}))
}

// Statuses handles GET /api/v1/audit/statuses.
// @Summary List statuses
// @Tags Vocabulary
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]string}
// @Security BearerAuth
// @Router /audit/statuses [get]
func (h *Handler) Statuses(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, audit.Statuses(), newMetadata(r, time.Time{}))
}

// Stream handles GET /api/v1/audit/stream, upgrading to a WebSocket that
// receives newly stored events matching the query's filter parameters.
// @Summary Live event feed (WebSocket)
// @Tags Audit
// @Success 101
// @Failure 503 {object} models.APIResponse
// @Security BearerAuth
// @Router /audit/stream [get]
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Live feed disabled", nil)
		return
	}

	req := listRequestFromQuery(r)
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(h.wsHub, conn, req.Filter())
	h.wsHub.Register <- client
	client.Start()
}
