// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

// Package models holds the HTTP wire types shared by the API handlers.
package models

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fsrf-audit/internal/audit"
)

// APIResponse wraps every JSON response.
//
//	{
//	  "status": "success",
//	  "data": {...},
//	  "metadata": {"timestamp": "2026-01-15T10:00:00Z", "query_time_ms": 3}
//	}
//
// On failure Status is "error", Data is null and Error is set.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata accompanies every response.
type Metadata struct {
	Timestamp   time.Time       `json:"timestamp"`
	RequestID   string          `json:"request_id,omitempty"`
	QueryTimeMS int64           `json:"query_time_ms,omitempty"`
	Pagination  *audit.PageInfo `json:"pagination,omitempty"`
}

// APIError describes a failed request. Code is machine readable:
// VALIDATION_ERROR, UNAUTHORIZED, FORBIDDEN, NOT_FOUND, CONFIRMATION_REQUIRED,
// RATE_LIMIT_EXCEEDED, STORAGE_ERROR or INTERNAL_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// LogEventRequest is the body of POST /api/v1/audit/events. The acting
// user and client address come from the authenticated request, not the body.
//
// Vocabulary is not checked here; the recorder accepts any value unless
// strict vocabulary is configured. Metadata is any JSON value and is stored
// byte for byte.
type LogEventRequest struct {
	Action       string          `json:"action" validate:"required,max=64"`
	ResourceType string          `json:"resource_type" validate:"required,max=64"`
	ResourceID   string          `json:"resource_id,omitempty" validate:"max=256"`
	Details      string          `json:"details" validate:"max=4096"`
	Severity     string          `json:"severity,omitempty" validate:"max=32"`
	Status       string          `json:"status,omitempty" validate:"max=32"`
	Metadata     json.RawMessage `json:"metadata,omitempty" swaggertype:"object"`
}

// ListEventsRequest is built from GET /api/v1/audit/events query parameters.
type ListEventsRequest struct {
	UserID       string `json:"user_id" validate:"max=256"`
	Action       string `json:"action" validate:"max=64"`
	ResourceType string `json:"resource_type" validate:"max=64"`
	Severity     string `json:"severity" validate:"max=32"`
	Status       string `json:"status" validate:"max=32"`
	DateFrom     string `json:"date_from" validate:"max=64"`
	DateTo       string `json:"date_to" validate:"max=64"`
	Search       string `json:"search" validate:"max=256"`
	Page         int    `json:"page" validate:"min=1"`
	PerPage      int    `json:"per_page" validate:"min=1,max=500"`
}

// Filter converts the request to an audit.Filter.
func (r *ListEventsRequest) Filter() audit.Filter {
	return audit.Filter{
		UserID:       r.UserID,
		Action:       r.Action,
		ResourceType: audit.ResourceType(r.ResourceType),
		Severity:     audit.Severity(r.Severity),
		Status:       audit.Status(r.Status),
		DateFrom:     r.DateFrom,
		DateTo:       r.DateTo,
		SearchTerm:   r.Search,
	}
}

// ExportRequest is built from GET /api/v1/audit/export query parameters.
type ExportRequest struct {
	Format string `json:"format" validate:"omitempty,oneof=json cef"`
}

// LoginRequest is the body of POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=256"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
}

// EventList is the data payload of a paginated event listing.
type EventList struct {
	Events []audit.Event `json:"events"`
}

// HealthStatus is returned by the health endpoints.
type HealthStatus struct {
	Status        string            `json:"status"`
	Version       string            `json:"version,omitempty"`
	Uptime        string            `json:"uptime,omitempty"`
	StorageDriver string            `json:"storage_driver,omitempty"`
	Checks        map[string]string `json:"checks,omitempty"`
}
