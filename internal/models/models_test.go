// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package models

import (
	"testing"

	"github.com/tomtom215/fsrf-audit/internal/audit"
	"github.com/tomtom215/fsrf-audit/internal/validation"
)

func TestListEventsRequest_Filter(t *testing.T) {
	req := ListEventsRequest{
		UserID:       "u-1",
		Action:       "login",
		ResourceType: "auth",
		Severity:     "high",
		Status:       "failure",
		DateFrom:     "2025-01-01",
		DateTo:       "2025-01-31",
		Search:       "Portal",
	}
	want := audit.Filter{
		UserID:       "u-1",
		Action:       "login",
		ResourceType: audit.ResourceAuth,
		Severity:     audit.SeverityHigh,
		Status:       audit.StatusFailure,
		DateFrom:     "2025-01-01",
		DateTo:       "2025-01-31",
		SearchTerm:   "Portal",
	}
	if got := req.Filter(); got != want {
		t.Errorf("Filter() = %+v, want %+v", got, want)
	}

	empty := ListEventsRequest{Page: 1, PerPage: 50}
	if !empty.Filter().IsZero() {
		t.Error("empty request should produce a zero filter")
	}
}

func TestRequestValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   interface{}
		valid bool
	}{
		{"log minimal", &LogEventRequest{Action: "document_view", ResourceType: "document"}, true},
		{"log custom action", &LogEventRequest{Action: "custom_thing", ResourceType: "system"}, true},
		{"log bad resource", &LogEventRequest{Action: "x", ResourceType: "invoice"}, false},
		{"log bad severity", &LogEventRequest{Action: "x", ResourceType: "user", Severity: "urgent"}, false},
		{"list defaults", &ListEventsRequest{Page: 1, PerPage: 50}, true},
		{"list per page too large", &ListEventsRequest{Page: 1, PerPage: 501}, false},
		{"list malformed date accepted", &ListEventsRequest{Page: 1, PerPage: 50, DateFrom: "not-a-date"}, true},
		{"export cef", &ExportRequest{Format: "cef"}, true},
		{"export xml", &ExportRequest{Format: "xml"}, false},
		{"login ok", &LoginRequest{Email: "a@example.com", Password: "pw"}, true},
		{"login bad email", &LoginRequest{Email: "a", Password: "pw"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.ValidateStruct(tt.req)
			if tt.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
