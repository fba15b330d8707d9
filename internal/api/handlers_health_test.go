// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	_ "github.com/tomtom215/fsrf-audit/docs"
	"github.com/tomtom215/fsrf-audit/internal/blobstore"
	"github.com/tomtom215/fsrf-audit/internal/models"
)

// brokenStore fails every operation.
type brokenStore struct{}

var errDiskGone = errors.New("disk gone")

func (brokenStore) Read(context.Context) ([]byte, error)               { return nil, errDiskGone }
func (brokenStore) Update(context.Context, blobstore.UpdateFunc) error { return errDiskGone }
func (brokenStore) Delete(context.Context) error                       { return errDiskGone }
func (brokenStore) Close() error                                       { return nil }

func TestHealthLive(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/health/live", "", nil)
	assertStatus(t, rec, http.StatusOK)

	var status models.HealthStatus
	decodeData(t, rec, &status)
	if status.Status != "alive" {
		t.Errorf("status = %q", status.Status)
	}
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name        string
		store       blobstore.Store
		wantCode    int
		wantStorage string
	}{
		{"memory", blobstore.NewMemoryStore(), http.StatusOK, "ok"},
		{"nop", blobstore.NopStore{}, http.StatusOK, "unavailable"},
		{"broken", brokenStore{}, http.StatusServiceUnavailable, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, withStore(tt.store))
			rec := env.do(t, http.MethodGet, "/api/v1/health/ready", "", nil)
			assertStatus(t, rec, tt.wantCode)

			var status models.HealthStatus
			decodeData(t, rec, &status)
			if status.Checks["storage"] != tt.wantStorage {
				t.Errorf("storage check = %q, want %q", status.Checks["storage"], tt.wantStorage)
			}
		})
	}
}

func TestWriteFailureSurfacesAsStorageError(t *testing.T) {
	env := newTestEnv(t, withStore(brokenStore{}))
	rec := env.do(t, http.MethodPost, "/api/v1/audit/events", "editor", map[string]string{
		"action": "document_create", "resource_type": "document",
	})
	assertStatus(t, rec, http.StatusInternalServerError)
	assertErrorCode(t, rec, ErrCodeStorage)
}

func TestNopStoreAcceptsWithoutStoring(t *testing.T) {
	env := newTestEnv(t, withStore(blobstore.NopStore{}))
	rec := env.do(t, http.MethodPost, "/api/v1/audit/events", "editor", map[string]string{
		"action": "document_create", "resource_type": "document",
	})
	assertStatus(t, rec, http.StatusAccepted)

	rec = env.do(t, http.MethodGet, "/api/v1/audit/events?action=document", "viewer", nil)
	assertStatus(t, rec, http.StatusOK)
	var list models.EventList
	decodeData(t, rec, &list)
	if len(list.Events) != 0 {
		t.Errorf("nop store listed %d events", len(list.Events))
	}
}

func TestSwaggerDoc(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/swagger/doc.json", "", nil)
	assertStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"title": "FSRF Audit API"`) {
		t.Errorf("doc.json body = %.200s", rec.Body.String())
	}
}
