// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/fsrf-audit/internal/audit"
	"github.com/tomtom215/fsrf-audit/internal/logging"
	"github.com/tomtom215/fsrf-audit/internal/metrics"
)

func TestRequestID(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated when absent", "", false},
		{"upstream kept", "edge-1234", true},
		{"too long replaced", strings.Repeat("a", 65), false},
		{"control chars replaced", "abc\ndef", false},
		{"spaces replaced", "abc def", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ctxID, corrID string
			handler := RequestID(func(_ http.ResponseWriter, r *http.Request) {
				ctxID = logging.RequestIDFromContext(r.Context())
				corrID = logging.CorrelationIDFromContext(r.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			if got == "" {
				t.Fatal("response missing X-Request-ID")
			}
			if got != ctxID {
				t.Errorf("header %q != context %q", got, ctxID)
			}
			if tt.keep && got != tt.incoming {
				t.Errorf("request id = %q, want upstream %q", got, tt.incoming)
			}
			if !tt.keep && got == tt.incoming {
				t.Errorf("malformed upstream id %q was kept", tt.incoming)
			}
			if corrID == "" {
				t.Error("correlation id not set")
			}
		})
	}
}

func TestClientInfo(t *testing.T) {
	t.Parallel()

	trusted, err := audit.ParseTrustedProxies([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		remote     string
		wantIP     string
		wantRemote string
	}{
		{name: "trusted proxy", remote: "10.0.0.1:4000", wantIP: "203.0.113.7", wantRemote: "203.0.113.7"},
		{name: "direct client", remote: "198.51.100.9:4000", wantIP: "198.51.100.9", wantRemote: "198.51.100.9:4000"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var (
				info   audit.ClientInfo
				ok     bool
				remote string
			)
			handler := ClientInfo(trusted)(func(_ http.ResponseWriter, r *http.Request) {
				info, ok = audit.ClientInfoFromContext(r.Context())
				remote = r.RemoteAddr
			})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/audit/events", nil)
			req.RemoteAddr = tt.remote
			req.Header.Set("X-Forwarded-For", "203.0.113.7")
			req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) Firefox/128.0")
			handler(httptest.NewRecorder(), req)

			if !ok {
				t.Fatal("client info missing from context")
			}
			if info.IPAddress != tt.wantIP {
				t.Errorf("IPAddress = %q, want %q", info.IPAddress, tt.wantIP)
			}
			if remote != tt.wantRemote {
				t.Errorf("RemoteAddr = %q, want %q", remote, tt.wantRemote)
			}
			if !strings.Contains(info.UserAgent, "Firefox") {
				t.Errorf("UserAgent = %q", info.UserAgent)
			}
		})
	}
}

func TestPrometheusMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler { return PrometheusMetrics(next.ServeHTTP) })
	r.Get("/api/v1/audit/events/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/audit/events/{id}", "404")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/audit/events/"+id, nil))
	}

	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Errorf("counter delta = %v, want 3", got)
	}
	if got := testutil.ToFloat64(metrics.APIActiveRequests); got != 0 {
		t.Errorf("active requests = %v, want 0 after completion", got)
	}
}

func TestStatusWriter(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	sw := newStatusWriter(rec)

	if _, err := sw.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	sw.WriteHeader(http.StatusTeapot) // ignored after body started

	if sw.status != http.StatusOK {
		t.Errorf("status = %d, want 200", sw.status)
	}
	if sw.bytes != 5 {
		t.Errorf("bytes = %d, want 5", sw.bytes)
	}
	if sw.Unwrap() != rec {
		t.Error("Unwrap should return the underlying writer")
	}
}

func TestAccessLog_PassesThrough(t *testing.T) {
	t.Parallel()
	handler := AccessLog(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	if rec.Code != http.StatusInternalServerError || rec.Body.String() != "boom" {
		t.Errorf("response = %d %q", rec.Code, rec.Body.String())
	}
}
