// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

// Package metrics holds the Prometheus collectors for the audit service.
// Collectors are registered with the default registry at init and served
// on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Audit recorder
	AuditEventsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_events_recorded_total",
			Help: "Total number of audit events written",
		},
		[]string{"action", "severity", "status"},
	)

	AuditEventsTrimmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_events_trimmed_total",
			Help: "Audit events discarded by the retention cap",
		},
	)

	AuditWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_write_errors_total",
			Help: "Audit writes that failed in the storage layer",
		},
	)

	AuditCorruptReads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_corrupt_reads_total",
			Help: "Reads of a stored collection that could not be decoded",
		},
	)

	AuditStoredEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audit_stored_events",
			Help: "Number of events in the collection after the last write",
		},
	)

	// Blob storage
	BlobOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audit_blob_operation_duration_seconds",
			Help:    "Duration of blob store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"driver", "operation"},
	)

	BlobOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_blob_operation_errors_total",
			Help: "Total number of failed blob store operations",
		},
		[]string{"driver", "operation"},
	)

	BlobSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audit_blob_size_bytes",
			Help: "Size of the serialized audit collection after the last write",
		},
	)

	// HTTP API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of in-flight API requests",
		},
	)

	AuthorizationDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_denied_total",
			Help: "Requests rejected by the authorization policy",
		},
		[]string{"object", "action"},
	)

	// Event bus
	EventBusPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventbus_published_total",
			Help: "Audit events published to NATS",
		},
	)

	EventBusPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbus_publish_failures_total",
			Help: "Audit events that could not be published",
		},
		[]string{"reason"},
	)

	// Live feed
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of live audit feed connections",
		},
	)

	WebSocketMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of live feed messages sent",
		},
	)
)

// RecordAuditEvent counts a successfully written event.
func RecordAuditEvent(action, severity, status string) {
	AuditEventsRecorded.WithLabelValues(action, severity, status).Inc()
}

// RecordAuditWrite updates collection gauges after a write.
func RecordAuditWrite(stored, trimmed, blobBytes int) {
	AuditStoredEvents.Set(float64(stored))
	BlobSizeBytes.Set(float64(blobBytes))
	if trimmed > 0 {
		AuditEventsTrimmed.Add(float64(trimmed))
	}
}

// RecordBlobOperation observes one store call.
func RecordBlobOperation(driver, operation string, duration time.Duration, err error) {
	BlobOperationDuration.WithLabelValues(driver, operation).Observe(duration.Seconds())
	if err != nil {
		BlobOperationErrors.WithLabelValues(driver, operation).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordEventBusPublish counts a publish attempt outcome.
func RecordEventBusPublish(err error, breakerOpen bool) {
	switch {
	case err == nil:
		EventBusPublished.Inc()
	case breakerOpen:
		EventBusPublishFailures.WithLabelValues("circuit_open").Inc()
	default:
		EventBusPublishFailures.WithLabelValues("error").Inc()
	}
}
