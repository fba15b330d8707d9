// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package middleware

import (
	"net/http"
	"time"

	"github.com/tomtom215/fsrf-audit/internal/logging"
)

// SlowRequestThreshold marks requests logged at warn level.
var SlowRequestThreshold = 2 * time.Second

// AccessLog writes one structured line per request. Server errors log at
// error, slow requests at warn, everything else at debug.
func AccessLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := newStatusWriter(w)

		next(sw, r)

		duration := time.Since(start)
		logger := logging.Ctx(r.Context())
		ev := logger.Debug()
		switch {
		case sw.status >= http.StatusInternalServerError:
			ev = logger.Error()
		case duration > SlowRequestThreshold:
			ev = logger.Warn()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Int("bytes", sw.bytes).
			Dur("duration", duration).
			Str("remote", r.RemoteAddr).
			Msg("HTTP request")
	}
}
