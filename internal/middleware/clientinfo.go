// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package middleware

import (
	"net"
	"net/http"

	"github.com/tomtom215/fsrf-audit/internal/audit"
)

// ClientInfo captures the caller's address and user agent so audit
// records written while serving the request carry them.
//
// Forwarding headers count only when the peer is in trusted. In that case
// RemoteAddr is also rewritten to the resolved client so per-IP rate
// limits apply to the client rather than the proxy.
func ClientInfo(trusted *audit.TrustedProxies) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			info := audit.ClientInfoFromRequest(r, trusted)
			if trusted.Trusts(peerHost(r.RemoteAddr)) && info.IPAddress != "" {
				r.RemoteAddr = info.IPAddress
			}
			next(w, r.WithContext(audit.ContextWithClientInfo(r.Context(), info)))
		}
	}
}

func peerHost(remote string) string {
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}
	return remote
}
