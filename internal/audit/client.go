// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package audit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/mssola/useragent"
)

// PlaceholderIP is stored when a user agent is known but the client address
// is not.
const PlaceholderIP = "localhost"

// ClientInfo describes the client that triggered an event.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

type clientInfoKey struct{}

// ContextWithClientInfo attaches client details for Recorder.Log to pick up.
func ContextWithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

// ClientInfoFromContext returns the client details attached to ctx, if any.
func ClientInfoFromContext(ctx context.Context) (ClientInfo, bool) {
	info, ok := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info, ok
}

// TrustedProxies is the set of peers whose forwarding headers are believed.
// A nil or empty set trusts nobody.
type TrustedProxies struct {
	prefixes []netip.Prefix
}

// ParseTrustedProxies parses IP addresses and CIDR ranges. Invalid entries
// are reported in the error; the returned set holds the valid ones.
func ParseTrustedProxies(entries []string) (*TrustedProxies, error) {
	t := &TrustedProxies{}
	var bad []string
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				bad = append(bad, entry)
				continue
			}
			t.prefixes = append(t.prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			bad = append(bad, entry)
			continue
		}
		addr = addr.Unmap()
		t.prefixes = append(t.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	if len(bad) > 0 {
		return t, fmt.Errorf("invalid trusted proxy entries: %s", strings.Join(bad, ", "))
	}
	return t, nil
}

// Trusts reports whether ip belongs to a trusted proxy.
func (t *TrustedProxies) Trusts(ip string) bool {
	if t == nil || len(t.prefixes) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range t.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientInfoFromRequest extracts the client address and user agent.
//
// The address is the connection's peer unless that peer is a trusted proxy.
// Then X-Forwarded-For is walked from the right, skipping trusted hops, and
// the first untrusted hop wins; X-Real-IP is the fallback. Headers from
// untrusted peers are ignored so clients cannot choose their own address.
func ClientInfoFromRequest(r *http.Request, trusted *TrustedProxies) ClientInfo {
	info := ClientInfo{UserAgent: r.UserAgent(), IPAddress: peerAddress(r.RemoteAddr)}
	if !trusted.Trusts(info.IPAddress) {
		return info
	}

	if hops := forwardedHops(r.Header.Values("X-Forwarded-For")); len(hops) > 0 {
		for i := len(hops) - 1; i >= 0; i-- {
			if !trusted.Trusts(hops[i]) || i == 0 {
				info.IPAddress = hops[i]
				return info
			}
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		info.IPAddress = realIP
	}
	return info
}

func peerAddress(remote string) string {
	if remote == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}
	return remote
}

func forwardedHops(values []string) []string {
	var hops []string
	for _, v := range values {
		for _, hop := range strings.Split(v, ",") {
			if hop = strings.TrimSpace(hop); hop != "" {
				hops = append(hops, hop)
			}
		}
	}
	return hops
}

// normalized fills the address placeholder.
func (c ClientInfo) normalized() ClientInfo {
	if c.IPAddress == "" && c.UserAgent != "" {
		c.IPAddress = PlaceholderIP
	}
	return c
}

// Browser returns "Name Version" parsed from the user agent, or "".
func (c ClientInfo) Browser() string {
	return describeUserAgent(c.UserAgent)
}

func describeUserAgent(raw string) string {
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	if ua.Bot() {
		name, _ := ua.Browser()
		return "bot " + name
	}
	name, version := ua.Browser()
	desc := strings.TrimSpace(name + " " + version)
	if os := ua.OS(); os != "" {
		desc += " (" + os + ")"
	}
	return desc
}
