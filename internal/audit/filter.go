// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package audit

import (
	"strings"
	"time"
)

// Layouts accepted for Filter.DateFrom and Filter.DateTo, most specific first.
var boundLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	dateOnly,
}

const dateOnly = "2006-01-02"

// parseBound parses a date bound. ok is false for empty or malformed input.
// A date-only upper bound covers the whole day.
func parseBound(s string, upper bool) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range boundLayouts {
		parsed, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if upper && layout == dateOnly {
			parsed = parsed.Add(24*time.Hour - time.Nanosecond)
		}
		return parsed, true
	}
	return time.Time{}, false
}

// compiled is a Filter with its bounds parsed and text lowered once.
type compiled struct {
	Filter
	action  string
	search  string
	from    time.Time
	to      time.Time
	hasFrom bool
	hasTo   bool
}

func compile(f Filter) compiled {
	c := compiled{
		Filter: f,
		action: strings.ToLower(f.Action),
		search: strings.ToLower(f.SearchTerm),
	}
	c.from, c.hasFrom = parseBound(f.DateFrom, false)
	c.to, c.hasTo = parseBound(f.DateTo, true)
	return c
}

func (c *compiled) matches(ev *Event) bool {
	if c.UserID != "" && ev.UserID != c.UserID {
		return false
	}
	if c.action != "" && !strings.Contains(strings.ToLower(string(ev.Action)), c.action) {
		return false
	}
	if c.ResourceType != "" && ev.ResourceType != c.ResourceType {
		return false
	}
	if c.Severity != "" && ev.Severity != c.Severity {
		return false
	}
	if c.Status != "" && ev.Status != c.Status {
		return false
	}
	if c.hasFrom && ev.Timestamp.Before(c.from) {
		return false
	}
	if c.hasTo && ev.Timestamp.After(c.to) {
		return false
	}
	if c.search != "" &&
		!strings.Contains(strings.ToLower(ev.Details), c.search) &&
		!strings.Contains(strings.ToLower(ev.UserEmail), c.search) &&
		!strings.Contains(strings.ToLower(string(ev.Action)), c.search) {
		return false
	}
	return true
}

// Apply returns the events matching f, preserving order. The input slice
// is not modified.
func Apply(events []Event, f Filter) []Event {
	if f.IsZero() {
		return events
	}
	c := compile(f)
	out := make([]Event, 0, len(events))
	for i := range events {
		if c.matches(&events[i]) {
			out = append(out, events[i])
		}
	}
	return out
}

// ValidDateBound reports whether s is empty or parses as a date bound.
func ValidDateBound(s string) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}
	_, ok := parseBound(s, false)
	return ok
}

// Matcher is a Filter prepared for repeated matching.
type Matcher struct {
	c    compiled
	zero bool
}

// NewMatcher prepares f.
func NewMatcher(f Filter) Matcher {
	return Matcher{c: compile(f), zero: f.IsZero()}
}

// Match reports whether ev satisfies the filter.
func (m *Matcher) Match(ev *Event) bool {
	return m.zero || m.c.matches(ev)
}
