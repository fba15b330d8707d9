// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package audit

// DefaultPageSize matches the audit screen's page length.
const DefaultPageSize = 50

// MaxPageSize caps client-requested page sizes.
const MaxPageSize = 500

// PageInfo describes one page of a result set.
type PageInfo struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

// Paginate returns the 1-based page of events. Out-of-range pages are empty.
func Paginate(events []Event, page, perPage int) ([]Event, PageInfo) {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	if perPage > MaxPageSize {
		perPage = MaxPageSize
	}
	if page < 1 {
		page = 1
	}

	total := len(events)
	info := PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	}

	start := (page - 1) * perPage
	if start >= total {
		return []Event{}, info
	}
	end := min(start+perPage, total)
	info.HasMore = end < total
	return events[start:end], info
}
