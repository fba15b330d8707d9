// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package audit

import (
	"fmt"
	"testing"
)

func TestPaginate(t *testing.T) {
	t.Parallel()

	events := make([]Event, 120)
	for i := range events {
		events[i].ID = fmt.Sprint(i)
	}

	tests := []struct {
		name      string
		page      int
		perPage   int
		wantLen   int
		wantFirst string
		wantInfo  PageInfo
	}{
		{name: "first page default size", page: 1, perPage: 0, wantLen: 50, wantFirst: "0",
			wantInfo: PageInfo{Page: 1, PerPage: 50, Total: 120, TotalPages: 3, HasMore: true}},
		{name: "last partial page", page: 3, perPage: 50, wantLen: 20, wantFirst: "100",
			wantInfo: PageInfo{Page: 3, PerPage: 50, Total: 120, TotalPages: 3, HasMore: false}},
		{name: "page zero becomes one", page: 0, perPage: 100, wantLen: 100, wantFirst: "0",
			wantInfo: PageInfo{Page: 1, PerPage: 100, Total: 120, TotalPages: 2, HasMore: true}},
		{name: "beyond the end", page: 9, perPage: 50, wantLen: 0,
			wantInfo: PageInfo{Page: 9, PerPage: 50, Total: 120, TotalPages: 3}},
		{name: "oversized page is capped", page: 1, perPage: 10000, wantLen: 120, wantFirst: "0",
			wantInfo: PageInfo{Page: 1, PerPage: MaxPageSize, Total: 120, TotalPages: 1}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, info := Paginate(events, tt.page, tt.perPage)
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen > 0 && got[0].ID != tt.wantFirst {
				t.Errorf("first = %s, want %s", got[0].ID, tt.wantFirst)
			}
			if info != tt.wantInfo {
				t.Errorf("info = %+v, want %+v", info, tt.wantInfo)
			}
		})
	}
}

func TestPaginate_Empty(t *testing.T) {
	t.Parallel()
	got, info := Paginate(nil, 1, 50)
	if got == nil || len(got) != 0 {
		t.Errorf("Paginate(nil) = %#v", got)
	}
	if info.TotalPages != 0 || info.HasMore {
		t.Errorf("info = %+v", info)
	}
}
