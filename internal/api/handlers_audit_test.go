// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fsrf-audit/internal/audit"
	"github.com/tomtom215/fsrf-audit/internal/models"
)

func TestLogEvent_ActorFromToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/audit/events", "editor", map[string]interface{}{
		"action":        "document_update",
		"resource_type": "document",
		"resource_id":   "d-42",
		"details":       "Updated Circular 2026/01",
		"metadata":      map[string]string{"title": "Circular 2026/01"},
	})
	assertStatus(t, rec, http.StatusCreated)

	var ev audit.Event
	decodeData(t, rec, &ev)
	if ev.UserID != "u-editor" || ev.UserEmail != "editor@fsrf.example" {
		t.Errorf("actor = %s/%s, want the token's user", ev.UserID, ev.UserEmail)
	}
	if ev.Severity != audit.SeverityMedium || ev.Status != audit.StatusSuccess {
		t.Errorf("defaults = %s/%s, want medium/success", ev.Severity, ev.Status)
	}
	if ev.IPAddress == "" {
		t.Error("client address not captured")
	}

	stored := env.stored(t)
	if len(stored) != 1 || stored[0].ID != ev.ID {
		t.Fatalf("stored = %+v", stored)
	}
	if !strings.Contains(string(stored[0].Metadata), "Circular 2026/01") {
		t.Errorf("metadata = %s", stored[0].Metadata)
	}
}

func TestLogEvent_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing action", map[string]interface{}{"resource_type": "document"}},
		{"missing resource type", map[string]interface{}{"action": "document_update"}},
		{"oversized action", map[string]interface{}{"action": strings.Repeat("a", 65), "resource_type": "document"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/audit/events", "editor", tt.body)
			assertStatus(t, rec, http.StatusBadRequest)
			assertErrorCode(t, rec, ErrCodeValidation)
		})
	}
	if n := len(env.stored(t)); n != 0 {
		t.Errorf("stored %d events from invalid requests", n)
	}
}

func TestLogEvent_PermissiveVocabulary(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/audit/events", "editor", map[string]interface{}{
		"action": "license_renewal", "resource_type": "license", "severity": "apocalyptic", "status": "pending",
	})
	assertStatus(t, rec, http.StatusCreated)

	stored := env.stored(t)
	if len(stored) != 1 {
		t.Fatalf("stored %d events, want 1", len(stored))
	}
	ev := stored[0]
	if ev.ResourceType != "license" || ev.Severity != "apocalyptic" || ev.Status != "pending" {
		t.Errorf("stored = %s/%s/%s, want values kept as given", ev.ResourceType, ev.Severity, ev.Status)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/audit/events?resource_type=license&severity=apocalyptic", "auditor", nil)
	assertStatus(t, rec, http.StatusOK)
	var list models.EventList
	decodeData(t, rec, &list)
	if len(list.Events) != 1 || list.Events[0].ID != ev.ID {
		t.Errorf("filter by stored out-of-vocabulary values returned %+v", list.Events)
	}
}

func TestLogEvent_StrictVocabulary(t *testing.T) {
	env := newTestEnv(t, withStrictVocabulary())

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"unknown resource type", map[string]interface{}{"action": "document_update", "resource_type": "spaceship"}},
		{"bad severity", map[string]interface{}{"action": "document_update", "resource_type": "document", "severity": "apocalyptic"}},
		{"unknown action", map[string]interface{}{"action": "made_up", "resource_type": "document"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/audit/events", "editor", tt.body)
			assertStatus(t, rec, http.StatusBadRequest)
			assertErrorCode(t, rec, ErrCodeValidation)
		})
	}
	if n := len(env.stored(t)); n != 0 {
		t.Errorf("stored %d events from rejected requests", n)
	}

	rec := env.do(t, http.MethodPost, "/api/v1/audit/events", "editor", map[string]interface{}{
		"action": "document_update", "resource_type": "document", "severity": "low",
	})
	assertStatus(t, rec, http.StatusCreated)
}

func TestLogEvent_MetadataVerbatim(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		metadata string
		want     string
	}{
		{"integer beyond float precision", `{"n":9007199254740993}`, `{"n":9007199254740993}`},
		{"array", `["a","b"]`, `["a","b"]`},
		{"string", `"approved by board"`, `"approved by board"`},
		{"nested", `{"diff":{"before":[1,2],"after":null}}`, `{"diff":{"before":[1,2],"after":null}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"action":"document_update","resource_type":"document","metadata":` + tt.metadata + `}`
			r := httptestRequest(http.MethodPost, "/api/v1/audit/events", strings.NewReader(body), env.tokens["editor"])
			r.Header.Set("Content-Type", "application/json")
			rec := serve(env, r)
			assertStatus(t, rec, http.StatusCreated)

			stored := env.stored(t)
			if got := string(stored[0].Metadata); got != tt.want {
				t.Errorf("metadata = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLogEvent_ForgedForwardedFor(t *testing.T) {
	tests := []struct {
		name   string
		opts   []envOption
		remote string
		wantIP string
	}{
		{name: "direct client", remote: "198.51.100.20:5000", wantIP: "198.51.100.20"},
		{name: "trusted proxy", opts: []envOption{withTrustedProxies("10.0.0.0/8")}, remote: "10.0.0.5:5000", wantIP: "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.opts...)
			body := strings.NewReader(`{"action":"document_update","resource_type":"document"}`)
			r := httptestRequest(http.MethodPost, "/api/v1/audit/events", body, env.tokens["editor"])
			r.RemoteAddr = tt.remote
			r.Header.Set("X-Forwarded-For", "203.0.113.9")
			rec := serve(env, r)
			assertStatus(t, rec, http.StatusCreated)

			if got := env.stored(t)[0].IPAddress; got != tt.wantIP {
				t.Errorf("IPAddress = %q, want %q", got, tt.wantIP)
			}
		})
	}
}

func TestLogEvent_MalformedBody(t *testing.T) {
	env := newTestEnv(t)
	req := strings.NewReader("{not json")
	r := httptestRequest(http.MethodPost, "/api/v1/audit/events", req, env.tokens["editor"])
	rec := serve(env, r)
	assertStatus(t, rec, http.StatusBadRequest)
	assertErrorCode(t, rec, ErrCodeValidation)
}

func TestLogEvent_ViewerDeniedAndRecorded(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/audit/events", "viewer", map[string]interface{}{
		"action": "document_delete", "resource_type": "document",
	})
	assertStatus(t, rec, http.StatusForbidden)

	stored := env.stored(t)
	if len(stored) != 1 {
		t.Fatalf("stored %d events, want the denial only", len(stored))
	}
	ev := stored[0]
	if ev.Action != audit.ActionUnauthorizedAccess || ev.ResourceType != audit.ResourceAuth ||
		ev.Severity != audit.SeverityHigh || ev.Status != audit.StatusFailure {
		t.Errorf("denial event = %+v", ev)
	}
	if ev.UserID != "u-viewer" {
		t.Errorf("denial actor = %q, want u-viewer", ev.UserID)
	}
}

func TestAuthentication(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/audit/events", "", nil)
	assertStatus(t, rec, http.StatusUnauthorized)
	if n := len(env.stored(t)); n != 0 {
		t.Errorf("anonymous request recorded %d events", n)
	}

	r := httptestRequest(http.MethodGet, "/api/v1/audit/events", nil, "forged.token.value")
	rec = serve(env, r)
	assertStatus(t, rec, http.StatusUnauthorized)

	stored := env.stored(t)
	if len(stored) != 1 || stored[0].Action != audit.ActionUnauthorizedAccess || stored[0].UserID != audit.UnknownActor {
		t.Errorf("bad token should record unauthorized_access by unknown, got %+v", stored)
	}
}

func seedPortalActivity(t *testing.T, env *testEnv) {
	t.Helper()
	env.seed(t,
		audit.LogInput{UserID: "u1", UserEmail: "alice@fsrf.example", Action: audit.ActionDocumentCreate, ResourceType: audit.ResourceDocument, Details: "Created Circular 2026/02", Severity: audit.SeverityLow},
		audit.LogInput{UserID: "u2", UserEmail: "bob@fsrf.example", Action: audit.ActionLoginFailed, ResourceType: audit.ResourceAuth, Details: "Account locked", Severity: audit.SeverityHigh, Status: audit.StatusFailure},
		audit.LogInput{UserID: "u1", UserEmail: "alice@fsrf.example", Action: audit.ActionNewsPublish, ResourceType: audit.ResourceNews, Details: "Published Licensing Update", Severity: audit.SeverityLow},
		audit.LogInput{UserID: "u3", UserEmail: "carol@fsrf.example", Action: audit.ActionUserRoleChange, ResourceType: audit.ResourceUser, Details: "Granted editor role", Severity: audit.SeverityHigh},
		audit.LogInput{UserID: "u1", UserEmail: "alice@fsrf.example", Action: audit.ActionDocumentDelete, ResourceType: audit.ResourceDocument, Details: "Deleted Circular 2026/02"},
	)
}

func TestListEvents_FilterAndPage(t *testing.T) {
	env := newTestEnv(t)
	seedPortalActivity(t, env)

	rec := env.do(t, http.MethodGet, "/api/v1/audit/events?severity=high&per_page=1&page=2", "viewer", nil)
	assertStatus(t, rec, http.StatusOK)

	var list models.EventList
	resp := decodeData(t, rec, &list)
	if len(list.Events) != 1 || list.Events[0].Action != audit.ActionLoginFailed {
		t.Fatalf("page 2 = %+v, want the older high-severity event", list.Events)
	}
	p := resp.Metadata.Pagination
	if p == nil || p.Total != 2 || p.Page != 2 || p.PerPage != 1 || p.TotalPages != 2 || p.HasMore {
		t.Errorf("pagination = %+v", p)
	}

	// Filtered views are not admin_access.
	if n := countAction(env.stored(t), audit.ActionAdminAccess); n != 0 {
		t.Errorf("admin_access recorded %d times for a filtered view", n)
	}
}

func TestListEvents_NewestFirstAndAdminAccess(t *testing.T) {
	env := newTestEnv(t)
	seedPortalActivity(t, env)

	rec := env.do(t, http.MethodGet, "/api/v1/audit/events", "viewer", nil)
	assertStatus(t, rec, http.StatusOK)

	var list models.EventList
	decodeData(t, rec, &list)
	if len(list.Events) != 5 {
		t.Fatalf("listed %d events, want 5", len(list.Events))
	}
	if list.Events[0].Action != audit.ActionDocumentDelete || list.Events[4].Action != audit.ActionDocumentCreate {
		t.Errorf("not newest-first: first %s, last %s", list.Events[0].Action, list.Events[4].Action)
	}

	stored := env.stored(t)
	if stored[0].Action != audit.ActionAdminAccess || stored[0].UserID != "u-viewer" || stored[0].Severity != audit.SeverityLow {
		t.Errorf("newest stored event = %+v, want admin_access by the viewer", stored[0])
	}
}

func TestListEvents_UnparseableDateIgnored(t *testing.T) {
	env := newTestEnv(t)
	seedPortalActivity(t, env)

	rec := env.do(t, http.MethodGet, "/api/v1/audit/events?date_from=not-a-date&resource_type=document", "viewer", nil)
	assertStatus(t, rec, http.StatusOK)

	var list models.EventList
	decodeData(t, rec, &list)
	if len(list.Events) != 2 {
		t.Errorf("listed %d events, want both document events", len(list.Events))
	}
}

func TestListEvents_FilterValues(t *testing.T) {
	env := newTestEnv(t)
	seedPortalActivity(t, env)

	// Values outside the vocabulary are ordinary filters that match nothing.
	rec := env.do(t, http.MethodGet, "/api/v1/audit/events?severity=extreme", "viewer", nil)
	assertStatus(t, rec, http.StatusOK)
	var list models.EventList
	decodeData(t, rec, &list)
	if len(list.Events) != 0 {
		t.Errorf("listed %d events for an unused severity", len(list.Events))
	}

	rec = env.do(t, http.MethodGet, "/api/v1/audit/events?severity="+strings.Repeat("x", 33), "viewer", nil)
	assertStatus(t, rec, http.StatusBadRequest)
	assertErrorCode(t, rec, ErrCodeValidation)
}

func TestListEvents_SearchRecorded(t *testing.T) {
	env := newTestEnv(t)
	seedPortalActivity(t, env)

	rec := env.do(t, http.MethodGet, "/api/v1/audit/events?search=circular", "auditor", nil)
	assertStatus(t, rec, http.StatusOK)

	var list models.EventList
	decodeData(t, rec, &list)
	if len(list.Events) != 2 {
		t.Errorf("search matched %d events, want 2", len(list.Events))
	}

	newest := env.stored(t)[0]
	if newest.Action != audit.ActionSearchPerformed || newest.ResourceType != audit.ResourceSystem {
		t.Fatalf("newest = %+v, want search_performed", newest)
	}
	var meta struct {
		Query   string `json:"query"`
		Results int    `json:"results"`
	}
	if err := json.Unmarshal(newest.Metadata, &meta); err != nil {
		t.Fatal(err)
	}
	if meta.Query != "circular" || meta.Results != 2 {
		t.Errorf("search metadata = %+v", meta)
	}
}

func TestGetEvent(t *testing.T) {
	env := newTestEnv(t)
	seedPortalActivity(t, env)
	want := env.stored(t)[2]

	rec := env.do(t, http.MethodGet, "/api/v1/audit/events/"+want.ID, "viewer", nil)
	assertStatus(t, rec, http.StatusOK)
	var got audit.Event
	decodeData(t, rec, &got)
	if got.ID != want.ID || got.Action != want.Action {
		t.Errorf("got %+v, want %+v", got, want)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/audit/events/does-not-exist", "viewer", nil)
	assertStatus(t, rec, http.StatusNotFound)
	assertErrorCode(t, rec, ErrCodeNotFound)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	seedPortalActivity(t, env)

	rec := env.do(t, http.MethodGet, "/api/v1/audit/stats", "viewer", nil)
	assertStatus(t, rec, http.StatusOK)

	var stats audit.Statistics
	decodeData(t, rec, &stats)
	if stats.Total != 5 {
		t.Errorf("total = %d, want 5", stats.Total)
	}
	if stats.BySeverity[audit.SeverityHigh] != 2 || stats.BySeverity[audit.SeverityMedium] != 1 {
		t.Errorf("by severity = %v", stats.BySeverity)
	}
	if stats.ByResourceType[audit.ResourceDocument] != 2 {
		t.Errorf("by resource type = %v", stats.ByResourceType)
	}
}

func TestExport_JSON(t *testing.T) {
	env := newTestEnv(t)
	env.handler.now = func() time.Time { return time.Date(2026, 4, 30, 23, 0, 0, 0, time.UTC) }
	seedPortalActivity(t, env)

	rec := env.do(t, http.MethodGet, "/api/v1/audit/export", "auditor", nil)
	assertStatus(t, rec, http.StatusOK)

	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="audit-logs-2026-04-30.json"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	var events []audit.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("export is not a JSON array: %v", err)
	}
	if len(events) != 5 || events[0].Action != audit.ActionDocumentDelete {
		t.Errorf("export = %d events, first %s", len(events), events[0].Action)
	}
}

func TestExport_EmptyIsArray(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/audit/export?format=json", "admin", nil)
	assertStatus(t, rec, http.StatusOK)
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("empty export = %q, want []", body)
	}
}

func TestExport_CEF(t *testing.T) {
	env := newTestEnv(t)
	seedPortalActivity(t, env)

	rec := env.do(t, http.MethodGet, "/api/v1/audit/export?format=cef", "auditor", nil)
	assertStatus(t, rec, http.StatusOK)
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasSuffix(cd, `.cef"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d CEF lines, want 5", len(lines))
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "CEF:0|") {
			t.Errorf("not a CEF line: %q", line)
		}
	}
}

func TestExport_Permissions(t *testing.T) {
	env := newTestEnv(t)

	assertStatus(t, env.do(t, http.MethodGet, "/api/v1/audit/export", "viewer", nil), http.StatusForbidden)
	assertStatus(t, env.do(t, http.MethodGet, "/api/v1/audit/export", "editor", nil), http.StatusForbidden)

	rec := env.do(t, http.MethodGet, "/api/v1/audit/export?format=xml", "auditor", nil)
	assertStatus(t, rec, http.StatusBadRequest)
	assertErrorCode(t, rec, ErrCodeValidation)
}

func TestClearEvents(t *testing.T) {
	env := newTestEnv(t)
	seedPortalActivity(t, env)

	rec := env.do(t, http.MethodDelete, "/api/v1/audit/events", "admin", nil)
	assertStatus(t, rec, http.StatusBadRequest)
	assertErrorCode(t, rec, ErrCodeConfirmationRequired)
	if n := len(env.stored(t)); n != 5 {
		t.Fatalf("unconfirmed clear removed events: %d left", n)
	}

	rec = env.do(t, http.MethodDelete, "/api/v1/audit/events?confirm=true", "admin", nil)
	assertStatus(t, rec, http.StatusOK)
	if n := len(env.stored(t)); n != 0 {
		t.Errorf("%d events left after clear, want 0", n)
	}
}

func TestClearEvents_OnlyAdmin(t *testing.T) {
	env := newTestEnv(t)
	seedPortalActivity(t, env)

	for _, role := range []string{"viewer", "editor", "auditor"} {
		rec := env.do(t, http.MethodDelete, "/api/v1/audit/events?confirm=true", role, nil)
		assertStatus(t, rec, http.StatusForbidden)
	}
	if n := countAction(env.stored(t), audit.ActionUnauthorizedAccess); n != 3 {
		t.Errorf("recorded %d denials, want 3", n)
	}
}

func TestVocabularyEndpoints(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/audit/actions", len(audit.Actions())},
		{"/api/v1/audit/resource-types", len(audit.ResourceTypes())},
		{"/api/v1/audit/severities", 4},
		{"/api/v1/audit/statuses", 3},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.path, "viewer", nil)
			assertStatus(t, rec, http.StatusOK)
			var values []string
			decodeData(t, rec, &values)
			if len(values) != tt.want {
				t.Errorf("got %d values, want %d", len(values), tt.want)
			}
		})
	}
}
