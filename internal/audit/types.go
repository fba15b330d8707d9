// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package audit

import (
	"errors"
	"time"

	"github.com/goccy/go-json"
)

// DefaultBlobKey is the key the audit collection has always been stored under.
const DefaultBlobKey = "fsrf_audit_logs"

// DefaultMaxEvents is the retention cap.
const DefaultMaxEvents = 1000

// UnknownActor identifies the subject of events recorded before authentication.
const UnknownActor = "unknown"

var (
	// ErrNotFound is returned when an event ID does not exist.
	ErrNotFound = errors.New("audit event not found")

	// ErrInvalidInput is returned for metadata that is not valid JSON, and
	// for values outside the vocabulary when strict vocabulary checking is
	// enabled.
	ErrInvalidInput = errors.New("invalid audit input")
)

// Action is what the actor did.
type Action string

const (
	ActionUserLogin    Action = "user_login"
	ActionUserLogout   Action = "user_logout"
	ActionUserRegister Action = "user_register"
	ActionLoginFailed  Action = "login_failed"

	ActionDocumentCreate   Action = "document_create"
	ActionDocumentUpdate   Action = "document_update"
	ActionDocumentDelete   Action = "document_delete"
	ActionDocumentView     Action = "document_view"
	ActionDocumentDownload Action = "document_download"

	ActionNewsCreate    Action = "news_create"
	ActionNewsUpdate    Action = "news_update"
	ActionNewsDelete    Action = "news_delete"
	ActionNewsPublish   Action = "news_publish"
	ActionNewsUnpublish Action = "news_unpublish"

	ActionEventCreate Action = "event_create"
	ActionEventUpdate Action = "event_update"
	ActionEventDelete Action = "event_delete"

	ActionUserCreate     Action = "user_create"
	ActionUserUpdate     Action = "user_update"
	ActionUserDelete     Action = "user_delete"
	ActionUserRoleChange Action = "user_role_change"

	ActionSystemBackup       Action = "system_backup"
	ActionSystemRestore      Action = "system_restore"
	ActionSystemConfigChange Action = "system_config_change"

	ActionSearchPerformed    Action = "search_performed"
	ActionAdminAccess        Action = "admin_access"
	ActionUnauthorizedAccess Action = "unauthorized_access"
)

// ResourceType is the coarse category of entity an event concerns.
type ResourceType string

const (
	ResourceDocument ResourceType = "document"
	ResourceNews     ResourceType = "news"
	ResourceEvent    ResourceType = "event"
	ResourceUser     ResourceType = "user"
	ResourceAuth     ResourceType = "auth"
	ResourceSystem   ResourceType = "system"
)

// Severity is a coarse criticality label.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Status is the outcome of the audited action.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusWarning Status = "warning"
)

// Actions lists the action vocabulary in display order.
func Actions() []Action {
	return []Action{
		ActionUserLogin, ActionUserLogout, ActionUserRegister, ActionLoginFailed,
		ActionDocumentCreate, ActionDocumentUpdate, ActionDocumentDelete, ActionDocumentView, ActionDocumentDownload,
		ActionNewsCreate, ActionNewsUpdate, ActionNewsDelete, ActionNewsPublish, ActionNewsUnpublish,
		ActionEventCreate, ActionEventUpdate, ActionEventDelete,
		ActionUserCreate, ActionUserUpdate, ActionUserDelete, ActionUserRoleChange,
		ActionSystemBackup, ActionSystemRestore, ActionSystemConfigChange,
		ActionSearchPerformed, ActionAdminAccess, ActionUnauthorizedAccess,
	}
}

// ResourceTypes lists the resource type vocabulary.
func ResourceTypes() []ResourceType {
	return []ResourceType{ResourceDocument, ResourceNews, ResourceEvent, ResourceUser, ResourceAuth, ResourceSystem}
}

// Severities lists severities from least to most critical.
func Severities() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

// Statuses lists the outcome vocabulary.
func Statuses() []Status {
	return []Status{StatusSuccess, StatusFailure, StatusWarning}
}

// Valid reports whether a is in the action vocabulary.
func (a Action) Valid() bool { return contains(Actions(), a) }

// Valid reports whether r is in the resource type vocabulary.
func (r ResourceType) Valid() bool { return contains(ResourceTypes(), r) }

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool { return contains(Severities(), s) }

// Valid reports whether s is a known status.
func (s Status) Valid() bool { return contains(Statuses(), s) }

func contains[T comparable](set []T, v T) bool {
	for _, x := range set {
		if x == v {
			return true
		}
	}
	return false
}

// Event is one persisted audit record. Events are never modified after
// they are written. JSON names match the stored collection format.
type Event struct {
	ID           string          `json:"id"`
	Timestamp    time.Time       `json:"timestamp"`
	UserID       string          `json:"user_id"`
	UserEmail    string          `json:"user_email"`
	Action       Action          `json:"action"`
	ResourceType ResourceType    `json:"resource_type"`
	ResourceID   string          `json:"resource_id,omitempty"`
	Details      string          `json:"details"`
	IPAddress    string          `json:"ip_address,omitempty"`
	UserAgent    string          `json:"user_agent,omitempty"`
	Severity     Severity        `json:"severity"`
	Status       Status          `json:"status"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
}

// LogInput is what a caller supplies to Recorder.Log. Severity and Status
// default to medium and success when empty.
type LogInput struct {
	UserID       string
	UserEmail    string
	Action       Action
	ResourceType ResourceType
	ResourceID   string
	Details      string
	Severity     Severity
	Status       Status
	Metadata     interface{}
}

// Filter selects events. Zero-valued fields do not constrain the result.
//
// DateFrom and DateTo are kept as text because they arrive from query
// strings; a bound that does not parse is ignored.
type Filter struct {
	UserID       string
	Action       string
	ResourceType ResourceType
	Severity     Severity
	Status       Status
	DateFrom     string
	DateTo       string
	SearchTerm   string
}

// IsZero reports whether no predicate is set.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Statistics summarizes the stored collection. Map keys appear only for
// values that occur at least once.
type Statistics struct {
	Total          int                  `json:"total"`
	ByResourceType map[ResourceType]int `json:"byResourceType"`
	BySeverity     map[Severity]int     `json:"bySeverity"`
	ByStatus       map[Status]int       `json:"byStatus"`
	RecentActivity int                  `json:"recentActivity"`
}
