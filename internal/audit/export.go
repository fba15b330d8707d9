// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package audit

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Export returns the full collection as an indented JSON array.
func (r *Recorder) Export(ctx context.Context) ([]byte, error) {
	events, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return ExportJSON(events)
}

// ExportJSON encodes events as an indented JSON array. An empty or nil
// slice encodes as [].
func ExportJSON(events []Event) ([]byte, error) {
	if events == nil {
		events = []Event{}
	}
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return data, nil
}

// ExportCEF writes the full collection to w in Common Event Format.
func (r *Recorder) ExportCEF(ctx context.Context, w io.Writer) error {
	events, err := r.load(ctx)
	if err != nil {
		return err
	}
	return NewCEFExporter().Write(w, events)
}

// ExportFilename returns the download name for an export taken at t.
func ExportFilename(t time.Time, ext string) string {
	return fmt.Sprintf("audit-logs-%s.%s", t.UTC().Format(dateOnly), ext)
}

// CEFExporter formats events for SIEM ingestion.
// CEF:Version|Device Vendor|Device Product|Device Version|Signature ID|Name|Severity|Extension
type CEFExporter struct {
	DeviceVendor  string
	DeviceProduct string
	DeviceVersion string
}

// NewCEFExporter creates a CEF exporter with the service's device fields.
func NewCEFExporter() *CEFExporter {
	return &CEFExporter{
		DeviceVendor:  "FSRF",
		DeviceProduct: "RegulatoryPortalAudit",
		DeviceVersion: "1.0",
	}
}

// Write emits one CEF line per event.
func (e *CEFExporter) Write(w io.Writer, events []Event) error {
	bw := bufio.NewWriter(w)
	for i := range events {
		if _, err := bw.WriteString(e.Line(&events[i])); err != nil {
			return fmt.Errorf("write cef: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("write cef: %w", err)
		}
	}
	return bw.Flush()
}

// Line formats a single event.
func (e *CEFExporter) Line(ev *Event) string {
	return fmt.Sprintf("CEF:0|%s|%s|%s|%s|%s|%d|%s",
		escapeHeader(e.DeviceVendor),
		escapeHeader(e.DeviceProduct),
		escapeHeader(e.DeviceVersion),
		escapeHeader(string(ev.Action)),
		escapeHeader(ev.Details),
		cefSeverity(ev.Severity),
		extension(ev),
	)
}

// cefSeverity maps severities onto CEF's 0-10 scale.
func cefSeverity(s Severity) int {
	switch s {
	case SeverityLow:
		return 3
	case SeverityMedium:
		return 5
	case SeverityHigh:
		return 8
	case SeverityCritical:
		return 10
	default:
		return 0
	}
}

func extension(ev *Event) string {
	parts := []string{
		fmt.Sprintf("rt=%d", ev.Timestamp.UnixMilli()),
		"externalId=" + escapeExt(ev.ID),
	}
	if ev.UserID != "" {
		parts = append(parts, "suid="+escapeExt(ev.UserID))
	}
	if ev.UserEmail != "" {
		parts = append(parts, "suser="+escapeExt(ev.UserEmail))
	}
	if ev.IPAddress != "" {
		parts = append(parts, "src="+escapeExt(ev.IPAddress))
	}
	if browser := describeUserAgent(ev.UserAgent); browser != "" {
		parts = append(parts, "requestClientApplication="+escapeExt(browser))
	}
	parts = append(parts,
		"act="+escapeExt(string(ev.Action)),
		"cat="+escapeExt(string(ev.ResourceType)),
		"outcome="+escapeExt(string(ev.Status)),
	)
	if ev.ResourceID != "" {
		parts = append(parts, "cs1Label=resourceId", "cs1="+escapeExt(ev.ResourceID))
	}
	return strings.Join(parts, " ")
}

// escapeHeader escapes a CEF header field.
func escapeHeader(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "|", `\|`)
	return flattenLines(s)
}

// escapeExt escapes a CEF extension value.
func escapeExt(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "=", `\=`)
	return flattenLines(s)
}

func flattenLines(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", " ")
}
