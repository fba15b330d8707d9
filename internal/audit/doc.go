// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

/*
Package audit records and queries the regulatory portal's audit trail.

Every security-relevant action in the portal (sign-ins, document and news
changes, role changes, searches, denied access) becomes an Event. Events are
kept as one newest-first collection that never grows past a retention cap
(1000 by default); each write prepends the new event and drops whatever
falls off the end.

# Architecture

	HTTP handlers ──► Recorder ──► blobstore.Store   (one JSON array)
	                     │
	                     └──────► Sinks             (NATS, live feed)

The collection is stored as a single JSON array through a blobstore.Store.
The store's Update is atomic, and the Recorder additionally serializes its
own writers, so concurrent Log calls never lose events.

# Usage

	store, _ := blobstore.Open(ctx, blobstore.Config{Driver: "badger", Path: dir, Key: audit.DefaultBlobKey})
	rec := audit.NewRecorder(store, audit.DefaultConfig())

	rec.Log(ctx, audit.LogInput{
	    UserID:       claims.Subject,
	    UserEmail:    claims.Email,
	    Action:       audit.ActionDocumentDelete,
	    ResourceType: audit.ResourceDocument,
	    ResourceID:   docID,
	    Details:      "Deleted document: Annual Report 2025",
	})

	failures, _ := rec.Filtered(ctx, audit.Filter{ResourceType: audit.ResourceAuth, Status: audit.StatusFailure})

# Failure Handling

  - No storage environment (blobstore.NopStore): reads are empty, writes do nothing.
  - Unreadable stored collection: treated as empty and logged.
  - Storage write failure: returned to the caller, or only logged when
    Config.SwallowWriteErrors is set.
  - Malformed DateFrom/DateTo: the bound is ignored.

# Exports

Export produces an indented JSON array suitable for a file named by
ExportFilename. ExportCEF produces ArcSight Common Event Format lines for
SIEM ingestion. Neither redacts fields.
*/
package audit
