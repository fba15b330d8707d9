// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

// Package blobstore is the storage port behind the audit recorder.
//
// The whole audit collection lives in one serialized value under one key.
// A Store never interprets that value; it only guarantees that Update runs
// its function against the latest stored bytes and writes the result back
// without another writer interleaving.
//
// Drivers:
//
//	nop       no storage environment; every call returns ErrUnavailable
//	memory    process memory, for tests and ephemeral deployments
//	file      a single file on local disk, replaced atomically
//	badger    embedded BadgerDB key
//	duckdb    row in a DuckDB key/value table
//	postgres  row in a PostgreSQL key/value table, locked FOR UPDATE
//	redis     Redis string key under WATCH
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/fsrf-audit/internal/metrics"
)

var (
	// ErrUnavailable means no storage environment exists. Callers treat it as
	// "nothing stored" for reads and as a no-op for writes.
	ErrUnavailable = errors.New("blob storage unavailable")

	// ErrConflict is returned when an optimistic update kept losing races.
	ErrConflict = errors.New("blob update conflict")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("blob store closed")
)

// UpdateFunc receives the current blob (nil when nothing is stored) and
// returns the replacement. Returning an error aborts the update and leaves
// the stored value untouched.
type UpdateFunc func(current []byte) ([]byte, error)

// Store holds a single blob.
type Store interface {
	// Read returns the stored blob, or nil with no error when nothing is stored.
	Read(ctx context.Context) ([]byte, error)

	// Update atomically replaces the blob with fn's result.
	Update(ctx context.Context, fn UpdateFunc) error

	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context) error

	// Close releases the underlying resources.
	Close() error
}

// Instrumented wraps a Store and records operation metrics labeled by driver.
type Instrumented struct {
	next   Store
	driver string
}

// Instrument returns s wrapped with metrics.
func Instrument(driver string, s Store) *Instrumented {
	return &Instrumented{next: s, driver: driver}
}

// Driver returns the driver name.
func (i *Instrumented) Driver() string { return i.driver }

func (i *Instrumented) Read(ctx context.Context) ([]byte, error) {
	start := time.Now()
	data, err := i.next.Read(ctx)
	metrics.RecordBlobOperation(i.driver, "read", time.Since(start), ignoreUnavailable(err))
	return data, err
}

func (i *Instrumented) Update(ctx context.Context, fn UpdateFunc) error {
	start := time.Now()
	err := i.next.Update(ctx, fn)
	metrics.RecordBlobOperation(i.driver, "update", time.Since(start), ignoreUnavailable(err))
	return err
}

func (i *Instrumented) Delete(ctx context.Context) error {
	start := time.Now()
	err := i.next.Delete(ctx)
	metrics.RecordBlobOperation(i.driver, "delete", time.Since(start), ignoreUnavailable(err))
	return err
}

func (i *Instrumented) Close() error {
	return i.next.Close()
}

func ignoreUnavailable(err error) error {
	if errors.Is(err, ErrUnavailable) {
		return nil
	}
	return err
}

// applyUpdate runs fn and wraps its error so callers can tell an aborted
// update from a storage failure.
func applyUpdate(fn UpdateFunc, current []byte) ([]byte, error) {
	next, err := fn(current)
	if err != nil {
		return nil, fmt.Errorf("update aborted: %w", err)
	}
	return next, nil
}
