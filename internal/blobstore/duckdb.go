// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package blobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
)

const duckdbSchema = `
CREATE TABLE IF NOT EXISTS audit_blobs (
	blob_key VARCHAR PRIMARY KEY,
	blob_value BLOB,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// DuckDBStore keeps the blob as one row of the audit_blobs table.
// DuckDB allows a single writing process, so the mutex is enough to make
// Update atomic.
type DuckDBStore struct {
	mu     sync.Mutex
	db     *sql.DB
	key    string
	ownsDB bool
}

// OpenDuckDB opens the database file at path (":memory:" or "" for an
// in-memory database) and creates the table.
func OpenDuckDB(ctx context.Context, path, key string) (*DuckDBStore, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	// An in-memory database lives only as long as its connection.
	db.SetMaxOpenConns(1)

	s, err := NewDuckDBStore(ctx, db, key)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// NewDuckDBStore uses an existing connection pool and creates the table.
func NewDuckDBStore(ctx context.Context, db *sql.DB, key string) (*DuckDBStore, error) {
	s := &DuckDBStore{db: db, key: key}
	if err := s.createTable(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DuckDBStore) createTable(ctx context.Context) error {
	for _, stmt := range strings.Split(duckdbSchema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create audit_blobs table: %w", err)
		}
	}
	return nil
}

func (s *DuckDBStore) Read(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(ctx, s.db)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *DuckDBStore) get(ctx context.Context, q queryer) ([]byte, error) {
	var data []byte
	err := q.QueryRowContext(ctx, `SELECT blob_value FROM audit_blobs WHERE blob_key = ?`, s.key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("duckdb read: %w", err)
	}
	return data, nil
}

func (s *DuckDBStore) Update(ctx context.Context, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("duckdb begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := s.get(ctx, tx)
	if err != nil {
		return err
	}
	next, err := applyUpdate(fn, current)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_blobs (blob_key, blob_value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (blob_key) DO UPDATE SET
			blob_value = EXCLUDED.blob_value,
			updated_at = EXCLUDED.updated_at`,
		s.key, next)
	if err != nil {
		return fmt.Errorf("duckdb write: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("duckdb commit: %w", err)
	}
	return nil
}

func (s *DuckDBStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM audit_blobs WHERE blob_key = ?`, s.key); err != nil {
		return fmt.Errorf("duckdb delete: %w", err)
	}
	return nil
}

func (s *DuckDBStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}
