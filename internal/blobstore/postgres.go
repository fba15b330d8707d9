// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package blobstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS audit_blobs (
	blob_key   TEXT PRIMARY KEY,
	blob_value BYTEA,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps the blob as one row in PostgreSQL. Update locks the
// row with SELECT ... FOR UPDATE, so any number of service instances can
// share the collection.
type PostgresStore struct {
	pool     *pgxpool.Pool
	key      string
	ownsPool bool
}

// OpenPostgres connects with a pgx DSN and creates the table.
func OpenPostgres(ctx context.Context, dsn, key string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s, err := NewPostgresStore(ctx, pool, key)
	if err != nil {
		pool.Close()
		return nil, err
	}
	s.ownsPool = true
	return s, nil
}

// NewPostgresStore uses an existing pool and creates the table.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, key string) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("create audit_blobs table: %w", err)
	}
	return &PostgresStore{pool: pool, key: key}, nil
}

func (s *PostgresStore) Read(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT blob_value FROM audit_blobs WHERE blob_key = $1`, s.key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres read: %w", err)
	}
	return data, nil
}

func (s *PostgresStore) Update(ctx context.Context, fn UpdateFunc) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Make sure a row exists so there is something to lock.
	if _, err := tx.Exec(ctx,
		`INSERT INTO audit_blobs (blob_key) VALUES ($1) ON CONFLICT (blob_key) DO NOTHING`, s.key); err != nil {
		return fmt.Errorf("postgres ensure row: %w", err)
	}

	var current []byte
	if err := tx.QueryRow(ctx,
		`SELECT blob_value FROM audit_blobs WHERE blob_key = $1 FOR UPDATE`, s.key).Scan(&current); err != nil {
		return fmt.Errorf("postgres lock row: %w", err)
	}

	next, err := applyUpdate(fn, current)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE audit_blobs SET blob_value = $2, updated_at = now() WHERE blob_key = $1`, s.key, next); err != nil {
		return fmt.Errorf("postgres write: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM audit_blobs WHERE blob_key = $1`, s.key); err != nil {
		return fmt.Errorf("postgres delete: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.ownsPool {
		s.pool.Close()
	}
	return nil
}
