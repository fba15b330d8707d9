// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package blobstore

import (
	"context"
	"fmt"
	"strings"
)

// Driver names accepted by Open.
const (
	DriverNop      = "nop"
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverBadger   = "badger"
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Drivers lists every supported driver.
func Drivers() []string {
	return []string{DriverNop, DriverMemory, DriverFile, DriverBadger, DriverDuckDB, DriverPostgres, DriverRedis}
}

// Config selects and configures a driver.
type Config struct {
	Driver string
	Key    string

	// Path is the file for "file", the directory for "badger" and the
	// database file for "duckdb". Empty means in-memory for badger and duckdb.
	Path string

	// DSN is the PostgreSQL connection string.
	DSN string

	Redis RedisOptions
}

// Open builds the configured store, wrapped with metrics.
func Open(ctx context.Context, cfg Config) (*Instrumented, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if cfg.Key == "" {
		return nil, fmt.Errorf("blob key is required")
	}

	var (
		s   Store
		err error
	)
	switch driver {
	case DriverNop:
		s = NopStore{}
	case DriverMemory, "":
		driver = DriverMemory
		s = NewMemoryStore()
	case DriverFile:
		s, err = NewFileStore(cfg.Path)
	case DriverBadger:
		s, err = OpenBadger(cfg.Path, cfg.Key)
	case DriverDuckDB:
		s, err = OpenDuckDB(ctx, cfg.Path, cfg.Key)
	case DriverPostgres:
		s, err = OpenPostgres(ctx, cfg.DSN, cfg.Key)
	case DriverRedis:
		s, err = OpenRedis(ctx, cfg.Redis, cfg.Key)
	default:
		return nil, fmt.Errorf("unknown blob store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}
	return Instrument(driver, s), nil
}
