// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package blobstore

import (
	"context"
	"sync"
)

// NopStore stands in when there is no storage environment at all.
type NopStore struct{}

func (NopStore) Read(context.Context) ([]byte, error) { return nil, ErrUnavailable }
func (NopStore) Update(context.Context, UpdateFunc) error { return ErrUnavailable }
func (NopStore) Delete(context.Context) error { return ErrUnavailable }
func (NopStore) Close() error { return nil }

// MemoryStore keeps the blob in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	data   []byte
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return cloneBytes(s.data), nil
}

func (s *MemoryStore) Update(ctx context.Context, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	next, err := applyUpdate(fn, cloneBytes(s.data))
	if err != nil {
		return err
	}
	s.data = cloneBytes(next)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.data = nil
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
