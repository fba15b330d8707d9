// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
)

// runStoreSuite checks the behaviour every driver must share.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()

	t.Run("read empty", func(t *testing.T) {
		s := newStore(t)
		data, err := s.Read(context.Background())
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if data != nil {
			t.Errorf("Read() = %q, want nil", data)
		}
	})

	t.Run("update sees current value", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		var seen [][]byte
		for _, v := range []string{"first", "second"} {
			v := v
			err := s.Update(ctx, func(current []byte) ([]byte, error) {
				seen = append(seen, current)
				return []byte(v), nil
			})
			if err != nil {
				t.Fatalf("Update(%s) error = %v", v, err)
			}
		}

		if len(seen[0]) != 0 {
			t.Errorf("first update saw %q, want empty", seen[0])
		}
		if string(seen[1]) != "first" {
			t.Errorf("second update saw %q, want %q", seen[1], "first")
		}

		data, err := s.Read(ctx)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if string(data) != "second" {
			t.Errorf("Read() = %q, want %q", data, "second")
		}
	})

	t.Run("aborted update keeps value", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		mustWrite(t, s, []byte("kept"))

		boom := errors.New("boom")
		err := s.Update(ctx, func([]byte) ([]byte, error) { return nil, boom })
		if !errors.Is(err, boom) {
			t.Fatalf("Update() error = %v, want wrapped boom", err)
		}

		data, _ := s.Read(ctx)
		if string(data) != "kept" {
			t.Errorf("Read() = %q after aborted update, want %q", data, "kept")
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		mustWrite(t, s, []byte("gone soon"))

		if err := s.Delete(ctx); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		data, err := s.Read(ctx)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if data != nil {
			t.Errorf("Read() after delete = %q, want nil", data)
		}
		if err := s.Delete(ctx); err != nil {
			t.Errorf("second Delete() error = %v, want nil", err)
		}
	})

	t.Run("concurrent updates are serialized", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		mustWrite(t, s, []byte("0"))

		const writers = 20
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- s.Update(ctx, func(current []byte) ([]byte, error) {
					n, err := strconv.Atoi(string(current))
					if err != nil {
						return nil, err
					}
					return []byte(strconv.Itoa(n + 1)), nil
				})
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("concurrent Update() error = %v", err)
			}
		}

		data, _ := s.Read(ctx)
		if string(data) != fmt.Sprint(writers) {
			t.Errorf("counter = %s, want %d (lost update)", data, writers)
		}
	})

	t.Run("large blob", func(t *testing.T) {
		s := newStore(t)
		big := bytes.Repeat([]byte(`{"id":"x"},`), 50000)
		mustWrite(t, s, big)
		data, err := s.Read(context.Background())
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if !bytes.Equal(data, big) {
			t.Errorf("Read() returned %d bytes, want %d", len(data), len(big))
		}
	})
}

func mustWrite(t *testing.T, s Store, data []byte) {
	t.Helper()
	if err := s.Update(context.Background(), func([]byte) ([]byte, error) { return data, nil }); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	runStoreSuite(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	mustWrite(t, s, []byte("abc"))

	data, _ := s.Read(context.Background())
	data[0] = 'X'

	again, _ := s.Read(context.Background())
	if string(again) != "abc" {
		t.Errorf("stored value changed through returned slice: %q", again)
	}
}

func TestMemoryStore_Closed(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	_ = s.Close()
	if _, err := s.Read(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Read() after Close error = %v, want ErrClosed", err)
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryStore()
	if err := s.Update(ctx, func([]byte) ([]byte, error) { return []byte("x"), nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("Update() error = %v, want context.Canceled", err)
	}
}

func TestFileStore(t *testing.T) {
	t.Parallel()
	runStoreSuite(t, func(t *testing.T) Store {
		s, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "audit.json"))
		if err != nil {
			t.Fatalf("NewFileStore() error = %v", err)
		}
		return s
	})
}

func TestFileStore_RequiresPath(t *testing.T) {
	t.Parallel()
	if _, err := NewFileStore(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "audit.json")
	first, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	mustWrite(t, first, []byte(`[]`))

	second, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	data, err := second.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]" {
		t.Errorf("Read() = %q, want []", data)
	}
}

func TestBadgerStore(t *testing.T) {
	t.Parallel()
	runStoreSuite(t, func(t *testing.T) Store {
		s, err := OpenBadger("", "fsrf_audit_logs")
		if err != nil {
			t.Fatalf("OpenBadger() error = %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestBadgerStore_OnDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := OpenBadger(dir, "fsrf_audit_logs")
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	mustWrite(t, s, []byte("persisted"))
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := OpenBadger(dir, "fsrf_audit_logs")
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	data, err := reopened.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "persisted" {
		t.Errorf("Read() = %q, want %q", data, "persisted")
	}
}

func TestNopStore(t *testing.T) {
	t.Parallel()

	var s Store = NopStore{}
	ctx := context.Background()
	if _, err := s.Read(ctx); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Read() error = %v", err)
	}
	if err := s.Update(ctx, func([]byte) ([]byte, error) { return nil, nil }); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Update() error = %v", err)
	}
	if err := s.Delete(ctx); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Delete() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cfg        Config
		wantDriver string
		wantErr    bool
	}{
		{name: "default memory", cfg: Config{Key: "k"}, wantDriver: DriverMemory},
		{name: "nop", cfg: Config{Driver: "NOP", Key: "k"}, wantDriver: DriverNop},
		{name: "file", cfg: Config{Driver: "file", Key: "k", Path: filepath.Join(t.TempDir(), "a.json")}, wantDriver: DriverFile},
		{name: "badger in memory", cfg: Config{Driver: "badger", Key: "k"}, wantDriver: DriverBadger},
		{name: "file without path", cfg: Config{Driver: "file", Key: "k"}, wantErr: true},
		{name: "missing key", cfg: Config{Driver: "memory"}, wantErr: true},
		{name: "unknown driver", cfg: Config{Driver: "s3", Key: "k"}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, err := Open(context.Background(), tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer s.Close()
			if s.Driver() != tt.wantDriver {
				t.Errorf("Driver() = %q, want %q", s.Driver(), tt.wantDriver)
			}
		})
	}
}

func TestInstrumented_PassesThrough(t *testing.T) {
	t.Parallel()

	runStoreSuite(t, func(t *testing.T) Store { return Instrument("memory-test", NewMemoryStore()) })

	if _, err := Instrument("nop-test", NopStore{}).Read(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("ErrUnavailable should pass through, got %v", err)
	}
}
