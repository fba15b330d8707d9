// FSRF Audit - Regulatory Portal Audit Log Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fsrf-audit

package audit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/fsrf-audit/internal/blobstore"
	"github.com/tomtom215/fsrf-audit/internal/logging"
	"github.com/tomtom215/fsrf-audit/internal/metrics"
)

// Config tunes the recorder.
type Config struct {
	// MaxEvents is the retention cap. Older events are dropped on write.
	MaxEvents int

	// StrictVocabulary rejects actions, resource types, severities and
	// statuses outside the known sets.
	StrictVocabulary bool

	// SwallowWriteErrors makes Log and Clear report storage failures only
	// through the log and metrics.
	SwallowWriteErrors bool
}

// DefaultConfig returns the retention cap of 1000 with permissive
// vocabulary and propagated write errors.
func DefaultConfig() Config {
	return Config{MaxEvents: DefaultMaxEvents}
}

// Sink receives every event after it has been stored. Deliver must return
// quickly; slow sinks queue internally.
type Sink interface {
	Deliver(ctx context.Context, event Event)
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// WithIDGenerator replaces the UUIDv4 generator.
func WithIDGenerator(gen func() string) Option {
	return func(r *Recorder) { r.newID = gen }
}

// WithSinks registers sinks at construction.
func WithSinks(sinks ...Sink) Option {
	return func(r *Recorder) { r.sinks = append(r.sinks, sinks...) }
}

// Recorder appends audit events to a blob store and answers queries over
// the stored collection. The collection is newest-first and never holds
// more than Config.MaxEvents entries.
//
// Create one Recorder at start-up and pass it to whatever records events.
type Recorder struct {
	store blobstore.Store
	cfg   Config
	now   func() time.Time
	newID func() string

	// mu serializes read-modify-write cycles issued by this process.
	mu sync.Mutex

	sinkMu sync.RWMutex
	sinks  []Sink
}

// NewRecorder creates a recorder over store.
func NewRecorder(store blobstore.Store, cfg Config, opts ...Option) *Recorder {
	if store == nil {
		store = blobstore.NopStore{}
	}
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = DefaultMaxEvents
	}
	r := &Recorder{
		store: store,
		cfg:   cfg,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddSink registers a sink after construction.
func (r *Recorder) AddSink(s Sink) {
	r.sinkMu.Lock()
	defer r.sinkMu.Unlock()
	r.sinks = append(r.sinks, s)
}

// Config returns the active configuration.
func (r *Recorder) Config() Config {
	return r.cfg
}

// Log stores a new event built from in and returns it.
//
// When no storage environment exists Log does nothing and returns nil, nil.
// Storage failures are returned unless SwallowWriteErrors is set.
func (r *Recorder) Log(ctx context.Context, in LogInput) (*Event, error) {
	ev, err := r.build(ctx, in)
	if err != nil {
		return nil, err
	}

	var stored, trimmed, size int
	r.mu.Lock()
	err = r.store.Update(ctx, func(current []byte) ([]byte, error) {
		existing := r.decode(ctx, current)

		events := make([]Event, 0, min(len(existing)+1, r.cfg.MaxEvents))
		events = append(events, *ev)
		events = append(events, existing...)
		if len(events) > r.cfg.MaxEvents {
			trimmed = len(events) - r.cfg.MaxEvents
			events = events[:r.cfg.MaxEvents]
		}

		data, err := json.Marshal(events)
		if err != nil {
			return nil, fmt.Errorf("encode audit log: %w", err)
		}
		stored, size = len(events), len(data)
		return data, nil
	})
	r.mu.Unlock()

	if err != nil {
		if errors.Is(err, blobstore.ErrUnavailable) {
			return nil, nil
		}
		return nil, r.writeFailed(ctx, "write audit log", err)
	}

	metrics.RecordAuditEvent(string(ev.Action), string(ev.Severity), string(ev.Status))
	metrics.RecordAuditWrite(stored, trimmed, size)
	r.deliver(ctx, *ev)
	return ev, nil
}

func (r *Recorder) build(ctx context.Context, in LogInput) (*Event, error) {
	if in.Severity == "" {
		in.Severity = SeverityMedium
	}
	if in.Status == "" {
		in.Status = StatusSuccess
	}
	if r.cfg.StrictVocabulary {
		if err := checkVocabulary(in); err != nil {
			return nil, err
		}
	}

	meta, err := encodeMetadata(in.Metadata)
	if err != nil {
		return nil, err
	}

	ev := &Event{
		ID:           r.newID(),
		Timestamp:    r.now().UTC().Truncate(time.Millisecond),
		UserID:       in.UserID,
		UserEmail:    in.UserEmail,
		Action:       in.Action,
		ResourceType: in.ResourceType,
		ResourceID:   in.ResourceID,
		Details:      in.Details,
		Severity:     in.Severity,
		Status:       in.Status,
		Metadata:     meta,
	}
	if info, ok := ClientInfoFromContext(ctx); ok {
		info = info.normalized()
		ev.IPAddress = info.IPAddress
		ev.UserAgent = info.UserAgent
	}
	return ev, nil
}

func checkVocabulary(in LogInput) error {
	var bad []string
	if !in.Action.Valid() {
		bad = append(bad, fmt.Sprintf("action %q", in.Action))
	}
	if !in.ResourceType.Valid() {
		bad = append(bad, fmt.Sprintf("resource type %q", in.ResourceType))
	}
	if !in.Severity.Valid() {
		bad = append(bad, fmt.Sprintf("severity %q", in.Severity))
	}
	if !in.Status.Valid() {
		bad = append(bad, fmt.Sprintf("status %q", in.Status))
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: unknown %s", ErrInvalidInput, strings.Join(bad, ", "))
	}
	return nil
}

func encodeMetadata(v interface{}) (json.RawMessage, error) {
	switch m := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if len(m) == 0 || string(bytes.TrimSpace(m)) == "null" {
			return nil, nil
		}
		if !json.Valid(m) {
			return nil, fmt.Errorf("%w: metadata is not valid JSON", ErrInvalidInput)
		}
		return append(json.RawMessage(nil), m...), nil
	default:
		data, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("%w: metadata: %v", ErrInvalidInput, err)
		}
		if string(data) == "null" {
			return nil, nil
		}
		return data, nil
	}
}

// decode turns a stored blob into events. A blob that does not decode is
// treated as an empty collection.
func (r *Recorder) decode(ctx context.Context, data []byte) []Event {
	if len(data) == 0 {
		return []Event{}
	}
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		metrics.AuditCorruptReads.Inc()
		logging.Ctx(ctx).Warn().Err(err).Int("bytes", len(data)).
			Msg("stored audit log is unreadable, treating it as empty")
		return []Event{}
	}
	if events == nil {
		events = []Event{}
	}
	return events
}

// load reads the current collection, newest first.
func (r *Recorder) load(ctx context.Context) ([]Event, error) {
	data, err := r.store.Read(ctx)
	if errors.Is(err, blobstore.ErrUnavailable) {
		return []Event{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return r.decode(ctx, data), nil
}

// All returns every stored event, newest first.
func (r *Recorder) All(ctx context.Context) ([]Event, error) {
	return r.load(ctx)
}

// Get returns the event with the given ID.
func (r *Recorder) Get(ctx context.Context, id string) (*Event, error) {
	events, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range events {
		if events[i].ID == id {
			return &events[i], nil
		}
	}
	return nil, ErrNotFound
}

// Filtered returns the stored events matching every predicate in f, in
// stored order.
func (r *Recorder) Filtered(ctx context.Context, f Filter) ([]Event, error) {
	events, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return Apply(events, f), nil
}

// Statistics recomputes the summary from the stored collection.
// RecentActivity counts events newer than 24 hours before the call.
func (r *Recorder) Statistics(ctx context.Context) (*Statistics, error) {
	events, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return Summarize(events, r.now()), nil
}

// Summarize computes statistics for events as of now.
func Summarize(events []Event, now time.Time) *Statistics {
	stats := &Statistics{
		Total:          len(events),
		ByResourceType: make(map[ResourceType]int),
		BySeverity:     make(map[Severity]int),
		ByStatus:       make(map[Status]int),
	}
	cutoff := now.Add(-24 * time.Hour)
	for i := range events {
		ev := &events[i]
		stats.ByResourceType[ev.ResourceType]++
		stats.BySeverity[ev.Severity]++
		stats.ByStatus[ev.Status]++
		if ev.Timestamp.After(cutoff) {
			stats.RecentActivity++
		}
	}
	return stats
}

// Clear deletes the whole collection.
func (r *Recorder) Clear(ctx context.Context) error {
	r.mu.Lock()
	err := r.store.Delete(ctx)
	r.mu.Unlock()

	if err != nil {
		if errors.Is(err, blobstore.ErrUnavailable) {
			return nil
		}
		return r.writeFailed(ctx, "clear audit log", err)
	}
	metrics.RecordAuditWrite(0, 0, 0)
	logging.Ctx(ctx).Info().Msg("audit log cleared")
	return nil
}

func (r *Recorder) writeFailed(ctx context.Context, op string, err error) error {
	metrics.AuditWriteErrors.Inc()
	logging.Ctx(ctx).Error().Err(err).Str("operation", op).Msg("audit storage write failed")
	if r.cfg.SwallowWriteErrors {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *Recorder) deliver(ctx context.Context, ev Event) {
	r.sinkMu.RLock()
	sinks := r.sinks
	r.sinkMu.RUnlock()

	// Sinks may outlive the request that produced the event.
	ctx = context.WithoutCancel(ctx)
	for _, s := range sinks {
		s.Deliver(ctx, ev)
	}
}
