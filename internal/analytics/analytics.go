// Package analytics records conversation events: one event per handled intent,
// session start/end markers, and session duration timings.
//
// Analytics never fail a turn. Sink errors are logged and dropped.
package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Event categories and actions used by the skill.
const (
	CategoryMainFlow = "Main flow"

	ActionSessionStart    = "Session Start"
	ActionSessionEnd      = "Session End"
	ActionSessionDuration = "Session Duration"
)

// Event is one analytics hit.
type Event struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Category  string    `json:"category"`
	Action    string    `json:"action"`
	Label     string    `json:"label,omitempty"`
	Value     int64     `json:"value,omitempty"` // milliseconds for timings
	Platform  string    `json:"platform"`
	Locale    string    `json:"locale"`
	Time      time.Time `json:"time"`
}

// Sink persists or forwards events.
type Sink interface {
	WriteEvent(ctx context.Context, e Event) error
}

// SinkFunc adapts a function into a Sink.
type SinkFunc func(ctx context.Context, e Event) error

// WriteEvent implements Sink for SinkFunc.
func (f SinkFunc) WriteEvent(ctx context.Context, e Event) error {
	if f == nil {
		return nil
	}
	return f(ctx, e)
}

// Discard is a Sink that drops every event.
var Discard Sink = SinkFunc(func(context.Context, Event) error { return nil })

// Tracker stamps events with session context and writes them to a sink.
type Tracker struct {
	sink   Sink
	logger *slog.Logger
	now    func() time.Time
	base   Event
}

// NewTracker creates a tracker whose events carry the identifiers in base.
// A nil sink discards, a nil logger is silent and a nil clock uses time.Now.
func NewTracker(sink Sink, logger *slog.Logger, now func() time.Time, base Event) *Tracker {
	if sink == nil {
		sink = Discard
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if now == nil {
		now = time.Now
	}
	return &Tracker{sink: sink, logger: logger, now: now, base: base}
}

// Event records a plain event.
func (t *Tracker) Event(ctx context.Context, category, action, label string) {
	e := t.base
	e.Category = category
	e.Action = action
	e.Label = label
	t.write(ctx, e)
}

// Timing records a duration in milliseconds.
func (t *Tracker) Timing(ctx context.Context, category, variable string, d time.Duration) {
	e := t.base
	e.Category = category
	e.Action = variable
	e.Value = d.Milliseconds()
	t.write(ctx, e)
}

func (t *Tracker) write(ctx context.Context, e Event) {
	e.Time = t.now().UTC()
	if err := t.sink.WriteEvent(ctx, e); err != nil {
		t.logger.Warn("analytics event dropped",
			"session_id", e.SessionID,
			"action", e.Action,
			"error", err,
		)
	}
}

// Recorder is an in-memory Sink for tests and dry runs.
//
// Thread-safety: Recorder is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// WriteEvent implements Sink.
func (r *Recorder) WriteEvent(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Actions returns the action names recorded so far, in order.
func (r *Recorder) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Action
	}
	return out
}
