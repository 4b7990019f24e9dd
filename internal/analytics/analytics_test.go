package analytics

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.May, 1, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func TestTracker_EventStampsBase(t *testing.T) {
	rec := &Recorder{}
	tr := NewTracker(rec, nil, clock, Event{SessionID: "s1", UserID: "u1", Platform: "alexa", Locale: "en-US"})

	tr.Event(context.Background(), CategoryMainFlow, "NextIntent", "")

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, Event{
		SessionID: "s1",
		UserID:    "u1",
		Category:  CategoryMainFlow,
		Action:    "NextIntent",
		Platform:  "alexa",
		Locale:    "en-US",
		Time:      fixedNow,
	}, events[0])
}

func TestTracker_Timing(t *testing.T) {
	rec := &Recorder{}
	tr := NewTracker(rec, nil, clock, Event{SessionID: "s1"})

	tr.Timing(context.Background(), CategoryMainFlow, ActionSessionDuration, 1500*time.Millisecond)

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, int64(1500), events[0].Value)
	assert.Equal(t, ActionSessionDuration, events[0].Action)
}

func TestTracker_SinkErrorIsLoggedNotReturned(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	failing := SinkFunc(func(context.Context, Event) error { return errors.New("sink down") })

	tr := NewTracker(failing, logger, clock, Event{SessionID: "s9"})
	tr.Event(context.Background(), CategoryMainFlow, "HelpIntent", "")

	assert.Contains(t, buf.String(), "analytics event dropped")
	assert.Contains(t, buf.String(), "sink down")
	assert.Contains(t, buf.String(), "session_id=s9")
}

func TestNewTracker_NilDependencies(t *testing.T) {
	tr := NewTracker(nil, nil, nil, Event{})
	assert.NotPanics(t, func() {
		tr.Event(context.Background(), "c", "a", "l")
	})
}

func TestRecorder_Actions(t *testing.T) {
	rec := &Recorder{}
	tr := NewTracker(rec, nil, clock, Event{})
	tr.Event(context.Background(), CategoryMainFlow, ActionSessionStart, "")
	tr.Event(context.Background(), CategoryMainFlow, "LAUNCH", "")

	assert.Equal(t, []string{ActionSessionStart, "LAUNCH"}, rec.Actions())
}

func TestSinkFunc_Nil(t *testing.T) {
	var f SinkFunc
	assert.NoError(t, f.WriteEvent(context.Background(), Event{}))
}
