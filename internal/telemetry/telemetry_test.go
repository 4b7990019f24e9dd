package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("shout")
	assert.Error(t, err)
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, "text")

	logger.Debug("hidden")
	logger.Info("turn handled", "session_id", "s1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=\"turn handled\"")
	assert.Contains(t, out, "session_id=s1")
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelDebug, "JSON")

	logger.Debug("cast", "handler", "spell")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "cast", record["msg"])
	assert.Equal(t, "spell", record["handler"])
	assert.Equal(t, "DEBUG", record["level"])
}

func TestSetup_DisabledIsNoop(t *testing.T) {
	for _, cfg := range []TracingConfig{
		{Enabled: false, Endpoint: "http://localhost:4318"},
		{Enabled: true, Endpoint: ""},
	} {
		shutdown, err := Setup(context.Background(), cfg)
		require.NoError(t, err)
		require.NotNil(t, shutdown)
		assert.NoError(t, shutdown(context.Background()))
	}
}

func TestTracer_NoopBeforeSetup(t *testing.T) {
	_, span := Tracer("test").Start(context.Background(), "op")
	defer span.End()
	assert.False(t, span.SpanContext().IsValid())
}
