package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, Options{Level: "warn"})

	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("report_denied", "status", 429)
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "report_denied", line["msg"])
	assert.EqualValues(t, 429, line["status"])
	assert.NotContains(t, line, "service")
}

func TestNewWithWriter_TagsService(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, Options{Service: "gig_board"})

	l.Info("gig created", "gig_id", 7)
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "gig_board", line["service"])
	assert.EqualValues(t, 7, line["gig_id"])
}

func TestNewWithWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, Options{Service: "gig_board", Format: "TEXT"})

	l.Info("gig created")
	out := buf.String()
	assert.Contains(t, out, "msg=\"gig created\"")
	assert.Contains(t, out, "service=gig_board")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: " WARN ", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "", want: slog.LevelInfo},
		{in: "verbose", want: slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	var buf bytes.Buffer
	l := NewWithWriter(&buf, Options{})
	ctx := IntoContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}
