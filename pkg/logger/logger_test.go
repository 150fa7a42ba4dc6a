package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for name, want := range tests {
		assert.Equal(t, want, ParseLevel(name), name)
	}
}

func TestNew_JSONWithService(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Output: &buf, Service: "reservations"})

	log.Debug("hidden")
	log.With("resource_id", "lab-1").Info("booked", "reservation_id", "r1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "only one line should be written")
	assert.Equal(t, "booked", entry["msg"])
	assert.Equal(t, "reservations", entry["service"])
	assert.Equal(t, "lab-1", entry["resource_id"])
	assert.Equal(t, "r1", entry["reservation_id"])
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Format: TEXT, Output: &buf}).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}
