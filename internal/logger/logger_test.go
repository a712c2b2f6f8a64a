package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level zerolog.Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewWithWriter(&buf, level), &buf
}

func decodeLine(t *testing.T, line string) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry), "expected valid JSON, got %q", line)
	return entry
}

func TestNew_Modes(t *testing.T) {
	for _, env := range []string{"development", "production", "test"} {
		t.Run(env, func(t *testing.T) {
			log := New(env)
			require.NotNil(t, log)
			assert.NotNil(t, log.GetZerolog())
		})
	}
}

func TestLevels(t *testing.T) {
	log, buf := newBufferLogger(zerolog.DebugLevel)

	log.Debug("debug message", map[string]interface{}{"key1": "value1", "key2": 42})
	log.Info("info message", map[string]interface{}{"property_id": 7})
	log.Warn("warning message", map[string]interface{}{"status": "archived"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	debug := decodeLine(t, lines[0])
	assert.Equal(t, "debug", debug["level"])
	assert.Equal(t, "debug message", debug["message"])
	assert.Equal(t, "value1", debug["key1"])
	assert.Equal(t, float64(42), debug["key2"])

	info := decodeLine(t, lines[1])
	assert.Equal(t, "info", info["level"])
	assert.Equal(t, float64(7), info["property_id"])
	assert.NotEmpty(t, info["time"])

	warn := decodeLine(t, lines[2])
	assert.Equal(t, "warn", warn["level"])
	assert.Equal(t, "archived", warn["status"])
}

func TestError(t *testing.T) {
	log, buf := newBufferLogger(zerolog.InfoLevel)

	log.Error("failed to insert property", errors.New("disk I/O error"), map[string]interface{}{
		"context": "database",
	})

	entry := decodeLine(t, strings.TrimSpace(buf.String()))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "disk I/O error", entry["error"])
	assert.Equal(t, "database", entry["context"])
}

func TestInfoLevelDropsDebug(t *testing.T) {
	log, buf := newBufferLogger(zerolog.InfoLevel)

	log.Debug("debug message", nil)
	assert.Empty(t, buf.String())

	log.Info("info message", nil)
	assert.Contains(t, buf.String(), "info message")
}

func TestWith(t *testing.T) {
	log, buf := newBufferLogger(zerolog.InfoLevel)

	log.With(map[string]interface{}{"component": "store"}).Info("test message", nil)

	entry := decodeLine(t, strings.TrimSpace(buf.String()))
	assert.Equal(t, "store", entry["component"])
}

func TestWithRequestID(t *testing.T) {
	log, buf := newBufferLogger(zerolog.InfoLevel)

	log.WithRequestID("req-12345").Info("request received", nil)

	entry := decodeLine(t, strings.TrimSpace(buf.String()))
	assert.Equal(t, "req-12345", entry["request_id"])
}

func TestNop(t *testing.T) {
	log := Nop()
	assert.NotPanics(t, func() {
		log.Info("dropped", map[string]interface{}{"a": 1})
		log.Error("dropped", errors.New("x"), nil)
	})
}
