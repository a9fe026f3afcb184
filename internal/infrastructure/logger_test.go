package infrastructure

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/architeacher/svc-pattern-queue/internal/config"
)

func TestNewLoggerLevel(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		level    string
		expected zerolog.Level
	}{
		{name: "debug", level: "debug", expected: zerolog.DebugLevel},
		{name: "upper case", level: "WARN", expected: zerolog.WarnLevel},
		{name: "unknown falls back to info", level: "verbose", expected: zerolog.InfoLevel},
		{name: "empty falls back to info", level: "", expected: zerolog.InfoLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			logger := newLogger(&bytes.Buffer{}, config.LoggingConfig{Level: tc.level, Format: "json"})

			assert.Equal(t, tc.expected, logger.GetLevel())
		})
	}
}

func TestLoggerComponent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewTestLogger(&buf).Component("publisher").Info().Str("pattern", "events").Msg("pushed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "publisher", entry["component"])
	assert.Equal(t, "events", entry["pattern"])
	assert.Equal(t, "pushed", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "time")
}

func TestLoggerTextFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	newLogger(&buf, config.LoggingConfig{Level: "info", Format: "text"}).Info().Msg("ready")

	assert.Contains(t, buf.String(), "ready")
	assert.False(t, json.Valid(buf.Bytes()))
}
