package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/chaisql/tally/internal/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"off", zerolog.Disabled},
		{"nope", zerolog.InfoLevel},
	}

	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			require.Equal(t, test.expected, logger.ParseLevel(test.in))
		})
	}
}

func TestGet(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	logger.SetupWriter(&buf, "info", "json")

	l := logger.Get("loader")
	l.Debug().Msg("hidden")
	l.Info().Int("rows", 3).Msg("loaded")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	require.Equal(t, "loader", entry["component"])
	require.Equal(t, "loaded", entry["message"])
	require.EqualValues(t, 3, entry["rows"])
}
