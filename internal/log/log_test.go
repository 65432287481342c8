package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromVerbosity(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, LevelFromVerbosity(0))
	assert.Equal(t, slog.LevelInfo, LevelFromVerbosity(1))
	assert.Equal(t, slog.LevelDebug, LevelFromVerbosity(2))
	assert.Equal(t, slog.LevelDebug, LevelFromVerbosity(5))
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatJSON, ParseFormat(" JSON "))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatText, ParseFormat(""))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Verbosity: 1, Format: FormatJSON, Output: &buf})

	logger.Info("reconciled", "project", "app", "generation", 3)
	logger.Debug("hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "reconciled", rec["msg"])
	assert.Equal(t, "app", rec["project"])
	assert.EqualValues(t, 3, rec["generation"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNew_TextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Verbosity: 0, Output: &buf})

	logger.Info("quiet")
	logger.Warn("descriptor unreadable", "file", "build.hcl")

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "descriptor unreadable")
	assert.Contains(t, out, "build.hcl")
}

