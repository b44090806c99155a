package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLogLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLogLevel(" error "))
	assert.Equal(t, zapcore.InfoLevel, ParseLogLevel("verbose"))
}

func TestNewLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")

	logger, err := NewLogger("info", path)
	require.NoError(t, err)
	logger.Info("Catalog providers configured")
	logger.Debug("hidden")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "INFO | ")
	assert.Contains(t, string(data), "Catalog providers configured")
	assert.NotContains(t, string(data), "hidden")
}
