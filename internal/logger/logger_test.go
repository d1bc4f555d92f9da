package logger_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/DonovanMods/mc-mod-manager/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_WritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.New(logger.Config{Writer: &buf})
	require.NoError(t, err)

	log.Info("scan finished", zap.Int("records", 3))
	log.Debug("hidden at info level")
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "scan finished")
	assert.Contains(t, out, `"records": 3`)
	assert.NotContains(t, out, "hidden at info level")
}

func TestNew_VerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.New(logger.Config{Writer: &buf, Level: "error", Verbose: true})
	require.NoError(t, err)

	log.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mcmm.log")
	log, err := logger.New(logger.Config{File: path})
	require.NoError(t, err)

	log.Warn("retrying download")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "retrying download")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"WARN", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		got, err := logger.ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, logger.OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, logger.OrNop(l))
}
