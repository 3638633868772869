package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/duaragha/cat-tracker-sub000/common/config"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	require.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	require.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}

func TestNew_WritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")
	l, err := New(config.LogConfig{Level: "info", Format: "json", File: path}, "cat-tracker")
	require.NoError(t, err)

	l.Info("hello file")
	_ = l.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), "hello file")
	require.Contains(t, string(b), `"service_name":"cat-tracker"`)
}
