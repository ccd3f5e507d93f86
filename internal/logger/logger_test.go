package logger

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		wantErr  bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{" info ", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"ERROR", LevelError, false},
		{"invalid", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)
	l.SetLevel(LevelWarn)

	l.Debug("debug message")
	l.Info("info message")
	assert.NotContains(t, buf.String(), "debug message")
	assert.NotContains(t, buf.String(), "info message")

	l.Warn("warn message")
	l.Error("error message")
	assert.Contains(t, buf.String(), "warn message")
	assert.Contains(t, buf.String(), "error message")
}

func TestLogger_LogFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)
	l.SetLevel(LevelDebug)

	l.Info("rendered step %d", 3)

	assert.Contains(t, buf.String(), "[INFO]")
	assert.Contains(t, buf.String(), "rendered step 3")
}

func TestLogger_EnvVarLogLevel(t *testing.T) {
	t.Setenv(EnvLevel, "debug")

	l := New()
	assert.Equal(t, LevelDebug, l.level)
}

func TestLogger_EnvVarInvalidLevelKeepsDefault(t *testing.T) {
	t.Setenv(EnvLevel, "loud")

	l := New()
	assert.Equal(t, LevelInfo, l.level)
}

func TestLogger_EnvVarLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agenttrace.log")
	t.Setenv(EnvFile, path)

	l := New()
	l.Info("test message")
	require.NoError(t, l.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "test message")
}

func TestLogger_Configure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configured.log")
	l := New()

	require.NoError(t, l.Configure("debug", path))
	l.Debug("configured debug")
	require.NoError(t, l.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "[DEBUG] configured debug")
}

func TestLogger_ConfigureRejectsBadLevel(t *testing.T) {
	l := New()
	assert.Error(t, l.Configure("chatty", ""))
}

func TestLogger_ConfigureEmptyKeepsLevel(t *testing.T) {
	l := New()
	l.SetLevel(LevelError)

	require.NoError(t, l.Configure("", ""))
	assert.Equal(t, LevelError, l.level)
}

func TestLogger_CloseWithoutFile(t *testing.T) {
	l := New()
	assert.NoError(t, l.Close())
}

func TestPackageLevelFunctions(t *testing.T) {
	var buf bytes.Buffer
	Default.SetOutput(&buf)
	Default.SetLevel(LevelDebug)
	t.Cleanup(func() {
		Default.SetOutput(io.Discard)
		Default.SetLevel(LevelInfo)
	})

	Debug("debug %s", "test")
	Info("info %s", "test")
	Warn("warn %s", "test")
	Error("error %s", "test")

	output := buf.String()
	assert.Contains(t, output, "debug test")
	assert.Contains(t, output, "info test")
	assert.Contains(t, output, "warn test")
	assert.Contains(t, output, "error test")
}
