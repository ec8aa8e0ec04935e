package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected zapcore.Level
		wantErr  bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			level, err := parseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil).Logger)
	assert.NotNil(t, OrNop(&Logger{}).Logger)

	l := NewNop()
	assert.Same(t, l, OrNop(l))
}

func TestNamedKeepsWrapper(t *testing.T) {
	child := NewNop().Named("transport")
	require.NotNil(t, child)
	child.Info("still works")
}

func TestFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		cfg     Config
		enabled zapcore.Level
		muted   zapcore.Level
	}{
		{"explicit level", "", Config{Level: "warn"}, zapcore.WarnLevel, zapcore.InfoLevel},
		{"default level", "", Config{}, zapcore.InfoLevel, zapcore.DebugLevel},
		{"dev env lowers unset level", "dev", Config{}, zapcore.DebugLevel, zapcore.InvalidLevel},
		{"dev env keeps explicit level", "development", Config{Level: "error"}, zapcore.ErrorLevel, zapcore.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENV", tt.env)
			l, err := FromConfig(tt.cfg)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.enabled))
			if tt.muted != zapcore.InvalidLevel {
				assert.False(t, l.Core().Enabled(tt.muted))
			}
		})
	}
}

func TestFromConfigWritesToFile(t *testing.T) {
	t.Setenv("ENV", "")
	path := filepath.Join(t.TempDir(), "deskview.log")

	l, err := FromConfig(Config{Output: path})
	require.NoError(t, err)
	l.Named("store").Info("applied message")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"logger":"store"`)
	assert.Contains(t, string(data), `"message":"applied message"`)
}

func TestEncoderConfigModes(t *testing.T) {
	assert.Equal(t, "message", encoderConfig(false).MessageKey)
	assert.Equal(t, "M", encoderConfig(true).MessageKey)
}
