package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/gitrdm/gowgp/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		json      bool
		wantLevel zapcore.Level
		wantErr   bool
	}{
		{name: "console info", level: "info", wantLevel: zapcore.InfoLevel},
		{name: "json debug", level: "debug", json: true, wantLevel: zapcore.DebugLevel},
		{name: "empty level means info", level: "", wantLevel: zapcore.InfoLevel},
		{name: "upper case", level: "WARN", wantLevel: zapcore.WarnLevel},
		{name: "unknown level", level: "chatty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.level, tt.json)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, l)
			assert.True(t, l.Core().Enabled(tt.wantLevel))
			if tt.wantLevel > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tt.wantLevel-1))
			}
		})
	}
}

func TestFromConfig(t *testing.T) {
	l, err := FromConfig(config.LogConfig{Level: "error", JSON: true})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.ErrorLevel))
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
}
