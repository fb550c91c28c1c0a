package logger

import (
	"testing"

	"github.com/EthanMiao/manaboo/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want zapcore.Level
	}{
		{name: "debug mode", cfg: config.Config{Server: config.ServerConfig{Mode: "debug"}}, want: zap.DebugLevel},
		{name: "release mode", cfg: config.Config{Server: config.ServerConfig{Mode: "release"}}, want: zap.InfoLevel},
		{name: "explicit level wins", cfg: config.Config{Server: config.ServerConfig{Mode: "debug"}, Log: config.LogConfig{Level: "warn"}}, want: zap.WarnLevel},
		{name: "invalid level falls back", cfg: config.Config{Server: config.ServerConfig{Mode: "release"}, Log: config.LogConfig{Level: "loud"}}, want: zap.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LevelFor(&tt.cfg))
		})
	}
}

func TestSetLevel(t *testing.T) {
	old := Level()
	defer SetLevel(old)

	SetLevel(zap.ErrorLevel)
	assert.Equal(t, zap.ErrorLevel, Level())
}
