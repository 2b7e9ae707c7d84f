package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestSetLogLevel(t *testing.T) {
	defer func() { _ = SetLogLevel("info") }()

	for level, want := range map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	} {
		assert.NoError(t, SetLogLevel(level))
		assert.Equal(t, want, logLevel.Level())
	}

	assert.Error(t, SetLogLevel("verbose"))
}

func TestNew(t *testing.T) {
	logger := New("planner", NewField("team", "backend"))
	assert.NotNil(t, logger)
	assert.Same(t, DefaultLogger(), DefaultLogger())
}
