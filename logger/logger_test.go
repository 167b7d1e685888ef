package logger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/UNO-SOFT/formparse/logger"
)

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	ctx := logger.WithLogger(context.Background(), l.WithComponent("parser"))
	ctx = logger.WithRequestID(ctx, "req-1")
	logger.Warn(ctx, "unsupported cell", "cell", "c1")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		e := entries[0]
		assert.Equal(t, "unsupported cell", e.Message)
		m := e.ContextMap()
		assert.Equal(t, "parser", m["component"])
		assert.Equal(t, "req-1", m["request_id"])
		assert.Equal(t, "c1", m["cell"])
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	l, err := logger.New(logger.Config{Level: "nonsense"})
	if assert.NoError(t, err) {
		assert.False(t, l.Desugar().Core().Enabled(zap.DebugLevel))
		assert.True(t, l.Desugar().Core().Enabled(zap.InfoLevel))
	}
	assert.Equal(t, "", logger.RequestID(context.Background()))
}
