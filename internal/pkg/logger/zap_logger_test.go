package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerWritesModuleAndDetails(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromZap(zap.New(core))

	l.Info("SEARCH", "fan-out finished", map[string]interface{}{"results": 3})
	l.Error("COMPACTION", "summary failed", map[string]interface{}{"error": errors.New("timeout")})
	l.Warn("RERANK", "no details", nil)

	entries := logs.All()
	assert.Len(t, entries, 3)
	assert.Equal(t, "SEARCH", entries[0].ContextMap()["module"])
	assert.Contains(t, entries[1].ContextMap(), "error_ref")
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
}

func TestNamedCarriesModule(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromZap(zap.New(core))

	l.Named("INTENT").Debug("heuristic hit", zap.String("intent", "direct"))

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "INTENT", entries[0].ContextMap()["module"])
	assert.Equal(t, "direct", entries[0].ContextMap()["intent"])
}
