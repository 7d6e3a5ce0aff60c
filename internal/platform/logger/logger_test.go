package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVsRedactsContactFields(t *testing.T) {
	out := sanitizeKVs([]interface{}{"member_id", "abc", "email", "a@b.mx", "Phone", "555", "dangling"})
	assert.Equal(t, []interface{}{"member_id", "abc", "email", "[REDACTED]", "Phone", "[REDACTED]", "dangling"}, out)
}

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("component", "membership").Info("member created", "member_id", "m1", "email", "x@y.mx")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "membership", fields["component"])
		assert.Equal(t, "m1", fields["member_id"])
		assert.Equal(t, "[REDACTED]", fields["email"])
	}
}

func TestNewLevelFollowsEnvironment(t *testing.T) {
	prod, err := New(true)
	if assert.NoError(t, err) {
		assert.False(t, prod.SugaredLogger.Desugar().Core().Enabled(zap.DebugLevel))
		assert.True(t, prod.SugaredLogger.Desugar().Core().Enabled(zap.InfoLevel))
	}

	dev, err := New(false)
	if assert.NoError(t, err) {
		assert.True(t, dev.SugaredLogger.Desugar().Core().Enabled(zap.DebugLevel))
	}
}
