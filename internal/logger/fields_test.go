package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  provider  ", Value: "  Gemini  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	require.Len(t, fields, 1)
	assert.Equal(t, "provider", fields[0].Key)
	assert.Equal(t, "Gemini", fields[0].String)

	assert.Empty(t, StringFields())
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	enriched := WithFields(logger, zap.String("foo", "bar"))
	enriched.Info("test log")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "bar", entries[0].ContextMap()["foo"])

	enriched = WithFields(nil, zap.String("baz", "qux"))
	require.NotNil(t, enriched)

	// Logging with the fallback logger must not panic.
	assert.NotPanics(t, func() { enriched.Info("another log") })
}

func TestCommonFields(t *testing.T) {
	fields := CommonFields("  Gemini  ", "model-v1")
	require.Len(t, fields, 2)

	assert.Equal(t, FieldProvider, fields[0].Key)
	assert.Equal(t, "Gemini", fields[0].String)
	assert.Equal(t, FieldModel, fields[1].Key)
	assert.Equal(t, "model-v1", fields[1].String)

	assert.Empty(t, CommonFields("", ""))
}

func TestWithCommonFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	enriched := WithCommonFields(logger, "gemini", "model-x")
	enriched.Info("test log")

	entries := observed.All()
	require.Len(t, entries, 1)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "gemini", ctx[FieldProvider])
	assert.Equal(t, "model-x", ctx[FieldModel])

	enriched = WithCommonFields(nil, "gemini", "model-x")
	require.NotNil(t, enriched)
	assert.NotPanics(t, func() { enriched.Info("another log") })
}

func TestRequestFields(t *testing.T) {
	fields := RequestFields("req-1", "")
	require.Len(t, fields, 1)
	assert.Equal(t, FieldRequestID, fields[0].Key)
	assert.Equal(t, "req-1", fields[0].String)

	fields = RequestFields("req-2", "enhanced")
	require.Len(t, fields, 2)
	assert.Equal(t, FieldMode, fields[1].Key)
	assert.Equal(t, "enhanced", fields[1].String)
}

func TestNew(t *testing.T) {
	for _, json := range []bool{false, true} {
		l, err := New(json, true)
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	}

	l, err := New(false, false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}
