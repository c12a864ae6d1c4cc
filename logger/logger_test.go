package logger

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		level      string
	}{
		{"JSON output mode", true, "info"},
		{"Console output mode", false, "debug"},
		{"Unknown level falls back", false, "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Logger = nil
			JSONOutput = false
			t.Cleanup(func() { Logger = zap.NewNop().Sugar() })

			require.NoError(t, Initialize(tt.jsonOutput, tt.level))
			assert.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("nonsense"))
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, "warn", VerbosityToLevel(VerbosityDefault, "warn"))
	assert.Equal(t, "info", VerbosityToLevel(VerbosityInfo, "error"))
	assert.Equal(t, "debug", VerbosityToLevel(VerbosityInfo, "debug"))
	assert.Equal(t, "debug", VerbosityToLevel(VerbosityDebug, "error"))
}

func TestFromContext_AddsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core).Sugar()

	ctx := WithRequestID(context.Background(), "req-123")
	assert.Equal(t, "req-123", RequestIDFromContext(ctx))

	FromContext(ctx, base).Infow("hello")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-123", logs.All()[0].ContextMap()[FieldRequestID])

	FromContext(context.Background(), base).Infow("bare")
	_, ok := logs.All()[1].ContextMap()[FieldRequestID]
	assert.False(t, ok)
}

func TestConsoleEncoder_Format(t *testing.T) {
	enc := newConsoleEncoder()
	ent := zapcore.Entry{
		Level:      zapcore.WarnLevel,
		Time:       time.Date(2024, 1, 2, 13, 4, 35, 0, time.UTC),
		LoggerName: "server.http",
		Message:    "attempt failed",
	}
	fields := []zapcore.Field{
		zap.String(FieldRequestID, "0123456789abcdef"),
		zap.String(FieldModel, "gpt-4o-mini"),
		zap.Int(FieldAttempt, 2),
		zap.Int64(FieldDurationMS, 812),
		zap.String("ignored", "x"),
	}

	buf, err := enc.EncodeEntry(ent, fields)
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "13:04:35")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "s.http")
	assert.Contains(t, out, "attempt failed")
	assert.Contains(t, out, "01234567…")
	assert.Contains(t, out, "gpt-4o-mini")
	assert.Contains(t, out, "812")
	assert.NotContains(t, out, "ignored")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestAbbreviateName(t *testing.T) {
	assert.Equal(t, "server", abbreviateName("server"))
	assert.Equal(t, "s.http", abbreviateName("server.http"))
	assert.Equal(t, "a.openai.client", abbreviateName("ai.openai.client"))
}
