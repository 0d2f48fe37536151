package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fyrsmithlabs/tasklist/internal/config"
)

func TestNewLogger(t *testing.T) {
	cfg := NewDefaultConfig()

	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Equal(t, cfg, logger.config)
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"

	_, err := NewLogger(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format must be")
}

func TestNewLogger_NoOutputs(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output.Stdout = false
	cfg.Output.OTEL = true // provider is nil, so nothing is available

	_, err := NewLogger(cfg, nil)
	require.Error(t, err)
}

func TestLogger_ContextAwareMethods(t *testing.T) {
	core, observed := observer.New(TraceLevel)
	logger := &Logger{zap: zap.New(core), config: NewDefaultConfig()}
	ctx := context.Background()

	tests := []struct {
		name    string
		logFunc func()
		level   zapcore.Level
	}{
		{"trace", func() { logger.Trace(ctx, "msg") }, TraceLevel},
		{"debug", func() { logger.Debug(ctx, "msg") }, zapcore.DebugLevel},
		{"info", func() { logger.Info(ctx, "msg") }, zapcore.InfoLevel},
		{"warn", func() { logger.Warn(ctx, "msg") }, zapcore.WarnLevel},
		{"error", func() { logger.Error(ctx, "msg") }, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observed.TakeAll()
			tt.logFunc()

			logs := observed.All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.level, logs[0].Level)
		})
	}
}

func TestLogger_AddsContextFields(t *testing.T) {
	tl := NewTestLogger()

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithSessionID(ctx, "sess_abc")
	ctx = WithUser(ctx, &User{ID: 7, Name: "alice"})

	tl.Info(ctx, "task added", zap.Uint("task_id", 3))

	tl.AssertField(t, "task added", "request.id", "req-1")
	tl.AssertField(t, "task added", "session.id", "sess_abc")
	tl.AssertField(t, "task added", "user.id", uint64(7))
	tl.AssertField(t, "task added", "user.name", "alice")
	tl.AssertField(t, "task added", "task_id", uint64(3))
}

func TestLogger_WithAndNamed(t *testing.T) {
	tl := NewTestLogger()

	child := tl.Named("backup").With(zap.String("trigger", "manual"))
	child.Info(context.Background(), "run started")

	logs := tl.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "backup", logs[0].LoggerName)
	assert.Equal(t, "manual", logs[0].ContextMap()["trigger"])
}

func TestLevelFromString(t *testing.T) {
	lvl, err := LevelFromString("trace")
	require.NoError(t, err)
	assert.Equal(t, TraceLevel, lvl)

	lvl, err = LevelFromString("warn")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, lvl)

	_, err = LevelFromString("loud")
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.LoggingConfig{Level: "debug", Format: "console"})
	assert.Equal(t, zapcore.DebugLevel, cfg.Level)
	assert.Equal(t, "console", cfg.Format)

	cfg = FromConfig(config.LoggingConfig{Level: "nonsense"})
	assert.Equal(t, zapcore.InfoLevel, cfg.Level)
	assert.Equal(t, "json", cfg.Format)
}

func TestFromContext_DefaultsToNop(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	l.Info(context.Background(), "dropped")

	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)
	FromContext(ctx).Info(ctx, "kept")
	tl.AssertLogged(t, zapcore.InfoLevel, "kept")
}

func TestWithRequestID_PanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() { WithRequestID(context.Background(), "bad id!") })
	assert.False(t, ValidID("bad id!"))
	assert.True(t, ValidID("Abc_123-x"))
}
