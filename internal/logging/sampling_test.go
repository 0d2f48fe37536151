package logging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fyrsmithlabs/tasklist/internal/config"
)

func TestNewSampledCore_Disabled(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)

	assert.Equal(t, core, newSampledCore(core, SamplingConfig{Enabled: false}))
}

func TestNewSampledCore_ErrorsNeverSampled(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	sampled := newSampledCore(core, SamplingConfig{
		Enabled: true,
		Tick:    config.Duration(time.Second),
		Levels:  DefaultLevelSamplingConfig(),
	})
	logger := &Logger{zap: zap.New(sampled), config: NewDefaultConfig()}

	for i := 0; i < 150; i++ {
		logger.Error(context.Background(), "backup failed")
	}

	assert.Len(t, observed.FilterMessage("backup failed").All(), 150)
}

func TestNewSampledCore_InfoSampled(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	sampled := newSampledCore(core, SamplingConfig{
		Enabled: true,
		Tick:    config.Duration(time.Minute),
		Levels: map[zapcore.Level]LevelSamplingConfig{
			zapcore.InfoLevel: {Initial: 5, Thereafter: 0},
		},
	})
	logger := &Logger{zap: zap.New(sampled), config: NewDefaultConfig()}

	for i := 0; i < 50; i++ {
		logger.Info(context.Background(), "http request")
	}

	assert.Len(t, observed.FilterMessage("http request").All(), 5)
}
