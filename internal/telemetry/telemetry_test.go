package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fyrsmithlabs/tasklist/internal/config"
)

func TestNew_DisabledTelemetry(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, tel)

	assert.NotNil(t, tel.Tracer("test"))
	assert.NotNil(t, tel.Meter("test"))
	assert.False(t, tel.IsEnabled())
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := &Config{Enabled: true}

	tel, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, tel)
	assert.Contains(t, err.Error(), "invalid telemetry config")
}

func TestTelemetry_Health(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)

	health := tel.Health()
	assert.True(t, health.Healthy)
	assert.False(t, health.Degraded)
	assert.Empty(t, health.LastError)
}

func TestTelemetry_NilSafe(t *testing.T) {
	var tel *Telemetry

	assert.NotPanics(t, func() {
		_ = tel.Tracer("test")
		_ = tel.Meter("test")
		_ = tel.LoggerProvider()
		_ = tel.Health()
		_ = tel.IsEnabled()
		_ = tel.Shutdown(context.Background())
		_ = tel.ForceFlush(context.Background())
	})

	health := tel.Health()
	assert.False(t, health.Healthy)
	assert.True(t, health.Degraded)
}

func TestTelemetry_Shutdown(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)

	require.NoError(t, tel.Shutdown(context.Background()))
	assert.False(t, tel.Health().Healthy)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "disabled skips checks", mutate: func(c *Config) { c.Enabled = false; c.Endpoint = "" }},
		{name: "valid local grpc", mutate: func(c *Config) {}},
		{name: "missing endpoint", mutate: func(c *Config) { c.Endpoint = "" }, wantErr: "endpoint is required"},
		{name: "missing service name", mutate: func(c *Config) { c.ServiceName = "" }, wantErr: "service_name is required"},
		{name: "bad protocol", mutate: func(c *Config) { c.Protocol = "udp" }, wantErr: "protocol must be"},
		{name: "insecure remote", mutate: func(c *Config) { c.Endpoint = "otel.example.com:4317" }, wantErr: "insecure connections"},
		{name: "sample rate too high", mutate: func(c *Config) { c.SampleRate = 1.5 }, wantErr: "sample rate"},
		{name: "zero metrics interval", mutate: func(c *Config) { c.MetricsInterval = 0 }, wantErr: "metrics interval"},
		{name: "zero shutdown timeout", mutate: func(c *Config) { c.ShutdownTimeout = 0 }, wantErr: "shutdown timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			cfg.Enabled = true
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.ObservabilityConfig{
		EnableTelemetry: true,
		ServiceName:     "tasklist-prod",
		Endpoint:        "https://otel.example.com:4318",
		Protocol:        "http/protobuf",
	}, "1.2.3")

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "tasklist-prod", cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
	assert.Equal(t, "http/protobuf", cfg.Protocol)
	assert.False(t, cfg.Insecure)
	assert.Equal(t, 15*time.Second, cfg.MetricsInterval)
	assert.NoError(t, cfg.Validate())
}

func TestIsLocalEndpoint(t *testing.T) {
	assert.True(t, isLocalEndpoint("localhost:4317"))
	assert.True(t, isLocalEndpoint("127.0.0.1:4317"))
	assert.True(t, isLocalEndpoint("[::1]:4317"))
	assert.True(t, isLocalEndpoint("http://localhost:4318"))
	assert.False(t, isLocalEndpoint("otel.example.com:4317"))
}

func TestTestTelemetry_RecordsSpansAndCounters(t *testing.T) {
	tt := NewTestTelemetry()
	ctx := context.Background()

	_, span := tt.Tracer("test").Start(ctx, "tasks.Add")
	span.SetAttributes(attribute.Int64("task.priority", 3))
	span.End()

	counter, err := tt.Meter("test").Int64Counter("tasklist.tasks.created")
	require.NoError(t, err)
	counter.Add(ctx, 2)
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("priority", "high")))

	tt.AssertSpanExists(t, "tasks.Add")
	tt.AssertSpanAttribute(t, "tasks.Add", "task.priority", int64(3))
	assert.Equal(t, int64(3), tt.CounterValue(t, "tasklist.tasks.created"))
	assert.True(t, tt.IsEnabled())
}
