package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/zzliekkas/qiniustorage/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(config.NewConfig())
	require.NoError(t, err)

	assert.Equal(t, "qiniustorage", cfg.ServiceName)
	assert.Equal(t, ExporterNone, cfg.Exporter)
	assert.Equal(t, 1.0, cfg.SamplingRate)
}

func TestLoadConfigFromSettings(t *testing.T) {
	r := config.NewConfig(config.WithSettings(map[string]interface{}{
		KeyExporter:     " STDOUT ",
		KeySamplingRate: "0.5",
	}))

	cfg, err := LoadConfig(r)
	require.NoError(t, err)
	assert.Equal(t, ExporterStdout, cfg.Exporter)
	assert.Equal(t, 0.5, cfg.SamplingRate)
}

func TestNewDisabledProvider(t *testing.T) {
	p, err := New(context.Background(), DefaultConfig())
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.NotNil(t, p.TracerProvider())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewStdoutProvider(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Exporter = ExporterStdout
	cfg.Writer = &buf

	p, err := New(context.Background(), cfg)
	require.NoError(t, err)
	require.True(t, p.Enabled())

	_, span := otel.Tracer("test").Start(context.Background(), "storage.stat")
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), "storage.stat")
}

func TestUnsupportedExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exporter = "zipkin"

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased{0.5}")
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
}
