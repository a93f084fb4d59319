// Package tracing 配置 OpenTelemetry 分布式追踪
package tracing

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zzliekkas/qiniustorage/config"
)

// 导出器类型
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// 配置键
const (
	KeyServiceName  = "OTEL_SERVICE_NAME"
	KeyExporter     = "OTEL_EXPORTER_TYPE"
	KeyOTLPEndpoint = "OTLP_ENDPOINT"
	KeySamplingRate = "OTEL_SAMPLING_RATE"
	KeyEnvironment  = "APP_ENV"
)

// Config 追踪配置
type Config struct {
	// 服务名称
	ServiceName string

	// 服务版本
	ServiceVersion string

	// 服务环境
	Environment string

	// 导出器类型：none, stdout, otlp
	Exporter string

	// 采样率 (0.0-1.0)
	SamplingRate float64

	// OTLP端点 (如: localhost:4317)
	OTLPEndpoint string

	// stdout 导出器的输出目标，为空时使用标准输出
	Writer io.Writer

	// 批处理延迟
	BatchDelay time.Duration
}

// DefaultConfig 返回默认追踪配置，默认不导出
func DefaultConfig() Config {
	return Config{
		ServiceName:  "qiniustorage",
		Exporter:     ExporterNone,
		SamplingRate: 1.0,
		OTLPEndpoint: "localhost:4317",
		BatchDelay:   5 * time.Second,
	}
}

// LoadConfig 从配置解析器读取追踪配置
func LoadConfig(r config.Resolver) (Config, error) {
	cfg := DefaultConfig()

	var err error
	if cfg.ServiceName, err = config.ResolveString(r, KeyServiceName, cfg.ServiceName); err != nil {
		return cfg, err
	}
	if cfg.Exporter, err = config.ResolveString(r, KeyExporter, cfg.Exporter); err != nil {
		return cfg, err
	}
	if cfg.OTLPEndpoint, err = config.ResolveString(r, KeyOTLPEndpoint, cfg.OTLPEndpoint); err != nil {
		return cfg, err
	}
	if cfg.Environment, err = config.ResolveString(r, KeyEnvironment, ""); err != nil {
		return cfg, err
	}

	if cfg.SamplingRate, err = config.ResolveFloat(r, KeySamplingRate, cfg.SamplingRate); err != nil {
		return cfg, err
	}

	cfg.Exporter = strings.ToLower(strings.TrimSpace(cfg.Exporter))
	return cfg, nil
}

// Provider 分布式追踪提供者
type Provider struct {
	config   Config
	provider *sdktrace.TracerProvider
}

// New 根据配置创建追踪提供者并设置为全局提供者
// 导出器为 none 时不安装任何提供者
func New(ctx context.Context, cfg Config) (*Provider, error) {
	p := &Provider{config: cfg}
	if cfg.Exporter == "" || cfg.Exporter == ExporterNone {
		return p, nil
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("创建导出器失败: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("创建资源失败: %w", err)
	}

	var processor sdktrace.SpanProcessor
	if cfg.Exporter == ExporterStdout {
		processor = sdktrace.NewSimpleSpanProcessor(exporter)
	} else {
		processor = sdktrace.NewBatchSpanProcessor(exporter, sdktrace.WithBatchTimeout(cfg.BatchDelay))
	}

	p.provider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SamplingRate)),
		sdktrace.WithSpanProcessor(processor),
	)

	otel.SetTracerProvider(p.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return p, nil
}

// Enabled 返回是否启用了导出
func (p *Provider) Enabled() bool {
	return p.provider != nil
}

// TracerProvider 返回追踪提供者，未启用时返回空实现
func (p *Provider) TracerProvider() trace.TracerProvider {
	if p.provider == nil {
		return noop.NewTracerProvider()
	}
	return p.provider
}

// Shutdown 关闭提供者，确保所有span都被导出
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case ExporterStdout:
		opts := []stdouttrace.Option{}
		if cfg.Writer != nil {
			opts = append(opts, stdouttrace.WithWriter(cfg.Writer))
		}
		return stdouttrace.New(opts...)
	case ExporterOTLP:
		if cfg.OTLPEndpoint == "" {
			return nil, fmt.Errorf("OTLP端点未配置")
		}
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("不支持的导出器类型: %s", cfg.Exporter)
	}
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case rate <= 0.0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}
