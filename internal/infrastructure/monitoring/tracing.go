package monitoring

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TracingConfig holds tracing configuration
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	Insecure       bool
	SamplingRate   float64
	Enabled        bool
}

// TracingProvider wraps OpenTelemetry tracing functionality
type TracingProvider struct {
	provider *sdktrace.TracerProvider
	logger   *zap.Logger
	config   TracingConfig
}

// NewTracingProvider creates a new tracing provider. When disabled the global
// no-op provider stays in place and spans cost nothing.
func NewTracingProvider(ctx context.Context, config TracingConfig, logger *zap.Logger) (*TracingProvider, error) {
	logger = logger.Named("tracing")
	if !config.Enabled {
		logger.Info("Tracing is disabled")
		return &TracingProvider{
			logger: logger,
			config: config,
		}, nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(config.Endpoint)}
	if config.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			semconv.DeploymentEnvironment(config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(config.SamplingRate))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("Tracing initialized",
		zap.String("service", config.ServiceName),
		zap.String("version", config.ServiceVersion),
		zap.String("environment", config.Environment),
		zap.String("endpoint", config.Endpoint),
		zap.Float64("sampling_rate", config.SamplingRate),
	)

	return &TracingProvider{
		provider: tp,
		logger:   logger,
		config:   config,
	}, nil
}

// Enabled reports whether spans are exported
func (t *TracingProvider) Enabled() bool {
	return t.provider != nil
}

// Shutdown flushes pending spans and stops the exporter
func (t *TracingProvider) Shutdown(ctx context.Context) error {
	if t.provider != nil {
		return t.provider.Shutdown(ctx)
	}
	return nil
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
