package monitoring

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/studioconnect/relay/internal/config"
	"github.com/studioconnect/relay/pkg/logger"
)

// TracingManager owns the OpenTelemetry tracer provider lifecycle.
type TracingManager struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	log      logger.Logger
}

// NewTracingManager sets up Jaeger-exported tracing when enabled; when
// disabled it returns a manager backed by the global no-op tracer.
func NewTracingManager(cfg *config.TracingConfig, log logger.Logger) (*TracingManager, error) {
	if !cfg.Enabled {
		log.Info(context.Background(), "tracing is disabled")
		return &TracingManager{
			tracer: otel.Tracer(cfg.ServiceName),
			log:    log,
		}, nil
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(
		jaeger.WithEndpoint(cfg.JaegerEndpoint),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create Jaeger exporter: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info(context.Background(), "tracing initialized", logger.Fields{
		"endpoint": cfg.JaegerEndpoint,
	})

	return &TracingManager{
		tracer:   provider.Tracer(cfg.ServiceName),
		provider: provider,
		log:      log,
	}, nil
}

// StartSpan starts a new span under the current trace.
func (tm *TracingManager) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return tm.tracer.Start(ctx, name, opts...)
}

// Shutdown flushes and stops the tracer provider.
func (tm *TracingManager) Shutdown(ctx context.Context) error {
	if tm.provider == nil {
		return nil
	}
	return tm.provider.Shutdown(ctx)
}
