package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

// TracingConfig selects whether and where spans are exported.
type TracingConfig struct {
	Enabled     bool
	Exporter    string // stdout or otlp
	ServiceName string
}

// InitTracing installs a global tracer provider and returns its shutdown
// function. When tracing is disabled the returned function is a no-op.
func InitTracing(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		return noop, nil
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "caelus"
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
	if err != nil {
		logrus.WithError(err).Warn("otel resource init failed (continuing)")
	}

	exporter, err := buildExporter(ctx, cfg.Exporter)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	logrus.WithFields(logrus.Fields{
		"service":  serviceName,
		"exporter": cfg.Exporter,
	}).Info("otel tracing initialized")
	return tp.Shutdown, nil
}

func buildExporter(ctx context.Context, kind string) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "stdout":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		// endpoint and headers come from the standard OTEL_EXPORTER_OTLP_* variables
		return otlptracehttp.New(ctx)
	default:
		return nil, fmt.Errorf("unsupported trace exporter %q", kind)
	}
}
