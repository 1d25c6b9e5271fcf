package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/campusgeo/internal/pkg/logging"
	"github.com/samirrijal/campusgeo/internal/pkg/metrics"
)

const tracerName = "github.com/samirrijal/campusgeo"

// InitTracer installs a global tracer provider exporting spans over OTLP/gRPC.
// The returned function flushes and stops the exporter.
func InitTracer(ctx context.Context, serviceName, endpoint string) (func(), error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	)
	otel.SetTracerProvider(tp)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}, nil
}

// StartStage opens a span for one pipeline stage. The returned func ends the
// span, records the stage duration and logs the outcome; pass it the
// address of the stage's error.
func StartStage(ctx context.Context, stage string) (context.Context, func(errp *error)) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, stage)

	return ctx, func(errp *error) {
		dur := time.Since(start)
		metrics.StageDuration.WithLabelValues(stage).Observe(dur.Seconds())

		log := logging.FromContext(ctx)
		if errp != nil && *errp != nil {
			metrics.StageErrors.WithLabelValues(stage).Inc()
			span.RecordError(*errp)
			span.SetStatus(codes.Error, (*errp).Error())
			log.Debug("stage failed", "stage", stage, "duration_ms", dur.Milliseconds(), "error", *errp)
		} else {
			log.Debug("stage done", "stage", stage, "duration_ms", dur.Milliseconds())
		}
		span.End()
	}
}

// SpanFromContext exposes the active span so callers can attach attributes.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}
