package ygggo_mysqlx

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName    = "github.com/yggai/ygggo_mysqlx"
	instrumentationVersion = "v0.1.0"
)

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	Enabled bool
}

// EnableTelemetry enables or disables OpenTelemetry tracing for this connection
func (c *Conn) EnableTelemetry(enabled bool) {
	if c == nil {
		return
	}
	c.telemetryEnabled = enabled
}

// SetTracerProvider sets the provider spans are created from. Without one
// the global provider is used.
func (c *Conn) SetTracerProvider(tp trace.TracerProvider) {
	if c == nil {
		return
	}
	c.tracerProvider = tp
}

func (c *Conn) tracer() trace.Tracer {
	tp := c.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(instrumentationName, trace.WithInstrumentationVersion(instrumentationVersion))
}

// startSpan creates a new span with common database attributes
func (c *Conn) startSpan(ctx context.Context, operation string, query string) (context.Context, trace.Span) {
	if c == nil || !c.telemetryEnabled {
		return ctx, trace.SpanFromContext(ctx)
	}

	spanName := fmt.Sprintf("ygggo_mysqlx.%s", operation)
	ctx, span := c.tracer().Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))

	span.SetAttributes(
		attribute.String("db.system", "mysql"),
		attribute.String("db.operation", operation),
	)

	if query != "" {
		span.SetAttributes(attribute.String("db.statement", query))
	}

	return ctx, span
}

// finishSpan completes a span with error handling
func (c *Conn) finishSpan(span trace.Span, err error) {
	if c == nil || !c.telemetryEnabled {
		return
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("db.error_class", Classify(err).String()))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}
