package ygggo_mysqlx

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricsInstrumentationName = "github.com/yggai/ygggo_mysqlx"
)

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool
}

// Metrics holds all the metric instruments
type Metrics struct {
	preparesTotal   metric.Int64Counter
	prepareDuration metric.Float64Histogram

	executionsTotal   metric.Int64Counter
	executionDuration metric.Float64Histogram

	fallbacksTotal metric.Int64Counter
}

// EnableMetrics enables or disables metrics collection for this connection
func (c *Conn) EnableMetrics(enabled bool) {
	if c == nil {
		return
	}
	c.metricsEnabled = enabled
	if enabled && c.metrics == nil {
		c.initMetrics()
	}
}

// SetMeterProvider sets a custom meter provider for metrics
func (c *Conn) SetMeterProvider(provider metric.MeterProvider) {
	if c == nil {
		return
	}
	c.meterProvider = provider
	if c.metricsEnabled {
		c.initMetrics()
	}
}

// initMetrics initializes all metric instruments
func (c *Conn) initMetrics() {
	if c == nil {
		return
	}

	var meter metric.Meter
	if c.meterProvider != nil {
		meter = c.meterProvider.Meter(metricsInstrumentationName)
	} else {
		meter = otel.Meter(metricsInstrumentationName)
	}

	c.metrics = &Metrics{}

	c.metrics.preparesTotal, _ = meter.Int64Counter(
		"ygggo_mysqlx_prepares_total",
		metric.WithDescription("Total number of statements prepared"),
	)

	c.metrics.prepareDuration, _ = meter.Float64Histogram(
		"ygggo_mysqlx_prepare_duration_seconds",
		metric.WithDescription("Duration of statement preparation"),
		metric.WithUnit("s"),
	)

	c.metrics.executionsTotal, _ = meter.Int64Counter(
		"ygggo_mysqlx_executions_total",
		metric.WithDescription("Total number of statement executions"),
	)

	c.metrics.executionDuration, _ = meter.Float64Histogram(
		"ygggo_mysqlx_execution_duration_seconds",
		metric.WithDescription("Duration of statement executions"),
		metric.WithUnit("s"),
	)

	c.metrics.fallbacksTotal, _ = meter.Int64Counter(
		"ygggo_mysqlx_fallbacks_total",
		metric.WithDescription("Executions re-issued as plain queries after an out-of-sync error"),
	)
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// recordPrepare records statement preparation metrics
func (c *Conn) recordPrepare(ctx context.Context, duration time.Duration, err error) {
	if c == nil || !c.metricsEnabled || c.metrics == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("status", statusOf(err)))
	c.metrics.preparesTotal.Add(ctx, 1, attrs)
	c.metrics.prepareDuration.Record(ctx, duration.Seconds(), attrs)
}

// recordExec records execution metrics; operation is "execute" or "fallback".
func (c *Conn) recordExec(ctx context.Context, operation string, duration time.Duration, err error) {
	if c == nil || !c.metricsEnabled || c.metrics == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String("status", statusOf(err)),
	}
	if err != nil {
		attrs = append(attrs, attribute.String("error_class", Classify(err).String()))
	}

	if operation == "fallback" {
		c.metrics.fallbacksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", statusOf(err))))
	}
	c.metrics.executionsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	c.metrics.executionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
