package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/archon-research/answer-relay/internal/ports/outbound"
)

// Compile-time check that Metrics implements outbound.RelayMetrics.
var _ outbound.RelayMetrics = (*Metrics)(nil)

// Metrics implements the RelayMetrics interface using OpenTelemetry.
type Metrics struct {
	invocations metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewMetrics creates a recorder on the global meter provider.
// meterName should typically be the package name or service name.
func NewMetrics(meterName string) (*Metrics, error) {
	return NewMetricsWithProvider(otel.GetMeterProvider(), meterName)
}

// NewMetricsWithProvider creates a recorder on the given meter provider.
func NewMetricsWithProvider(provider metric.MeterProvider, meterName string) (*Metrics, error) {
	meter := provider.Meter(meterName)

	invocations, err := meter.Int64Counter(
		"relay_invocations_total",
		metric.WithDescription("Total number of relay invocations by variant and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create relay_invocations_total counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"relay_duration_seconds",
		metric.WithDescription("Time taken to relay one answer"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create relay_duration_seconds histogram: %w", err)
	}

	return &Metrics{
		invocations: invocations,
		duration:    duration,
	}, nil
}

// RecordInvocation counts one relay request and records its duration.
func (m *Metrics) RecordInvocation(ctx context.Context, variant, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("variant", variant),
		attribute.String("outcome", outcome),
	)
	m.invocations.Add(ctx, 1, attrs)
	m.duration.Record(ctx, duration.Seconds(), attrs)
}
