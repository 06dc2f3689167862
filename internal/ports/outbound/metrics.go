package outbound

import (
	"context"
	"time"
)

// Relay outcomes recorded by RelayMetrics.
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
)

// RelayMetrics records relay invocation metrics without tying the worker to
// a telemetry implementation.
type RelayMetrics interface {
	// RecordInvocation records one relay request. outcome is one of the
	// Outcome constants.
	RecordInvocation(ctx context.Context, variant, outcome string, duration time.Duration)
}
