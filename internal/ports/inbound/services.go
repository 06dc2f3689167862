// Package inbound contains the primary/inbound ports.
// These interfaces define the use cases that the application exposes.
package inbound

import (
	"context"

	"github.com/archon-research/answer-relay/internal/domain/entity"
)

// HealthChecker defines the interface for services that can report readiness and liveness.
//
// Implementations:
//   - relay_worker.Service: ready after its first poll of the queue, healthy
//     while polls keep succeeding
type HealthChecker interface {
	// IsReady returns true when the service is ready to handle traffic.
	IsReady() bool

	// IsHealthy returns true when the service is operating normally.
	IsHealthy() bool
}

// AnswerReader serves decoded answer accounts to consumers.
type AnswerReader interface {
	// GetAnswer returns the current view of the answer at address.
	GetAnswer(ctx context.Context, address string, variant entity.AnswerVariant) (*entity.AnswerView, error)
}
