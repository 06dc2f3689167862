package outbound

import (
	"context"
	"errors"

	"github.com/archon-research/answer-relay/internal/domain/entity"
)

// ErrCacheMiss is returned when the cache holds no view for a key.
var ErrCacheMiss = errors.New("cache miss")

// AnswerCache stores the latest rendered view of each answer account.
type AnswerCache interface {
	// SetAnswer stores view under its destination and variant.
	SetAnswer(ctx context.Context, view *entity.AnswerView) error

	// GetAnswer returns the cached view, or ErrCacheMiss.
	GetAnswer(ctx context.Context, destination string, variant entity.AnswerVariant) (*entity.AnswerView, error)

	// Close closes the cache connection.
	Close() error
}
