// cache.go provides an in-memory implementation of AnswerCache.
//
// Views are keyed by variant:destination. All operations are thread-safe and
// data is lost on process restart. For production use the Redis adapter.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/archon-research/answer-relay/internal/domain/entity"
	"github.com/archon-research/answer-relay/internal/ports/outbound"
)

// Compile-time check that AnswerCache implements outbound.AnswerCache
var _ outbound.AnswerCache = (*AnswerCache)(nil)

// AnswerCache is an in-memory implementation of the AnswerCache port.
type AnswerCache struct {
	mu    sync.RWMutex
	views map[string]entity.AnswerView
}

// NewAnswerCache creates an empty in-memory answer cache.
func NewAnswerCache() *AnswerCache {
	return &AnswerCache{
		views: make(map[string]entity.AnswerView),
	}
}

func (c *AnswerCache) key(destination, variant string) string {
	return fmt.Sprintf("%s:%s", variant, destination)
}

// SetAnswer stores a copy of view.
func (c *AnswerCache) SetAnswer(ctx context.Context, view *entity.AnswerView) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views[c.key(view.Destination, view.Variant)] = *view
	return nil
}

// GetAnswer returns a copy of the cached view or outbound.ErrCacheMiss.
func (c *AnswerCache) GetAnswer(ctx context.Context, destination string, variant entity.AnswerVariant) (*entity.AnswerView, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	view, ok := c.views[c.key(destination, variant.String())]
	if !ok {
		return nil, outbound.ErrCacheMiss
	}
	return &view, nil
}

// Close is a no-op for the in-memory cache.
func (c *AnswerCache) Close() error {
	return nil
}
