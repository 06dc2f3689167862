package outbound

import "context"

// AnswerArchive keeps a copy of every committed answer buffer.
type AnswerArchive interface {
	// Put stores data under key. Storing an existing key again is a no-op.
	Put(ctx context.Context, key string, data []byte) error
}
