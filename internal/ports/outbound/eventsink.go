package outbound

import (
	"context"
	"time"

	"github.com/archon-research/answer-relay/internal/domain/entity"
)

// EventType represents the type of event.
type EventType string

// EventTypeAnswerUpdated is published after an answer account is committed.
const EventTypeAnswerUpdated EventType = "answer_updated"

// AnswerUpdatedEvent announces a committed answer.
type AnswerUpdatedEvent struct {
	// Variant is the answer schema of the destination.
	Variant string `json:"variant"`

	// Source is the base58 address of the oracle account that was read.
	Source string `json:"source"`

	// Destination is the base58 address of the answer account.
	Destination string `json:"destination"`

	// Slot is the cluster slot the source was fetched at, when it was refreshed.
	Slot uint64 `json:"slot,omitempty"`

	// CommittedAt is when the ledger committed the answer.
	CommittedAt time.Time `json:"committedAt"`

	// Answer is the rendered answer.
	Answer *entity.AnswerView `json:"answer"`
}

func (e AnswerUpdatedEvent) EventType() EventType { return EventTypeAnswerUpdated }

// EventSink defines the interface for publishing answer events.
type EventSink interface {
	// Publish publishes an answer update.
	Publish(ctx context.Context, event AnswerUpdatedEvent) error

	// Close closes the sink and releases any resources.
	Close() error
}
