package relay

import (
	"errors"
	"fmt"

	"github.com/archon-research/answer-relay/internal/domain/entity"
)

// Stage is a point in the lifecycle of one relay invocation.
type Stage int

const (
	StageStart Stage = iota
	StageSourceResolved
	StageSourceDecoded
	StageMapped
	StageDestinationCommitted
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageSourceResolved:
		return "source_resolved"
	case StageSourceDecoded:
		return "source_decoded"
	case StageMapped:
		return "mapped"
	case StageDestinationCommitted:
		return "destination_committed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// InvocationError reports a failed relay invocation. Stage is the last stage
// reached before the failure; the error itself marks the invocation failed.
type InvocationError struct {
	Variant entity.AnswerVariant
	Stage   Stage
	Err     error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("relay %s failed after %s: %v", e.Variant, e.Stage, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// permanent errors are properties of the accounts themselves; repeating the
// invocation against the same bytes fails the same way.
var permanent = []error{
	entity.ErrMissingAccount,
	entity.ErrMalformedSource,
	entity.ErrMalformedDestination,
	entity.ErrBufferSizeMismatch,
	entity.ErrUntrustedSource,
	entity.ErrReadonlyDestination,
	entity.ErrUnknownVariant,
}

// IsPermanent reports whether err is a relay failure that will not succeed
// on retry.
func IsPermanent(err error) bool {
	for _, target := range permanent {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
