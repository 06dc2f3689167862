package entity

import "fmt"

// SourceVariant identifies the shape of an oracle-published source record.
type SourceVariant int

const (
	SourceFeed SourceVariant = iota + 1
	SourceReport
)

func (v SourceVariant) String() string {
	switch v {
	case SourceFeed:
		return "feed"
	case SourceReport:
		return "report"
	default:
		return fmt.Sprintf("source(%d)", int(v))
	}
}

// AnswerVariant identifies the shape of a destination answer record.
type AnswerVariant int

const (
	AnswerSingleFeed AnswerVariant = iota + 1
	AnswerAggregate
	AnswerCrossChain
)

// AnswerVariants lists every answer variant in declaration order.
var AnswerVariants = []AnswerVariant{AnswerSingleFeed, AnswerAggregate, AnswerCrossChain}

func (v AnswerVariant) String() string {
	switch v {
	case AnswerSingleFeed:
		return "single_feed"
	case AnswerAggregate:
		return "aggregate"
	case AnswerCrossChain:
		return "cross_chain"
	default:
		return fmt.Sprintf("answer(%d)", int(v))
	}
}

// ParseAnswerVariant parses the wire name of an answer variant
// ("single_feed", "aggregate", "cross_chain").
func ParseAnswerVariant(s string) (AnswerVariant, error) {
	for _, v := range AnswerVariants {
		if v.String() == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}
