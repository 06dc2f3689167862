// Package schema is the registry of fixed record layouts shared by oracle
// source accounts and answer accounts, and the borsh codec that enforces them.
//
// Every layout is an ordered list of typed fields. Integers are little-endian,
// addresses are 32 raw bytes and text is a borsh string (u32 length prefix
// plus UTF-8 bytes). Each text field reserves a TextSlot of bytes, prefix
// included, so the size of a layout is fixed even though its compact
// encoding is not. Encoded records are zero-filled up to the layout size.
package schema

import (
	"fmt"

	"github.com/archon-research/answer-relay/internal/domain/entity"
)

// TextSlot is the number of bytes reserved for one text field, including its
// 4-byte length prefix.
const TextSlot = 100

// Kind is the encoding of a single field.
type Kind int

const (
	KindU32 Kind = iota + 1
	KindU64
	KindAddress
	KindText
)

// Width returns the number of bytes the field reserves in a layout.
func (k Kind) Width() int {
	switch k {
	case KindU32:
		return 4
	case KindU64:
		return 8
	case KindAddress:
		return entity.AddressLength
	case KindText:
		return TextSlot
	default:
		return 0
	}
}

func (k Kind) String() string {
	switch k {
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindAddress:
		return "address"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field is one named, typed slot of a layout.
type Field struct {
	Name string
	Kind Kind
}

// Layout is the ordered field list of a record shape.
type Layout struct {
	Name   string
	Fields []Field
}

// Size is the fixed number of bytes an account holding this layout occupies.
func (l Layout) Size() int {
	n := 0
	for _, f := range l.Fields {
		n += f.Kind.Width()
	}
	return n
}

// MinSize is the length of the shortest valid encoding: every text empty.
func (l Layout) MinSize() int {
	n := 0
	for _, f := range l.Fields {
		if f.Kind == KindText {
			n += 4
			continue
		}
		n += f.Kind.Width()
	}
	return n
}

var (
	// FeedLayout is the oracle feed account.
	FeedLayout = Layout{Name: "feed", Fields: []Field{
		{"address", KindAddress},
		{"price", KindU64},
		{"decimal", KindU64},
		{"time", KindU64},
		{"name", KindText},
		{"price_type", KindText},
		{"code", KindText},
		{"unit", KindText},
		{"aggregate_time", KindU64},
		{"floor_price", KindU64},
		{"ai_floor_price", KindU64},
		{"avg_price", KindU64},
	}}

	// ReportLayout is the cross-chain report account.
	ReportLayout = Layout{Name: "report", Fields: []Field{
		{"source_chain", KindU32},
		{"price", KindU64},
		{"time", KindU64},
		{"decimal", KindU64},
		{"program_address", KindAddress},
		{"token_address", KindAddress},
		{"local_address", KindAddress},
		{"name", KindText},
		{"price_type", KindText},
	}}

	SingleFeedLayout = Layout{Name: "single_feed", Fields: []Field{
		{"address", KindAddress},
		{"price", KindU64},
		{"decimal", KindU64},
		{"time", KindU64},
		{"name", KindText},
		{"price_type", KindText},
	}}

	AggregateLayout = Layout{Name: "aggregate", Fields: []Field{
		{"code", KindText},
		{"unit", KindText},
		{"decimals", KindU64},
		{"aggregate_time", KindU64},
		{"floor_price", KindU64},
		{"ai_floor_price", KindU64},
		{"avg_price", KindU64},
	}}

	CrossChainLayout = Layout{Name: "cross_chain", Fields: []Field{
		{"source_chain", KindU32},
		{"price", KindU64},
		{"time", KindU64},
		{"decimal", KindU64},
		{"program_address", KindAddress},
		{"token_address", KindAddress},
		{"local_address", KindAddress},
		{"name", KindText},
		{"price_type", KindText},
	}}
)

// SourceLayout returns the layout of a source variant.
func SourceLayout(v entity.SourceVariant) (Layout, error) {
	switch v {
	case entity.SourceFeed:
		return FeedLayout, nil
	case entity.SourceReport:
		return ReportLayout, nil
	default:
		return Layout{}, fmt.Errorf("%w: %s", entity.ErrUnknownVariant, v)
	}
}

// AnswerLayout returns the layout of an answer variant.
func AnswerLayout(v entity.AnswerVariant) (Layout, error) {
	switch v {
	case entity.AnswerSingleFeed:
		return SingleFeedLayout, nil
	case entity.AnswerAggregate:
		return AggregateLayout, nil
	case entity.AnswerCrossChain:
		return CrossChainLayout, nil
	default:
		return Layout{}, fmt.Errorf("%w: %s", entity.ErrUnknownVariant, v)
	}
}
