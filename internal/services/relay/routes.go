package relay

import (
	bin "github.com/gagliardetto/binary"

	"github.com/archon-research/answer-relay/internal/domain/entity"
)

// route ties an answer variant to the source it is built from.
type route struct {
	source entity.SourceVariant
	// bind returns fresh source and answer records and the mapping step
	// between them.
	bind func() (bin.BinaryUnmarshaler, entity.Answer, func())
}

var routes = map[entity.AnswerVariant]route{
	entity.AnswerSingleFeed: {
		source: entity.SourceFeed,
		bind: func() (bin.BinaryUnmarshaler, entity.Answer, func()) {
			src, dst := &entity.FeedRecord{}, &entity.SingleFeedAnswer{}
			return src, dst, func() { mapSingleFeed(src, dst) }
		},
	},
	entity.AnswerAggregate: {
		source: entity.SourceFeed,
		bind: func() (bin.BinaryUnmarshaler, entity.Answer, func()) {
			src, dst := &entity.FeedRecord{}, &entity.AggregateAnswer{}
			return src, dst, func() { mapAggregate(src, dst) }
		},
	},
	entity.AnswerCrossChain: {
		source: entity.SourceReport,
		bind: func() (bin.BinaryUnmarshaler, entity.Answer, func()) {
			src, dst := &entity.ReportRecord{}, &entity.CrossChainAnswer{}
			return src, dst, func() { mapCrossChain(src, dst) }
		},
	},
}

func mapSingleFeed(src *entity.FeedRecord, dst *entity.SingleFeedAnswer) {
	dst.Address = src.Address
	dst.Price = src.Price
	dst.Decimal = src.Decimal
	dst.Time = src.Time
	dst.Name = src.Name
	dst.PriceType = src.PriceType
}

func mapAggregate(src *entity.FeedRecord, dst *entity.AggregateAnswer) {
	dst.Code = src.Code
	dst.Unit = src.Unit
	dst.Decimals = src.Decimal
	dst.AggregateTime = src.AggregateTime
	dst.FloorPrice = src.FloorPrice
	dst.AIFloorPrice = src.AIFloorPrice
	dst.AvgPrice = src.AvgPrice
}

func mapCrossChain(src *entity.ReportRecord, dst *entity.CrossChainAnswer) {
	dst.SourceChain = src.SourceChain
	dst.Price = src.Price
	dst.Time = src.Time
	dst.Decimal = src.Decimal
	dst.ProgramAddress = src.ProgramAddress
	dst.TokenAddress = src.TokenAddress
	dst.LocalAddress = src.LocalAddress
	dst.Name = src.Name
	dst.PriceType = src.PriceType
}
