package entity

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Answer is a destination record that consumers read from an answer account.
type Answer interface {
	bin.BinaryMarshaler
	bin.BinaryUnmarshaler

	// Variant reports the answer schema.
	Variant() AnswerVariant
	// Quote returns the headline price, its decimal scale and its unix time.
	Quote() Quote
}

// Quote is the headline value of an answer.
type Quote struct {
	Price    uint64
	Decimals uint64
	Time     uint64
}

// SingleFeedAnswer mirrors one oracle feed's spot quote.
type SingleFeedAnswer struct {
	Address   solana.PublicKey `json:"address"`
	Price     uint64           `json:"price"`
	Decimal   uint64           `json:"decimal"`
	Time      uint64           `json:"time"`
	Name      string           `json:"name"`
	PriceType string           `json:"priceType"`
}

func (a *SingleFeedAnswer) Variant() AnswerVariant { return AnswerSingleFeed }
func (a *SingleFeedAnswer) Quote() Quote {
	return Quote{Price: a.Price, Decimals: a.Decimal, Time: a.Time}
}

func (a *SingleFeedAnswer) MarshalWithEncoder(enc *bin.Encoder) error {
	w := fieldWriter{enc: enc}
	w.address(a.Address)
	w.u64(a.Price)
	w.u64(a.Decimal)
	w.u64(a.Time)
	w.text(a.Name)
	w.text(a.PriceType)
	return w.err
}

func (a *SingleFeedAnswer) UnmarshalWithDecoder(dec *bin.Decoder) error {
	rd := fieldReader{dec: dec}
	a.Address = rd.address("address")
	a.Price = rd.u64("price")
	a.Decimal = rd.u64("decimal")
	a.Time = rd.u64("time")
	a.Name = rd.text("name")
	a.PriceType = rd.text("price_type")
	return rd.err
}

// AggregateAnswer mirrors a feed's collection-level aggregates.
type AggregateAnswer struct {
	Code          string `json:"code"`
	Unit          string `json:"unit"`
	Decimals      uint64 `json:"decimals"`
	AggregateTime uint64 `json:"aggregateTime"`
	FloorPrice    uint64 `json:"floorPrice"`
	AIFloorPrice  uint64 `json:"aiFloorPrice"`
	AvgPrice      uint64 `json:"avgPrice"`
}

func (a *AggregateAnswer) Variant() AnswerVariant { return AnswerAggregate }
func (a *AggregateAnswer) Quote() Quote {
	return Quote{Price: a.AvgPrice, Decimals: a.Decimals, Time: a.AggregateTime}
}

func (a *AggregateAnswer) MarshalWithEncoder(enc *bin.Encoder) error {
	w := fieldWriter{enc: enc}
	w.text(a.Code)
	w.text(a.Unit)
	w.u64(a.Decimals)
	w.u64(a.AggregateTime)
	w.u64(a.FloorPrice)
	w.u64(a.AIFloorPrice)
	w.u64(a.AvgPrice)
	return w.err
}

func (a *AggregateAnswer) UnmarshalWithDecoder(dec *bin.Decoder) error {
	rd := fieldReader{dec: dec}
	a.Code = rd.text("code")
	a.Unit = rd.text("unit")
	a.Decimals = rd.u64("decimals")
	a.AggregateTime = rd.u64("aggregate_time")
	a.FloorPrice = rd.u64("floor_price")
	a.AIFloorPrice = rd.u64("ai_floor_price")
	a.AvgPrice = rd.u64("avg_price")
	return rd.err
}

// CrossChainAnswer mirrors a price report originating on another chain.
type CrossChainAnswer struct {
	SourceChain    uint32           `json:"sourceChain"`
	Price          uint64           `json:"price"`
	Time           uint64           `json:"time"`
	Decimal        uint64           `json:"decimal"`
	ProgramAddress solana.PublicKey `json:"programAddress"`
	TokenAddress   solana.PublicKey `json:"tokenAddress"`
	LocalAddress   solana.PublicKey `json:"localAddress"`
	Name           string           `json:"name"`
	PriceType      string           `json:"priceType"`
}

func (a *CrossChainAnswer) Variant() AnswerVariant { return AnswerCrossChain }
func (a *CrossChainAnswer) Quote() Quote {
	return Quote{Price: a.Price, Decimals: a.Decimal, Time: a.Time}
}

func (a *CrossChainAnswer) MarshalWithEncoder(enc *bin.Encoder) error {
	w := fieldWriter{enc: enc}
	w.u32(a.SourceChain)
	w.u64(a.Price)
	w.u64(a.Time)
	w.u64(a.Decimal)
	w.address(a.ProgramAddress)
	w.address(a.TokenAddress)
	w.address(a.LocalAddress)
	w.text(a.Name)
	w.text(a.PriceType)
	return w.err
}

func (a *CrossChainAnswer) UnmarshalWithDecoder(dec *bin.Decoder) error {
	rd := fieldReader{dec: dec}
	a.SourceChain = rd.u32("source_chain")
	a.Price = rd.u64("price")
	a.Time = rd.u64("time")
	a.Decimal = rd.u64("decimal")
	a.ProgramAddress = rd.address("program_address")
	a.TokenAddress = rd.address("token_address")
	a.LocalAddress = rd.address("local_address")
	a.Name = rd.text("name")
	a.PriceType = rd.text("price_type")
	return rd.err
}

// NewAnswer returns a zero answer record of the given variant.
func NewAnswer(v AnswerVariant) (Answer, error) {
	switch v {
	case AnswerSingleFeed:
		return &SingleFeedAnswer{}, nil
	case AnswerAggregate:
		return &AggregateAnswer{}, nil
	case AnswerCrossChain:
		return &CrossChainAnswer{}, nil
	default:
		return nil, ErrUnknownVariant
	}
}
