package entity

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// FeedRecord is the oracle feed account as published by the oracle program.
// It carries both the spot quote and the collection aggregates.
type FeedRecord struct {
	Address       solana.PublicKey
	Price         uint64
	Decimal       uint64
	Time          uint64
	Name          string
	PriceType     string
	Code          string
	Unit          string
	AggregateTime uint64
	FloorPrice    uint64
	AIFloorPrice  uint64
	AvgPrice      uint64
}

func (r *FeedRecord) MarshalWithEncoder(enc *bin.Encoder) error {
	w := fieldWriter{enc: enc}
	w.address(r.Address)
	w.u64(r.Price)
	w.u64(r.Decimal)
	w.u64(r.Time)
	w.text(r.Name)
	w.text(r.PriceType)
	w.text(r.Code)
	w.text(r.Unit)
	w.u64(r.AggregateTime)
	w.u64(r.FloorPrice)
	w.u64(r.AIFloorPrice)
	w.u64(r.AvgPrice)
	return w.err
}

func (r *FeedRecord) UnmarshalWithDecoder(dec *bin.Decoder) error {
	rd := fieldReader{dec: dec}
	r.Address = rd.address("address")
	r.Price = rd.u64("price")
	r.Decimal = rd.u64("decimal")
	r.Time = rd.u64("time")
	r.Name = rd.text("name")
	r.PriceType = rd.text("price_type")
	r.Code = rd.text("code")
	r.Unit = rd.text("unit")
	r.AggregateTime = rd.u64("aggregate_time")
	r.FloorPrice = rd.u64("floor_price")
	r.AIFloorPrice = rd.u64("ai_floor_price")
	r.AvgPrice = rd.u64("avg_price")
	return rd.err
}

// ReportRecord is a cross-chain price report relayed from another chain.
type ReportRecord struct {
	SourceChain    uint32
	Price          uint64
	Time           uint64
	Decimal        uint64
	ProgramAddress solana.PublicKey
	TokenAddress   solana.PublicKey
	LocalAddress   solana.PublicKey
	Name           string
	PriceType      string
}

func (r *ReportRecord) MarshalWithEncoder(enc *bin.Encoder) error {
	w := fieldWriter{enc: enc}
	w.u32(r.SourceChain)
	w.u64(r.Price)
	w.u64(r.Time)
	w.u64(r.Decimal)
	w.address(r.ProgramAddress)
	w.address(r.TokenAddress)
	w.address(r.LocalAddress)
	w.text(r.Name)
	w.text(r.PriceType)
	return w.err
}

func (r *ReportRecord) UnmarshalWithDecoder(dec *bin.Decoder) error {
	rd := fieldReader{dec: dec}
	r.SourceChain = rd.u32("source_chain")
	r.Price = rd.u64("price")
	r.Time = rd.u64("time")
	r.Decimal = rd.u64("decimal")
	r.ProgramAddress = rd.address("program_address")
	r.TokenAddress = rd.address("token_address")
	r.LocalAddress = rd.address("local_address")
	r.Name = rd.text("name")
	r.PriceType = rd.text("price_type")
	return rd.err
}
