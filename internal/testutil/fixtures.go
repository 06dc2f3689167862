package testutil

import (
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/archon-research/answer-relay/internal/domain/entity"
	"github.com/archon-research/answer-relay/internal/pkg/schema"
)

// Fixed addresses used across tests.
var (
	OracleProgram = Address(0xA0)
	RelayProgram  = Address(0xB0)
	FeedAddress   = Address(0x01)
	ReportAddress = Address(0x02)
	AnswerAddress = Address(0x03)
)

// SampleFeed returns a feed record with every field populated.
func SampleFeed() *entity.FeedRecord {
	return &entity.FeedRecord{
		Address:       Address(0x0A),
		Price:         12345,
		Decimal:       6,
		Time:          1000,
		Name:          "BTC/USD",
		PriceType:     "spot",
		Code:          "degods",
		Unit:          "SOL",
		AggregateTime: 1700000000,
		FloorPrice:    410_000_000,
		AIFloorPrice:  415_500_000,
		AvgPrice:      402_250_000,
	}
}

// SampleReport returns a cross-chain report with every field populated.
func SampleReport() *entity.ReportRecord {
	return &entity.ReportRecord{
		SourceChain:    56,
		Price:          310_250,
		Time:           1_700_000_500,
		Decimal:        2,
		ProgramAddress: Address(0x11),
		TokenAddress:   Address(0x12),
		LocalAddress:   Address(0x13),
		Name:           "BNB/USD",
		PriceType:      "twap",
	}
}

// Encode encodes rec into a full-size buffer of layout, failing the test on error.
func Encode(t testing.TB, layout schema.Layout, rec bin.BinaryMarshaler) []byte {
	t.Helper()
	data, err := schema.Encode(layout, rec)
	if err != nil {
		t.Fatalf("encoding %s: %v", layout.Name, err)
	}
	return data
}

// FeedAccount returns a source account owned by OracleProgram holding feed.
func FeedAccount(t testing.TB, feed *entity.FeedRecord) *entity.Account {
	t.Helper()
	return &entity.Account{
		Address: FeedAddress,
		Owner:   OracleProgram,
		Data:    Encode(t, schema.FeedLayout, feed),
	}
}

// ReportAccount returns a source account owned by OracleProgram holding report.
func ReportAccount(t testing.TB, report *entity.ReportRecord) *entity.Account {
	t.Helper()
	return &entity.Account{
		Address: ReportAddress,
		Owner:   OracleProgram,
		Data:    Encode(t, schema.ReportLayout, report),
	}
}

// AnswerAccount returns a zeroed, writable destination for variant owned by
// RelayProgram.
func AnswerAccount(t testing.TB, variant entity.AnswerVariant) *entity.Account {
	t.Helper()
	layout, err := schema.AnswerLayout(variant)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	return &entity.Account{
		Address:  AnswerAddress,
		Owner:    RelayProgram,
		Writable: true,
		Data:     make([]byte, layout.Size()),
	}
}

// WithOwner returns a copy of account owned by owner.
func WithOwner(account *entity.Account, owner solana.PublicKey) *entity.Account {
	c := account.Clone()
	c.Owner = owner
	return c
}
