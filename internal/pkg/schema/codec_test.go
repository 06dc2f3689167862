package schema

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/archon-research/answer-relay/internal/domain/entity"
)

func addr(b byte) solana.PublicKey {
	return solana.PublicKeyFromBytes(bytes.Repeat([]byte{b}, 32))
}

// maxText is the longest text that fits a single slot.
var maxText = strings.Repeat("x", TextSlot-4)

func TestLayoutSizes(t *testing.T) {
	tests := []struct {
		layout Layout
		size   int
	}{
		{SingleFeedLayout, 256},
		{AggregateLayout, 240},
		{CrossChainLayout, 324},
		{FeedLayout, 488},
		{ReportLayout, 324},
	}
	for _, tt := range tests {
		t.Run(tt.layout.Name, func(t *testing.T) {
			if got := tt.layout.Size(); got != tt.size {
				t.Errorf("expected size %d, got %d", tt.size, got)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	for _, v := range entity.AnswerVariants {
		l, err := AnswerLayout(v)
		if err != nil {
			t.Fatalf("AnswerLayout(%s): %v", v, err)
		}
		if l.Name != v.String() {
			t.Errorf("expected layout %q for %s, got %q", v.String(), v, l.Name)
		}
	}
	if _, err := AnswerLayout(entity.AnswerVariant(99)); !errors.Is(err, entity.ErrUnknownVariant) {
		t.Errorf("expected ErrUnknownVariant, got %v", err)
	}
	if _, err := SourceLayout(entity.SourceVariant(0)); !errors.Is(err, entity.ErrUnknownVariant) {
		t.Errorf("expected ErrUnknownVariant, got %v", err)
	}
}

func compactLen(t *testing.T, rec bin.BinaryMarshaler) int {
	t.Helper()
	var buf bytes.Buffer
	if err := rec.MarshalWithEncoder(bin.NewBorshEncoder(&buf)); err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return buf.Len()
}

// Records with every text at slot capacity must fill their layout exactly.
func TestEncode_FullTextFillsLayoutExactly(t *testing.T) {
	tests := []struct {
		layout Layout
		rec    bin.BinaryMarshaler
	}{
		{SingleFeedLayout, &entity.SingleFeedAnswer{Address: addr(1), Name: maxText, PriceType: maxText}},
		{AggregateLayout, &entity.AggregateAnswer{Code: maxText, Unit: maxText}},
		{CrossChainLayout, &entity.CrossChainAnswer{Name: maxText, PriceType: maxText}},
		{FeedLayout, &entity.FeedRecord{Name: maxText, PriceType: maxText, Code: maxText, Unit: maxText}},
		{ReportLayout, &entity.ReportRecord{Name: maxText, PriceType: maxText}},
	}
	for _, tt := range tests {
		t.Run(tt.layout.Name, func(t *testing.T) {
			if got := compactLen(t, tt.rec); got != tt.layout.Size() {
				t.Fatalf("expected compact length %d, got %d", tt.layout.Size(), got)
			}
			out, err := Encode(tt.layout, tt.rec)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(out) != tt.layout.Size() {
				t.Fatalf("expected %d bytes, got %d", tt.layout.Size(), len(out))
			}
		})
	}

	feed := &entity.FeedRecord{Name: maxText, PriceType: maxText, Code: maxText, Unit: maxText, AvgPrice: 7}
	out, err := Encode(FeedLayout, feed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := binary.LittleEndian.Uint64(out[len(out)-8:]); got != 7 {
		t.Errorf("expected avg_price in final 8 bytes, got %d", got)
	}
}

func TestLayout_MinSizeMatchesEmptyRecords(t *testing.T) {
	tests := []struct {
		layout Layout
		rec    bin.BinaryMarshaler
	}{
		{SingleFeedLayout, &entity.SingleFeedAnswer{}},
		{AggregateLayout, &entity.AggregateAnswer{}},
		{CrossChainLayout, &entity.CrossChainAnswer{}},
		{FeedLayout, &entity.FeedRecord{}},
		{ReportLayout, &entity.ReportRecord{}},
	}
	for _, tt := range tests {
		t.Run(tt.layout.Name, func(t *testing.T) {
			if got := compactLen(t, tt.rec); got != tt.layout.MinSize() {
				t.Errorf("expected %d, got %d", tt.layout.MinSize(), got)
			}
		})
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
		in     entity.Answer
		out    entity.Answer
	}{
		{
			name:   "single feed",
			layout: SingleFeedLayout,
			in: &entity.SingleFeedAnswer{
				Address: addr(7), Price: 12345, Decimal: 6, Time: 1000, Name: "BTC/USD", PriceType: "spot",
			},
			out: &entity.SingleFeedAnswer{},
		},
		{
			name:   "aggregate",
			layout: AggregateLayout,
			in: &entity.AggregateAnswer{
				Code: "degods", Unit: "SOL", Decimals: 9, AggregateTime: 1700000000,
				FloorPrice: 1, AIFloorPrice: 2, AvgPrice: 3,
			},
			out: &entity.AggregateAnswer{},
		},
		{
			name:   "cross chain",
			layout: CrossChainLayout,
			in: &entity.CrossChainAnswer{
				SourceChain: 1, Price: 99, Time: 5, Decimal: 8,
				ProgramAddress: addr(1), TokenAddress: addr(2), LocalAddress: addr(3),
				Name: "ETH/USD", PriceType: "twap",
			},
			out: &entity.CrossChainAnswer{},
		},
		{
			name:   "unicode text",
			layout: SingleFeedLayout,
			in:     &entity.SingleFeedAnswer{Name: "日本円/USD", PriceType: "€"},
			out:    &entity.SingleFeedAnswer{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.layout, tt.in)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if len(data) != tt.layout.Size() {
				t.Fatalf("expected %d bytes, got %d", tt.layout.Size(), len(data))
			}
			if err := DecodeExact(tt.layout, data, tt.out); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !sameAnswer(tt.in, tt.out) {
				t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", tt.in, tt.out)
			}

			again, err := Encode(tt.layout, tt.out)
			if err != nil {
				t.Fatalf("re-encode: %v", err)
			}
			if !bytes.Equal(data, again) {
				t.Error("expected equal records to encode byte-identically")
			}
		})
	}
}

func sameAnswer(a, b entity.Answer) bool {
	switch x := a.(type) {
	case *entity.SingleFeedAnswer:
		y, ok := b.(*entity.SingleFeedAnswer)
		return ok && *x == *y
	case *entity.AggregateAnswer:
		y, ok := b.(*entity.AggregateAnswer)
		return ok && *x == *y
	case *entity.CrossChainAnswer:
		y, ok := b.(*entity.CrossChainAnswer)
		return ok && *x == *y
	}
	return false
}

func TestEncode_WireLayout(t *testing.T) {
	a := &entity.SingleFeedAnswer{Address: addr(0xAB), Price: 1, Decimal: 2, Time: 3, Name: "ab", PriceType: "c"}
	data, err := Encode(SingleFeedLayout, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var want []byte
	want = append(want, bytes.Repeat([]byte{0xAB}, 32)...)
	want = binary.LittleEndian.AppendUint64(want, 1)
	want = binary.LittleEndian.AppendUint64(want, 2)
	want = binary.LittleEndian.AppendUint64(want, 3)
	want = binary.LittleEndian.AppendUint32(want, 2)
	want = append(want, 'a', 'b')
	want = binary.LittleEndian.AppendUint32(want, 1)
	want = append(want, 'c')

	if !bytes.Equal(data[:len(want)], want) {
		t.Errorf("unexpected prefix:\nexpected %x\ngot      %x", want, data[:len(want)])
	}
	if !bytes.Equal(data[len(want):], make([]byte, len(data)-len(want))) {
		t.Error("expected zero padding after the compact encoding")
	}
}

func TestEncode_Overflow(t *testing.T) {
	a := &entity.SingleFeedAnswer{Name: strings.Repeat("n", 150), PriceType: strings.Repeat("p", 60)}
	_, err := Encode(SingleFeedLayout, a)
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestEncode_LongTextWithinTotalSize(t *testing.T) {
	// Slots bound the layout size, not each field: a long name may borrow
	// the unused space of a short price type.
	a := &entity.SingleFeedAnswer{Name: strings.Repeat("n", 150), PriceType: ""}
	if _, err := Encode(SingleFeedLayout, a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecode_Errors(t *testing.T) {
	valid, err := Encode(SingleFeedLayout, &entity.SingleFeedAnswer{Name: "BTC/USD", PriceType: "spot"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	nameOffset := 32 + 24

	tests := []struct {
		name    string
		data    func() []byte
		exact   bool
		wantErr error
		wantMsg string
	}{
		{
			name:    "too short for fixed fields",
			data:    func() []byte { return make([]byte, 20) },
			wantErr: ErrCorrupt,
		},
		{
			name: "text length past end",
			data: func() []byte {
				b := bytes.Clone(valid)
				binary.LittleEndian.PutUint32(b[nameOffset:], 10_000)
				return b
			},
			wantErr: ErrCorrupt,
			wantMsg: "name",
		},
		{
			name: "invalid utf-8",
			data: func() []byte {
				b := bytes.Clone(valid)
				b[nameOffset+4] = 0xff
				return b
			},
			wantErr: ErrCorrupt,
			wantMsg: "UTF-8",
		},
		{
			name:    "exact length mismatch",
			data:    func() []byte { return valid[:len(valid)-1] },
			exact:   true,
			wantErr: ErrLength,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out entity.SingleFeedAnswer
			var err error
			if tt.exact {
				err = DecodeExact(SingleFeedLayout, tt.data(), &out)
			} else {
				err = Decode(SingleFeedLayout, tt.data(), &out)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error mentioning %q, got %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestDecode_ZeroBufferIsEmptyRecord(t *testing.T) {
	var out entity.SingleFeedAnswer
	if err := DecodeExact(SingleFeedLayout, make([]byte, SingleFeedLayout.Size()), &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != (entity.SingleFeedAnswer{}) {
		t.Errorf("expected zero record, got %+v", out)
	}
}
