package answers

import (
	"context"
	"errors"
	"testing"

	"github.com/archon-research/answer-relay/internal/adapters/outbound/memory"
	"github.com/archon-research/answer-relay/internal/domain/entity"
	"github.com/archon-research/answer-relay/internal/pkg/schema"
	"github.com/archon-research/answer-relay/internal/ports/outbound"
	"github.com/archon-research/answer-relay/internal/testutil"
)

type failingCache struct {
	*memory.AnswerCache
	getErr error
}

func (c *failingCache) GetAnswer(ctx context.Context, destination string, variant entity.AnswerVariant) (*entity.AnswerView, error) {
	return nil, c.getErr
}

func seed(t *testing.T, accounts ...*entity.Account) *memory.Ledger {
	t.Helper()
	ledger := memory.NewLedger()
	for _, a := range accounts {
		if err := ledger.PutAccount(context.Background(), a); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return ledger
}

func answerAccount(t *testing.T) *entity.Account {
	t.Helper()
	account := testutil.AnswerAccount(t, entity.AnswerSingleFeed)
	account.Data = testutil.Encode(t, schema.SingleFeedLayout, &entity.SingleFeedAnswer{
		Price: 12345, Decimal: 2, Time: 1000, Name: "BTC/USD", PriceType: "spot",
	})
	return account
}

func TestGetAnswer_FromLedgerWarmsCache(t *testing.T) {
	cache := memory.NewAnswerCache()
	svc, err := NewService(seed(t, answerAccount(t)), cache, testutil.DiscardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	addr := testutil.AnswerAddress.String()
	view, err := svc.GetAnswer(context.Background(), addr, entity.AnswerSingleFeed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.DisplayPrice != "123.45" {
		t.Errorf("expected display price 123.45, got %s", view.DisplayPrice)
	}

	cached, err := cache.GetAnswer(context.Background(), addr, entity.AnswerSingleFeed)
	if err != nil {
		t.Fatalf("expected view to be cached, got %v", err)
	}
	if cached.DisplayPrice != view.DisplayPrice {
		t.Errorf("expected cached price %s, got %s", view.DisplayPrice, cached.DisplayPrice)
	}
}

func TestGetAnswer_PrefersCache(t *testing.T) {
	cache := memory.NewAnswerCache()
	addr := testutil.AnswerAddress.String()
	_ = cache.SetAnswer(context.Background(), &entity.AnswerView{
		Variant: "single_feed", Destination: addr, DisplayPrice: "1.00",
	})

	// The ledger is empty, so only the cache can answer.
	svc, _ := NewService(memory.NewLedger(), cache, testutil.DiscardLogger())

	view, err := svc.GetAnswer(context.Background(), addr, entity.AnswerSingleFeed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.DisplayPrice != "1.00" {
		t.Errorf("expected cached view, got %+v", view)
	}
}

func TestGetAnswer_CacheErrorFallsBack(t *testing.T) {
	cache := &failingCache{AnswerCache: memory.NewAnswerCache(), getErr: errors.New("redis down")}
	svc, _ := NewService(seed(t, answerAccount(t)), cache, testutil.DiscardLogger())

	if _, err := svc.GetAnswer(context.Background(), testutil.AnswerAddress.String(), entity.AnswerSingleFeed); err != nil {
		t.Fatalf("expected ledger fallback, got %v", err)
	}
}

func TestGetAnswer_Errors(t *testing.T) {
	malformed := testutil.AnswerAccount(t, entity.AnswerSingleFeed)
	malformed.Data = make([]byte, 10)
	oversized := answerAccount(t)
	oversized.Data = append(oversized.Data, 0)

	tests := []struct {
		name    string
		ledger  *memory.Ledger
		address string
		variant entity.AnswerVariant
		wantErr error
	}{
		{
			name:    "invalid address",
			ledger:  memory.NewLedger(),
			address: "not-base58!",
			variant: entity.AnswerSingleFeed,
			wantErr: ErrInvalidAddress,
		},
		{
			name:    "unknown variant",
			ledger:  memory.NewLedger(),
			address: testutil.AnswerAddress.String(),
			variant: entity.AnswerVariant(9),
			wantErr: entity.ErrUnknownVariant,
		},
		{
			name:    "unknown account",
			ledger:  memory.NewLedger(),
			address: testutil.AnswerAddress.String(),
			variant: entity.AnswerSingleFeed,
			wantErr: outbound.ErrAccountNotFound,
		},
		{
			name:    "wrong variant",
			ledger:  seed(t, answerAccount(t)),
			address: testutil.AnswerAddress.String(),
			variant: entity.AnswerCrossChain,
			wantErr: entity.ErrMalformedDestination,
		},
		{
			name:    "slack past layout",
			ledger:  seed(t, oversized),
			address: testutil.AnswerAddress.String(),
			variant: entity.AnswerSingleFeed,
			wantErr: entity.ErrMalformedDestination,
		},
		{
			name:    "malformed account",
			ledger:  seed(t, malformed),
			address: testutil.AnswerAddress.String(),
			variant: entity.AnswerSingleFeed,
			wantErr: entity.ErrMalformedDestination,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := NewService(tt.ledger, nil, testutil.DiscardLogger())
			_, err := svc.GetAnswer(context.Background(), tt.address, tt.variant)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewService_RequiresLedger(t *testing.T) {
	if _, err := NewService(nil, nil, nil); err == nil {
		t.Error("expected error for nil ledger")
	}
}
