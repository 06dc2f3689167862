// Package answers serves decoded answer accounts to readers.
//
// Lookups try the answer cache first and fall back to the ledger. A view
// rendered from the ledger is written back to the cache.
package answers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/archon-research/answer-relay/internal/domain/entity"
	"github.com/archon-research/answer-relay/internal/pkg/schema"
	"github.com/archon-research/answer-relay/internal/ports/inbound"
	"github.com/archon-research/answer-relay/internal/ports/outbound"
)

// ErrInvalidAddress is returned when an address is not a base58 public key.
var ErrInvalidAddress = errors.New("invalid address")

// Compile-time check that Service implements inbound.AnswerReader.
var _ inbound.AnswerReader = (*Service)(nil)

// Service implements inbound.AnswerReader.
type Service struct {
	ledger outbound.Ledger
	cache  outbound.AnswerCache
	logger *slog.Logger
}

// NewService creates an answer reader. cache may be nil.
func NewService(ledger outbound.Ledger, cache outbound.AnswerCache, logger *slog.Logger) (*Service, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		ledger: ledger,
		cache:  cache,
		logger: logger.With("component", "answer-reader"),
	}, nil
}

// GetAnswer returns the current view of the answer account at address.
func (s *Service) GetAnswer(ctx context.Context, address string, variant entity.AnswerVariant) (*entity.AnswerView, error) {
	addr, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	layout, err := schema.AnswerLayout(variant)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		view, err := s.cache.GetAnswer(ctx, addr.String(), variant)
		switch {
		case err == nil:
			return view, nil
		case !errors.Is(err, outbound.ErrCacheMiss):
			s.logger.Warn("answer cache lookup failed", "destination", addr.String(), "error", err)
		}
	}

	account, err := s.ledger.GetAccount(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("loading answer account: %w", err)
	}

	answer, err := entity.NewAnswer(variant)
	if err != nil {
		return nil, err
	}
	// Answer accounts are allocated at their layout size, so any other
	// length means the account holds a different variant.
	if err := schema.DecodeExact(layout, account.Data, answer); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrMalformedDestination, err)
	}

	view, err := entity.NewAnswerView(addr.String(), answer)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetAnswer(ctx, view); err != nil {
			s.logger.Warn("failed to cache answer", "destination", addr.String(), "error", err)
		}
	}
	return view, nil
}
