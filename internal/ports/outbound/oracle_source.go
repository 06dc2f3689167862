package outbound

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/archon-research/answer-relay/internal/domain/entity"
)

// FetchedAccount is an account snapshot and the slot it was observed at.
type FetchedAccount struct {
	Account *entity.Account
	Slot    uint64
}

// OracleSource fetches oracle-published accounts from their origin cluster.
type OracleSource interface {
	// FetchAccount returns the current state of the account at addr.
	// Returns ErrAccountNotFound if the cluster has no such account.
	FetchAccount(ctx context.Context, addr solana.PublicKey) (*FetchedAccount, error)
}
