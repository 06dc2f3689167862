// Package outbound defines the outbound port interfaces.
package outbound

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"

	"github.com/archon-research/answer-relay/internal/domain/entity"
)

var (
	// ErrAccountNotFound is returned when an address has no account on the ledger.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountResized is returned when an invocation changes the length of
	// an account's data. Account capacity is fixed at creation.
	ErrAccountResized = errors.New("account resized")
)

// Ledger hosts accounts and runs invocations against them.
//
// Invoke locks every listed account for the duration of fn, so two
// invocations that share an account never interleave. fn receives working
// copies in the order of addrs. If fn returns nil the writable copies are
// committed together; otherwise nothing is persisted and fn's error is
// returned unchanged.
type Ledger interface {
	Invoke(ctx context.Context, addrs []solana.PublicKey, fn func(accounts []*entity.Account) error) error

	// GetAccount returns a snapshot of the account at addr.
	GetAccount(ctx context.Context, addr solana.PublicKey) (*entity.Account, error)

	// PutAccount creates the account or replaces it wholesale. It is the
	// only way an account's length is ever set.
	PutAccount(ctx context.Context, account *entity.Account) error

	// Close releases the underlying resources.
	Close() error
}
