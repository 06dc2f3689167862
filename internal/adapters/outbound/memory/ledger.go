// ledger.go provides an in-memory implementation of the Ledger port.
//
// Every account has its own mutex. Invoke acquires the mutexes of all listed
// accounts in ascending address order, so overlapping invocations serialize
// and never deadlock, while invocations on disjoint accounts run in parallel.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/archon-research/answer-relay/internal/domain/entity"
	"github.com/archon-research/answer-relay/internal/ports/outbound"
)

// Compile-time check that Ledger implements outbound.Ledger
var _ outbound.Ledger = (*Ledger)(nil)

type ledgerSlot struct {
	mu      sync.Mutex
	account *entity.Account
}

// Ledger is an in-memory account store.
type Ledger struct {
	mu    sync.RWMutex
	slots map[solana.PublicKey]*ledgerSlot
}

// NewLedger creates an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{
		slots: make(map[solana.PublicKey]*ledgerSlot),
	}
}

// PutAccount creates or replaces an account.
func (l *Ledger) PutAccount(ctx context.Context, account *entity.Account) error {
	if account == nil {
		return fmt.Errorf("account cannot be nil")
	}

	l.mu.Lock()
	slot, ok := l.slots[account.Address]
	if !ok {
		slot = &ledgerSlot{}
		l.slots[account.Address] = slot
	}
	l.mu.Unlock()

	slot.mu.Lock()
	slot.account = account.Clone()
	slot.mu.Unlock()
	return nil
}

// GetAccount returns a copy of the account at addr.
func (l *Ledger) GetAccount(ctx context.Context, addr solana.PublicKey) (*entity.Account, error) {
	slot, err := l.slot(addr)
	if err != nil {
		return nil, err
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.account.Clone(), nil
}

// Invoke runs fn against working copies of the accounts at addrs. A listed
// address may repeat; every position of the same address receives the same
// working copy.
func (l *Ledger) Invoke(ctx context.Context, addrs []solana.PublicKey, fn func([]*entity.Account) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unique := slices.Clone(addrs)
	slices.SortFunc(unique, func(a, b solana.PublicKey) int { return bytes.Compare(a[:], b[:]) })
	unique = slices.Compact(unique)

	slots := make(map[solana.PublicKey]*ledgerSlot, len(unique))
	for _, addr := range unique {
		slot, err := l.slot(addr)
		if err != nil {
			return err
		}
		slots[addr] = slot
	}

	for _, addr := range unique {
		slots[addr].mu.Lock()
	}
	defer func() {
		for i := len(unique) - 1; i >= 0; i-- {
			slots[unique[i]].mu.Unlock()
		}
	}()

	working := make(map[solana.PublicKey]*entity.Account, len(unique))
	for _, addr := range unique {
		working[addr] = slots[addr].account.Clone()
	}
	accounts := make([]*entity.Account, len(addrs))
	for i, addr := range addrs {
		accounts[i] = working[addr]
	}

	if err := fn(accounts); err != nil {
		return err
	}

	for _, addr := range unique {
		if len(working[addr].Data) != len(slots[addr].account.Data) {
			return fmt.Errorf("%w: %s changed from %d to %d bytes",
				outbound.ErrAccountResized, addr, len(slots[addr].account.Data), len(working[addr].Data))
		}
	}
	for _, addr := range unique {
		stored := slots[addr].account
		if stored.Writable {
			copy(stored.Data, working[addr].Data)
		}
	}
	return nil
}

// Close is a no-op for the in-memory ledger.
func (l *Ledger) Close() error {
	return nil
}

func (l *Ledger) slot(addr solana.PublicKey) (*ledgerSlot, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	slot, ok := l.slots[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", outbound.ErrAccountNotFound, addr)
	}
	return slot, nil
}
