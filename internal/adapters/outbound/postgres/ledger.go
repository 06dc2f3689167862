package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/archon-research/answer-relay/internal/domain/entity"
	"github.com/archon-research/answer-relay/internal/ports/outbound"
)

// Compile-time check that Ledger implements outbound.Ledger.
var _ outbound.Ledger = (*Ledger)(nil)

// Ledger stores accounts in the ledger_account table. Invoke holds row locks
// on every listed account for the lifetime of one transaction; rows are
// locked in address order so concurrent invocations cannot deadlock.
type Ledger struct {
	pool   *pgxpool.Pool
	txm    *TxManager
	logger *slog.Logger
}

// NewLedger creates a PostgreSQL ledger.
func NewLedger(pool *pgxpool.Pool, logger *slog.Logger) (*Ledger, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	txm, err := NewTxManager(pool, logger)
	if err != nil {
		return nil, err
	}
	return &Ledger{
		pool:   pool,
		txm:    txm,
		logger: logger.With("component", "postgres-ledger"),
	}, nil
}

// PutAccount inserts the account or replaces every column of an existing one.
func (l *Ledger) PutAccount(ctx context.Context, account *entity.Account) error {
	if account == nil {
		return fmt.Errorf("account cannot be nil")
	}
	data := account.Data
	if data == nil {
		data = []byte{}
	}
	_, err := l.pool.Exec(ctx, `
		INSERT INTO ledger_account (address, owner, writable, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO UPDATE
		SET owner = EXCLUDED.owner,
		    writable = EXCLUDED.writable,
		    data = EXCLUDED.data,
		    updated_at = NOW()
	`, account.Address[:], account.Owner[:], account.Writable, data)
	if err != nil {
		return fmt.Errorf("upserting account %s: %w", account.Address, err)
	}
	return nil
}

// GetAccount returns the account at addr.
func (l *Ledger) GetAccount(ctx context.Context, addr solana.PublicKey) (*entity.Account, error) {
	account, err := scanAccount(l.pool.QueryRow(ctx, `
		SELECT address, owner, writable, data
		FROM ledger_account
		WHERE address = $1
	`, addr[:]))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", outbound.ErrAccountNotFound, addr)
	}
	if err != nil {
		return nil, fmt.Errorf("querying account %s: %w", addr, err)
	}
	return account, nil
}

// Invoke locks the accounts at addrs, runs fn against copies and writes back
// the data of writable accounts in the same transaction.
func (l *Ledger) Invoke(ctx context.Context, addrs []solana.PublicKey, fn func([]*entity.Account) error) error {
	keys := make([][]byte, len(addrs))
	for i, addr := range addrs {
		keys[i] = addr.Bytes()
	}

	return l.txm.WithTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT address, owner, writable, data
			FROM ledger_account
			WHERE address = ANY($1)
			ORDER BY address
			FOR UPDATE
		`, keys)
		if err != nil {
			return fmt.Errorf("locking accounts: %w", err)
		}
		stored, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.Account, error) {
			return scanAccount(row)
		})
		if err != nil {
			return fmt.Errorf("scanning accounts: %w", err)
		}

		byAddr := make(map[solana.PublicKey]*entity.Account, len(stored))
		working := make(map[solana.PublicKey]*entity.Account, len(stored))
		for _, a := range stored {
			byAddr[a.Address] = a
			working[a.Address] = a.Clone()
		}

		accounts := make([]*entity.Account, len(addrs))
		for i, addr := range addrs {
			a, ok := working[addr]
			if !ok {
				return fmt.Errorf("%w: %s", outbound.ErrAccountNotFound, addr)
			}
			accounts[i] = a
		}

		if err := fn(accounts); err != nil {
			return err
		}

		for addr, a := range working {
			if len(a.Data) != len(byAddr[addr].Data) {
				return fmt.Errorf("%w: %s changed from %d to %d bytes",
					outbound.ErrAccountResized, addr, len(byAddr[addr].Data), len(a.Data))
			}
		}
		for addr, a := range working {
			if !byAddr[addr].Writable {
				continue
			}
			if _, err := tx.Exec(ctx, `
				UPDATE ledger_account
				SET data = $2, updated_at = NOW()
				WHERE address = $1
			`, addr[:], a.Data); err != nil {
				return fmt.Errorf("writing account %s: %w", addr, err)
			}
		}
		return nil
	})
}

// Close is a no-op; the pool is owned by the caller.
func (l *Ledger) Close() error {
	return nil
}

func scanAccount(row pgx.Row) (*entity.Account, error) {
	var address, owner, data []byte
	var a entity.Account
	if err := row.Scan(&address, &owner, &a.Writable, &data); err != nil {
		return nil, err
	}
	a.Address = solana.PublicKeyFromBytes(address)
	a.Owner = solana.PublicKeyFromBytes(owner)
	a.Data = data
	if a.Data == nil {
		a.Data = []byte{}
	}
	return &a, nil
}
