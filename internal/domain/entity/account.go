package entity

import (
	"bytes"

	"github.com/gagliardetto/solana-go"
)

// Account is a fixed-capacity byte buffer hosted by the ledger and
// identified by its public address.
type Account struct {
	Address solana.PublicKey
	// Owner is the program allowed to mutate Data.
	Owner solana.PublicKey
	// Writable reports whether the invocation may write Data.
	Writable bool
	// Data has a fixed length set at account creation.
	Data []byte
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	c.Data = bytes.Clone(a.Data)
	if c.Data == nil {
		c.Data = []byte{}
	}
	return &c
}
