package entity

import (
	"testing"

	"github.com/gagliardetto/solana-go"
)

func TestAccountClone(t *testing.T) {
	orig := &Account{
		Address:  solana.PublicKey{1},
		Owner:    solana.PublicKey{2},
		Writable: true,
		Data:     []byte{1, 2, 3},
	}
	c := orig.Clone()
	c.Data[0] = 9
	c.Writable = false

	if orig.Data[0] != 1 {
		t.Error("expected clone data to be independent of the original")
	}
	if !orig.Writable {
		t.Error("expected original flags to be unchanged")
	}
	if c.Address != orig.Address || c.Owner != orig.Owner {
		t.Error("expected addresses to be copied")
	}
}

func TestAccountClone_Nil(t *testing.T) {
	var a *Account
	if a.Clone() != nil {
		t.Error("expected nil clone of nil account")
	}
	empty := (&Account{}).Clone()
	if empty.Data == nil || len(empty.Data) != 0 {
		t.Errorf("expected empty non-nil data, got %v", empty.Data)
	}
}
