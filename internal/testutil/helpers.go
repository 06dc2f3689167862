package testutil

import (
	"bytes"
	"io"
	"log/slog"

	"github.com/gagliardetto/solana-go"
)

// DiscardLogger returns an slog.Logger that writes to io.Discard.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Address returns a deterministic address with every byte set to b.
func Address(b byte) solana.PublicKey {
	return solana.PublicKeyFromBytes(bytes.Repeat([]byte{b}, 32))
}
