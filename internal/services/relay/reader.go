package relay

import (
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/archon-research/answer-relay/internal/domain/entity"
	"github.com/archon-research/answer-relay/internal/pkg/schema"
)

// sourceReader decodes oracle-published source accounts. It never mutates
// the account it reads.
type sourceReader struct {
	// oracleProgram is the trusted owner of source accounts. The zero key
	// disables the ownership check.
	oracleProgram solana.PublicKey
}

// read decodes account into rec using the layout of variant.
func (r sourceReader) read(account *entity.Account, variant entity.SourceVariant, rec bin.BinaryUnmarshaler) error {
	if r.oracleProgram != (solana.PublicKey{}) && account.Owner != r.oracleProgram {
		return fmt.Errorf("%w: account %s is owned by %s, expected %s",
			entity.ErrUntrustedSource, account.Address, account.Owner, r.oracleProgram)
	}

	layout, err := schema.SourceLayout(variant)
	if err != nil {
		return err
	}
	if err := schema.DecodeExact(layout, account.Data, rec); err != nil {
		if errors.Is(err, schema.ErrLength) || errors.Is(err, schema.ErrCorrupt) {
			return fmt.Errorf("%w: %v", entity.ErrMalformedSource, err)
		}
		return err
	}
	return nil
}
