package relay

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/archon-research/answer-relay/internal/domain/entity"
	"github.com/archon-research/answer-relay/internal/pkg/schema"
)

// destinationWriter rewrites answer accounts in place. The buffer length is
// never changed and the account is only touched by the final copy.
type destinationWriter struct {
	// relayProgram is the required owner of destination accounts. The zero
	// key disables the ownership check.
	relayProgram solana.PublicKey
}

// load checks that account may be written and decodes its current contents
// into dst.
func (w destinationWriter) load(account *entity.Account, dst entity.Answer) error {
	if !account.Writable {
		return fmt.Errorf("%w: account %s is not writable", entity.ErrReadonlyDestination, account.Address)
	}
	if w.relayProgram != (solana.PublicKey{}) && account.Owner != w.relayProgram {
		return fmt.Errorf("%w: account %s is owned by %s, expected %s",
			entity.ErrReadonlyDestination, account.Address, account.Owner, w.relayProgram)
	}

	layout, err := schema.AnswerLayout(dst.Variant())
	if err != nil {
		return err
	}
	if err := schema.Decode(layout, account.Data, dst); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrMalformedDestination, err)
	}
	return nil
}

// store encodes dst and copies it over the account's buffer.
func (w destinationWriter) store(account *entity.Account, dst entity.Answer) error {
	layout, err := schema.AnswerLayout(dst.Variant())
	if err != nil {
		return err
	}
	encoded, err := schema.Encode(layout, dst)
	if err != nil {
		if errors.Is(err, schema.ErrOverflow) {
			return fmt.Errorf("%w: %v", entity.ErrBufferSizeMismatch, err)
		}
		return fmt.Errorf("encoding %s answer: %w", dst.Variant(), err)
	}
	if len(encoded) != len(account.Data) {
		return fmt.Errorf("%w: %s answer encodes to %d bytes, account %s holds %d",
			entity.ErrBufferSizeMismatch, dst.Variant(), len(encoded), account.Address, len(account.Data))
	}

	copy(account.Data, encoded)
	return nil
}
