// Package relay copies oracle-published source records into caller-owned
// answer accounts.
//
// Each invocation receives an ordered account list [source, destination].
// The source is decoded strictly, its fields are mapped onto the answer
// shape of the requested variant, and the destination buffer is rewritten
// in place without changing its length. An invocation either commits the
// whole answer or leaves the destination untouched; the hosting ledger is
// responsible for locking and for discarding writes of failed invocations.
package relay

import (
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/archon-research/answer-relay/internal/domain/entity"
)

// Config holds configuration for the relay engine.
type Config struct {
	// OracleProgram, when set, must own every source account.
	OracleProgram solana.PublicKey
	// RelayProgram, when set, must own every destination account.
	RelayProgram solana.PublicKey
	Logger       *slog.Logger
}

// Engine executes relay invocations. It holds no per-invocation state and is
// safe for concurrent use on disjoint accounts.
type Engine struct {
	reader sourceReader
	writer destinationWriter
	logger *slog.Logger
}

// NewEngine creates a relay engine.
func NewEngine(config Config) *Engine {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	logger := config.Logger.With("component", "relay")
	if config.OracleProgram == (solana.PublicKey{}) {
		logger.Warn("no oracle program configured, source ownership is not checked")
	}

	return &Engine{
		reader: sourceReader{oracleProgram: config.OracleProgram},
		writer: destinationWriter{relayProgram: config.RelayProgram},
		logger: logger,
	}
}

// RelaySingleFeed copies a feed's spot quote into a SingleFeed answer.
func (e *Engine) RelaySingleFeed(accounts []*entity.Account) error {
	_, err := e.Relay(entity.AnswerSingleFeed, accounts)
	return err
}

// RelayAggregate copies a feed's collection aggregates into an Aggregate answer.
func (e *Engine) RelayAggregate(accounts []*entity.Account) error {
	_, err := e.Relay(entity.AnswerAggregate, accounts)
	return err
}

// RelayCrossChain copies a cross-chain report into a CrossChain answer.
func (e *Engine) RelayCrossChain(accounts []*entity.Account) error {
	_, err := e.Relay(entity.AnswerCrossChain, accounts)
	return err
}

// Relay runs the invocation for variant and returns the committed answer.
// Accounts past the second are ignored. On failure the returned error is an
// *InvocationError and the destination buffer is unchanged.
func (e *Engine) Relay(variant entity.AnswerVariant, accounts []*entity.Account) (entity.Answer, error) {
	stage := StageStart
	fail := func(err error) error {
		return &InvocationError{Variant: variant, Stage: stage, Err: err}
	}

	r, ok := routes[variant]
	if !ok {
		return nil, fail(fmt.Errorf("%w: %s", entity.ErrUnknownVariant, variant))
	}
	if len(accounts) < 2 {
		return nil, fail(fmt.Errorf("%w: need source and destination, got %d accounts", entity.ErrMissingAccount, len(accounts)))
	}
	source, dest := accounts[0], accounts[1]
	if source == nil {
		return nil, fail(fmt.Errorf("%w: source", entity.ErrMissingAccount))
	}
	if dest == nil {
		return nil, fail(fmt.Errorf("%w: destination", entity.ErrMissingAccount))
	}
	stage = StageSourceResolved

	src, answer, apply := r.bind()
	if err := e.reader.read(source, r.source, src); err != nil {
		return nil, fail(err)
	}
	stage = StageSourceDecoded

	if err := e.writer.load(dest, answer); err != nil {
		return nil, fail(err)
	}
	apply()
	stage = StageMapped

	if err := e.writer.store(dest, answer); err != nil {
		return nil, fail(err)
	}

	e.logger.Debug("answer committed",
		"variant", variant.String(),
		"source", source.Address.String(),
		"destination", dest.Address.String(),
		"stage", StageDestinationCommitted.String())
	return answer, nil
}
