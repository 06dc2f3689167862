package entity

import "errors"

// Relay failure signals. A relay invocation that fails reports exactly one of
// these (wrapped with context); the hosting ledger discards all of its writes.
var (
	// ErrMissingAccount is returned when fewer than two account handles are supplied.
	ErrMissingAccount = errors.New("missing account")

	// ErrMalformedSource is returned when the source bytes do not match the
	// expected fixed layout (wrong length, bad length prefix, invalid text).
	ErrMalformedSource = errors.New("malformed source")

	// ErrMalformedDestination is returned when the destination bytes cannot be
	// decoded into the expected answer shape.
	ErrMalformedDestination = errors.New("malformed destination")

	// ErrBufferSizeMismatch is returned when the re-encoded destination would
	// change the buffer length. It indicates a layout contract violation.
	ErrBufferSizeMismatch = errors.New("buffer size mismatch")

	// ErrUntrustedSource is returned when the source account is not owned by
	// the configured oracle program.
	ErrUntrustedSource = errors.New("untrusted source")

	// ErrReadonlyDestination is returned when the destination account is not
	// writable by the relay program.
	ErrReadonlyDestination = errors.New("readonly destination")

	// ErrUnknownVariant is returned for a variant name or value with no schema.
	ErrUnknownVariant = errors.New("unknown variant")
)
