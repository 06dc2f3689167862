package schema

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

var (
	// ErrCorrupt means the bytes do not decode as the layout.
	ErrCorrupt = errors.New("corrupt record")
	// ErrLength means a buffer is not exactly the layout size.
	ErrLength = errors.New("length does not match layout")
	// ErrOverflow means a record's compact encoding exceeds the layout size.
	ErrOverflow = errors.New("record overflows layout")
)

// Encode writes rec in the layout's canonical form: the compact borsh
// encoding followed by zero bytes, exactly l.Size() bytes long. Equal records
// always encode to identical bytes.
func Encode(l Layout, rec bin.BinaryMarshaler) ([]byte, error) {
	size := l.Size()

	var buf bytes.Buffer
	buf.Grow(size)
	if err := rec.MarshalWithEncoder(bin.NewBorshEncoder(&buf)); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", l.Name, err)
	}
	if buf.Len() > size {
		return nil, fmt.Errorf("%w: %s encodes to %d bytes, layout holds %d", ErrOverflow, l.Name, buf.Len(), size)
	}

	out := make([]byte, size)
	copy(out, buf.Bytes())
	return out, nil
}

// Decode reads rec from the compact prefix of data. Bytes past the encoded
// record are slack and ignored.
func Decode(l Layout, data []byte, rec bin.BinaryUnmarshaler) error {
	if len(data) < l.MinSize() {
		return fmt.Errorf("%w: %s needs at least %d bytes, got %d", ErrCorrupt, l.Name, l.MinSize(), len(data))
	}
	if err := rec.UnmarshalWithDecoder(bin.NewBorshDecoder(data)); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, l.Name, err)
	}
	return nil
}

// DecodeExact is Decode for buffers that must be exactly the layout size.
func DecodeExact(l Layout, data []byte, rec bin.BinaryUnmarshaler) error {
	if len(data) != l.Size() {
		return fmt.Errorf("%w: %s is %d bytes, got %d", ErrLength, l.Name, l.Size(), len(data))
	}
	return Decode(l, data, rec)
}
