package entity

import (
	"fmt"
	"unicode/utf8"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// AddressLength is the encoded width of an address field.
const AddressLength = 32

// fieldWriter writes borsh fields in order and keeps the first error, so a
// record's MarshalWithEncoder reads as its field list.
type fieldWriter struct {
	enc *bin.Encoder
	err error
}

func (w *fieldWriter) u32(v uint32) {
	if w.err == nil {
		w.err = w.enc.WriteUint32(v, bin.LE)
	}
}

func (w *fieldWriter) u64(v uint64) {
	if w.err == nil {
		w.err = w.enc.WriteUint64(v, bin.LE)
	}
}

func (w *fieldWriter) address(pk solana.PublicKey) {
	if w.err == nil {
		w.err = w.enc.WriteBytes(pk[:], false)
	}
}

// text writes a borsh string: u32 LE byte length followed by the bytes.
func (w *fieldWriter) text(s string) {
	if w.err != nil {
		return
	}
	if w.err = w.enc.WriteUint32(uint32(len(s)), bin.LE); w.err != nil {
		return
	}
	w.err = w.enc.WriteBytes([]byte(s), false)
}

// fieldReader is the decoding counterpart of fieldWriter. Every read is
// bounds-checked against the remaining input and errors name the field.
type fieldReader struct {
	dec *bin.Decoder
	err error
}

func (r *fieldReader) need(name string, n int) bool {
	if r.err != nil {
		return false
	}
	if rem := r.dec.Remaining(); rem < n {
		r.err = fmt.Errorf("field %s: need %d bytes, %d remaining", name, n, rem)
		return false
	}
	return true
}

func (r *fieldReader) u32(name string) uint32 {
	if !r.need(name, 4) {
		return 0
	}
	v, err := r.dec.ReadUint32(bin.LE)
	if err != nil {
		r.err = fmt.Errorf("field %s: %w", name, err)
	}
	return v
}

func (r *fieldReader) u64(name string) uint64 {
	if !r.need(name, 8) {
		return 0
	}
	v, err := r.dec.ReadUint64(bin.LE)
	if err != nil {
		r.err = fmt.Errorf("field %s: %w", name, err)
	}
	return v
}

func (r *fieldReader) address(name string) solana.PublicKey {
	var pk solana.PublicKey
	if !r.need(name, AddressLength) {
		return pk
	}
	b, err := r.dec.ReadNBytes(AddressLength)
	if err != nil {
		r.err = fmt.Errorf("field %s: %w", name, err)
		return pk
	}
	copy(pk[:], b)
	return pk
}

func (r *fieldReader) text(name string) string {
	n := r.u32(name)
	if r.err != nil {
		return ""
	}
	if rem := r.dec.Remaining(); int64(n) > int64(rem) {
		r.err = fmt.Errorf("field %s: declared text length %d exceeds %d remaining bytes", name, n, rem)
		return ""
	}
	if n == 0 {
		return ""
	}
	b, err := r.dec.ReadNBytes(int(n))
	if err != nil {
		r.err = fmt.Errorf("field %s: %w", name, err)
		return ""
	}
	if !utf8.Valid(b) {
		r.err = fmt.Errorf("field %s: text is not valid UTF-8", name)
		return ""
	}
	return string(b)
}
