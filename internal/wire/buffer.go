// Package wire implements the DNS message wire format: names with
// compression, the 12-byte header, questions, resource records and their
// per-type RDATA, and EDNS(0) OPT records. See RFC 1035 and RFC 6891.
package wire

import (
	"encoding/binary"

	derrors "github.com/corvidlabs/dnsflow/internal/errors"
)

// maxCharacterString is the largest length a length-prefixed character
// string (used by TXT and HINFO) may declare.
const maxCharacterString = 255

// Reader is a read cursor over a DNS message buffer. It tracks a single
// position plus a stack of saved positions used while chasing compression
// pointers, so that after a name has been fully decompressed the cursor can
// be restored to the point in the original stream right after the pointer.
type Reader struct {
	buf   []byte
	pos   int
	jumps []int
}

// NewReader wraps buf for reading starting at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int { return len(r.buf) - r.pos }

// Offset returns the current read position.
func (r *Reader) Offset() int { return r.pos }

// Seek repositions the cursor absolutely. It does not touch the jump stack.
func (r *Reader) Seek(offset int) { r.pos = offset }

func (r *Reader) tooShort(op string, need int) error {
	return &derrors.CodecError{
		Op:     op,
		Offset: r.pos,
		Msg:    "buffer too short",
		Err:    nil,
	}
}

// Peek returns the next byte without advancing the cursor.
func (r *Reader) Peek() (byte, error) {
	if r.Len() < 1 {
		return 0, r.tooShort("peek", 1)
	}
	return r.buf[r.pos], nil
}

// Pop reads and consumes a single byte.
func (r *Reader) Pop() (byte, error) {
	if r.Len() < 1 {
		return 0, r.tooShort("pop", 1)
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// ReadN reads and consumes the next n bytes, returning a slice that aliases
// the underlying buffer.
func (r *Reader) ReadN(n int) ([]byte, error) {
	if n < 0 || r.Len() < n {
		return nil, r.tooShort("read bytes", n)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadU16 reads a big-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.ReadN(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadU32 reads a big-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.ReadN(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadU64 reads a big-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.ReadN(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadU128 reads a big-endian 128-bit value as two uint64 halves (hi, lo).
// Nothing in this codec currently needs a 128-bit integer type, but the
// buffer contract calls for the primitive (e.g. for a future IPv6-keyed
// record), so it is exposed here rather than bolted on ad hoc later.
func (r *Reader) ReadU128() (hi, lo uint64, err error) {
	hi, err = r.ReadU64()
	if err != nil {
		return 0, 0, err
	}
	lo, err = r.ReadU64()
	if err != nil {
		return 0, 0, err
	}
	return hi, lo, nil
}

// ReadCharacterString reads a one-octet length prefix followed by that many
// bytes, failing if the declared length exceeds max (or maxCharacterString
// if max is 0).
func (r *Reader) ReadCharacterString(max int) ([]byte, error) {
	if max <= 0 {
		max = maxCharacterString
	}
	length, err := r.Pop()
	if err != nil {
		return nil, err
	}
	if int(length) > max {
		return nil, &derrors.CodecError{
			Op:     "read character-string",
			Offset: r.pos - 1,
			Msg:    "character string too long",
		}
	}
	return r.ReadN(int(length))
}

// JumpTo saves the current position on the jump stack and repositions the
// cursor to offset. It fails if offset is out of bounds.
func (r *Reader) JumpTo(offset int) error {
	if offset < 0 || offset >= len(r.buf) {
		return &derrors.CodecError{
			Op:     "jump",
			Offset: offset,
			Msg:    "invalid offset",
		}
	}
	r.jumps = append(r.jumps, r.pos)
	r.pos = offset
	return nil
}

// JumpReset pops the most recently saved position off the jump stack and
// restores the cursor to it. It returns false if the stack was empty.
func (r *Reader) JumpReset() bool {
	if len(r.jumps) == 0 {
		return false
	}
	n := len(r.jumps) - 1
	r.pos = r.jumps[n]
	r.jumps = r.jumps[:n]
	return true
}

// Writer is an append-only write cursor. It tracks "scopes" entered with
// Enter and closed with Exit, used to compute how many bytes were written
// for a record's RDATA so RDLEN can be backpatched.
type Writer struct {
	buf    []byte
	scopes []int
}

// NewWriter returns an empty write cursor with cap bytes pre-allocated.
func NewWriter(cap int) *Writer {
	return &Writer{buf: make([]byte, 0, cap)}
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// PutByte appends a single byte.
func (w *Writer) PutByte(b byte) { w.buf = append(w.buf, b) }

// PutBytes appends a raw byte slice.
func (w *Writer) PutBytes(b []byte) { w.buf = append(w.buf, b...) }

// PutU16 appends a big-endian uint16.
func (w *Writer) PutU16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutU32 appends a big-endian uint32.
func (w *Writer) PutU32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutCharacterString appends a one-octet length prefix followed by b. It
// fails if b is longer than 255 bytes.
func (w *Writer) PutCharacterString(b []byte) error {
	if len(b) > maxCharacterString {
		return &derrors.CodecError{
			Op:     "write character-string",
			Offset: w.Len(),
			Msg:    "character string too long",
		}
	}
	w.PutByte(byte(len(b)))
	w.PutBytes(b)
	return nil
}

// Enter opens a new scope, returning its starting offset. The matching Exit
// later reports bytes written since this Enter.
func (w *Writer) Enter() int {
	off := w.Len()
	w.scopes = append(w.scopes, off)
	return off
}

// Exit closes the most recently opened scope and returns the number of
// bytes written inside it.
func (w *Writer) Exit() int {
	n := len(w.scopes) - 1
	start := w.scopes[n]
	w.scopes = w.scopes[:n]
	return w.Len() - start
}
