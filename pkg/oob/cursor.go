package oob

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrInvalidData is the cause of every payload decoding failure
var ErrInvalidData = errors.New("invalid oob data")

type writer struct {
	buf []byte
	off int
}

func newWriter(size int) *writer { return &writer{buf: make([]byte, size)} }

func (w *writer) u8(v uint8) {
	w.buf[w.off] = v
	w.off++
}

func (w *writer) u16(v uint16) {
	binary.BigEndian.PutUint16(w.buf[w.off:], v)
	w.off += 2
}

func (w *writer) u32(v uint32) {
	binary.BigEndian.PutUint32(w.buf[w.off:], v)
	w.off += 4
}

func (w *writer) raw(b []byte) {
	w.off += copy(w.buf[w.off:], b)
}

func (w *writer) bytes() []byte { return w.buf }

// reader walks a payload with a fixed cursor; the first out of bounds read
// sticks in err and every later read is a no-op.
type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.buf) {
		r.err = errors.Wrapf(ErrInvalidData, "need %d bytes at offset %d, have %d", n, r.off, len(r.buf))
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) u16() uint16 {
	if b := r.take(2); b != nil {
		return binary.BigEndian.Uint16(b)
	}
	return 0
}

func (r *reader) u32() uint32 {
	if b := r.take(4); b != nil {
		return binary.BigEndian.Uint32(b)
	}
	return 0
}

func (r *reader) raw(dst []byte) {
	if b := r.take(len(dst)); b != nil {
		copy(dst, b)
	}
}
