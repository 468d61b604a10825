package audio

import (
	"encoding/base64"
	"io"
)

// Base64Writer encodes an arbitrarily split byte stream into standard base64.
// Up to two trailing bytes are carried between writes and Close emits the
// padded tail, so the output does not depend on how the input was split.
type Base64Writer struct {
	w      io.Writer
	carry  [2]byte
	nCarry int
	out    []byte
	closed bool
}

func NewBase64Writer(w io.Writer) *Base64Writer {
	return &Base64Writer{w: w}
}

func (e *Base64Writer) Write(p []byte) (int, error) {
	if e.closed {
		return 0, io.ErrClosedPipe
	}
	n := len(p)

	if e.nCarry > 0 {
		need := 3 - e.nCarry
		if len(p) < need {
			e.nCarry += copy(e.carry[e.nCarry:], p)
			return n, nil
		}
		var group [3]byte
		copy(group[:], e.carry[:e.nCarry])
		copy(group[e.nCarry:], p[:need])
		if err := e.emit(group[:]); err != nil {
			return 0, err
		}
		p = p[need:]
		e.nCarry = 0
	}

	whole := len(p) - len(p)%3
	if whole > 0 {
		if err := e.emit(p[:whole]); err != nil {
			return 0, err
		}
	}
	e.nCarry = copy(e.carry[:], p[whole:])
	return n, nil
}

// Close flushes the carried tail: nothing for zero bytes, "xx==" for one,
// "xxx=" for two. The underlying writer is left open.
func (e *Base64Writer) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if e.nCarry == 0 {
		return nil
	}
	err := e.emit(e.carry[:e.nCarry])
	e.nCarry = 0
	return err
}

func (e *Base64Writer) emit(src []byte) error {
	size := base64.StdEncoding.EncodedLen(len(src))
	if cap(e.out) < size {
		e.out = make([]byte, size)
	}
	buf := e.out[:size]
	base64.StdEncoding.Encode(buf, src)
	_, err := e.w.Write(buf)
	return err
}
