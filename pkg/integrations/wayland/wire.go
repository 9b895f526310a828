package wayland

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	headerSize     = 8
	maxMessageSize = 1<<16 - 1
)

// Messages travel in the host byte order of the compositor's machine
var byteOrder = binary.NativeEndian

// Message is one decoded wire message: a request or an event addressed to an object
type Message struct {
	Object uint32
	Opcode uint16
	Body   []byte
}

// argWriter builds the argument payload of a request
type argWriter struct {
	buf []byte
}

func (w *argWriter) Uint(v uint32) {
	w.buf = byteOrder.AppendUint32(w.buf, v)
}

func (w *argWriter) Object(id uint32) {
	w.Uint(id)
}

func (w *argWriter) NewID(id uint32) {
	w.Uint(id)
}

// String encodes s with its terminating NUL, padded to a 32-bit boundary
func (w *argWriter) String(s string) {
	n := len(s) + 1
	w.Uint(uint32(n))
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
	for pad := padding(n); pad > 0; pad-- {
		w.buf = append(w.buf, 0)
	}
}

func (w *argWriter) Bytes() []byte {
	return w.buf
}

func padding(n int) int {
	return (4 - n%4) % 4
}

// argReader walks the argument payload of an event
type argReader struct {
	data []byte
	off  int
}

func newArgReader(body []byte) *argReader {
	return &argReader{data: body}
}

func (r *argReader) Uint() (uint32, error) {
	if len(r.data)-r.off < 4 {
		return 0, errors.Errorf("truncated argument at offset %d", r.off)
	}
	v := byteOrder.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

func (r *argReader) String() (string, error) {
	n, err := r.Uint()
	if err != nil {
		return "", errors.Wrap(err, "string length")
	}
	if n == 0 {
		return "", nil
	}

	size := int(n) + padding(int(n))
	if len(r.data)-r.off < size {
		return "", errors.Errorf("truncated string of length %d at offset %d", n, r.off)
	}

	raw := r.data[r.off : r.off+int(n)]
	if raw[n-1] != 0 {
		return "", errors.New("string argument is not NUL terminated")
	}
	r.off += size
	return string(raw[:n-1]), nil
}

// encodeMessage frames a request for object with the given opcode and arguments
func encodeMessage(object uint32, opcode uint16, args []byte) ([]byte, error) {
	size := headerSize + len(args)
	if size > maxMessageSize {
		return nil, errors.Errorf("message for object %d opcode %d is too large (%d bytes)", object, opcode, size)
	}

	buf := make([]byte, 0, size)
	buf = byteOrder.AppendUint32(buf, object)
	buf = byteOrder.AppendUint32(buf, uint32(size)<<16|uint32(opcode))
	return append(buf, args...), nil
}

// readMessage reads exactly one framed message from r
func readMessage(r io.Reader) (Message, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Message{}, err
	}

	object, opcode, size := parseHeader(header[:])
	if size < headerSize {
		return Message{}, errors.Errorf("invalid message size %d for object %d", size, object)
	}

	body := make([]byte, size-headerSize)
	if _, err := io.ReadFull(r, body); err != nil {
		return Message{}, errors.Wrapf(err, "failed to read body of message for object %d", object)
	}

	return Message{Object: object, Opcode: opcode, Body: body}, nil
}

func parseHeader(header []byte) (object uint32, opcode uint16, size int) {
	object = byteOrder.Uint32(header[0:4])
	word := byteOrder.Uint32(header[4:8])
	return object, uint16(word & 0xffff), int(word >> 16)
}

// messageBuffered reports whether r already holds a complete message, so it
// can be read without blocking
func messageBuffered(r *bufio.Reader) bool {
	if r.Buffered() < headerSize {
		return false
	}
	header, err := r.Peek(headerSize)
	if err != nil {
		return false
	}
	_, _, size := parseHeader(header)
	return r.Buffered() >= size
}
