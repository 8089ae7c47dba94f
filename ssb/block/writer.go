package block

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Writer builds an SSB stream, buffering each open block's payload in
// memory so that its size field can be written before the payload is
// flushed, whether or not the sink supports seeking (§4.2: "the
// implementation may choose a small internal buffer and flush on
// end_block").
type Writer struct {
	dst   io.Writer
	stack []*bytes.Buffer // Nested open blocks; stack[0] is the outermost.
}

// NewWriter returns a Writer that flushes completed blocks to dst.
func NewWriter(dst io.Writer) *Writer { return &Writer{dst: dst} }

// dest returns the io.Writer that the currently-open block (or the root
// sink, if no block is open) should write to.
func (w *Writer) dest() io.Writer {
	if len(w.stack) == 0 {
		return w.dst
	}
	return w.stack[len(w.stack)-1]
}

// WriteFileHeader writes the 12-octet SSB file header.
func (w *Writer) WriteFileHeader(fh FileHeader) error {
	var buf [FileHeaderSize]byte
	copy(buf[:4], []byte(Signature))
	copy(buf[4:8], fh.Type[:])
	binary.LittleEndian.PutUint16(buf[8:10], fh.Major)
	binary.LittleEndian.PutUint16(buf[10:12], fh.Minor)
	_, err := w.dst.Write(buf[:])
	return err
}

// Handle identifies an open block awaiting End.
type Handle struct {
	tag [4]byte
}

// Begin opens a new block tagged tag. All writes until the matching End
// are buffered as this block's payload.
func (w *Writer) Begin(tag [4]byte) Handle {
	w.stack = append(w.stack, new(bytes.Buffer))
	return Handle{tag: tag}
}

// Write implements io.Writer, appending to the currently open block (or
// directly to the sink if no block is open).
func (w *Writer) Write(p []byte) (int, error) {
	return w.dest().Write(p)
}

// End closes the most recently opened block, computes its size field and
// flushes header+payload to the parent block (or the sink, if this was
// the outermost open block).
func (w *Writer) End(h Handle) error {
	buf := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]

	size := uint32(HeaderSize + buf.Len())
	var hdr [HeaderSize]byte
	copy(hdr[:4], h.tag[:])
	binary.LittleEndian.PutUint32(hdr[4:8], size)

	dst := w.dest()
	if _, err := dst.Write(hdr[:]); err != nil {
		return err
	}
	_, err := dst.Write(buf.Bytes())
	return err
}

// WriteFill emits a "fill" block with n payload octets of zero, used to
// pad a stream to a required offset.
func (w *Writer) WriteFill(n int) error {
	var tag [4]byte
	copy(tag[:], "fill")
	h := w.Begin(tag)
	if n > 0 {
		if _, err := w.Write(make([]byte, n)); err != nil {
			return err
		}
	}
	return w.End(h)
}

// WriteRaw writes a complete pre-built block (header + payload) verbatim,
// with its size field set to HeaderSize plus the payload length.
func (w *Writer) WriteRaw(tag [4]byte, payload []byte) error {
	size := uint32(HeaderSize + len(payload))
	var hdr [HeaderSize]byte
	copy(hdr[:4], tag[:])
	binary.LittleEndian.PutUint32(hdr[4:8], size)
	dst := w.dest()
	if _, err := dst.Write(hdr[:]); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := dst.Write(payload)
	return err
}
