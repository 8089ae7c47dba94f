/*
NAME
  block.go - SSB block framing: the 8-octet block header, the 12-octet
  file header, and the reader/writer that walk a chunked SSB stream.

DESCRIPTION
  Reads and writes the block headers and the file header of an SSB
  stream; block payloads are left to the caller.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package block provides the SSB chunk framing layer: an 8-octet
// tag+size block header, a 12-octet file header, and forward-compatible
// skip-unknown read/write over them.
package block

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// HeaderSize is the size, in octets, of a block header (4-octet tag plus
// 4-octet total size).
const HeaderSize = 8

// FileHeaderSize is the size, in octets, of the SSB file header.
const FileHeaderSize = 12

// Signature is the fixed 4-octet SSB file signature.
const Signature = "SSBB"

// Errors returned by the block framing layer.
var (
	ErrBadSignature  = errors.New("block: bad SSB signature")
	ErrSizeUnderflow = errors.New("block: size field smaller than header")
	ErrOutOfBounds   = errors.New("block: child block exceeds parent bounds")
)

// Header is a block's tag plus its total size (header included).
type Header struct {
	Tag  [4]byte
	Size uint32 // Total size including the 8-octet header.
}

// PayloadLen returns the payload length implied by h.Size.
func (h Header) PayloadLen() (uint32, error) {
	if h.Size < HeaderSize {
		return 0, errors.Wrapf(ErrSizeUnderflow, "tag %q size %d", h.Tag, h.Size)
	}
	return h.Size - HeaderSize, nil
}

// TagString returns h's tag as a string, for logging and error messages.
func (h Header) TagString() string { return string(h.Tag[:]) }

// FileHeader is the 12-octet SSB file header.
type FileHeader struct {
	Type  [4]byte
	Major uint16
	Minor uint16
}

// TypeString returns h's file-type tag as a string.
func (h FileHeader) TypeString() string { return string(h.Type[:]) }

// Reader walks a chunked SSB stream, reading block headers and bounding
// reads of nested blocks via io.LimitedReader so a known tag with more
// fields than the caller recognises can never read past its declared end.
type Reader struct {
	r io.Reader
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader { return &Reader{r: r} }

// R exposes the underlying stream for primitive-level reads at the current
// (unbounded, top-level) position.
func (r *Reader) R() io.Reader { return r.r }

// ReadFileHeader reads and returns the 12-octet SSB file header, verifying
// the "SSBB" signature.
func (r *Reader) ReadFileHeader() (FileHeader, error) {
	var buf [FileHeaderSize]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		return FileHeader{}, errors.Wrap(err, "block: reading file header")
	}
	if !bytes.Equal(buf[:4], []byte(Signature)) {
		return FileHeader{}, errors.Wrapf(ErrBadSignature, "got %q", buf[:4])
	}
	var fh FileHeader
	copy(fh.Type[:], buf[4:8])
	fh.Major = le16(buf[8:10])
	fh.Minor = le16(buf[10:12])
	return fh, nil
}

// ReadHeader reads an 8-octet block header (tag + total size).
func (r *Reader) ReadHeader() (Header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		return Header{}, err
	}
	var h Header
	copy(h.Tag[:], buf[:4])
	h.Size = le32(buf[4:8])
	return h, nil
}

// SeekPast discards n payload octets without interpreting them; the
// conformant behaviour for an unknown child tag.
func (r *Reader) SeekPast(n uint32) error {
	if n == 0 {
		return nil
	}
	if rs, ok := r.r.(io.Seeker); ok {
		_, err := rs.Seek(int64(n), io.SeekCurrent)
		return err
	}
	_, err := io.CopyN(io.Discard, r.r, int64(n))
	return err
}

// ReadPayload reads exactly n octets of payload.
func (r *Reader) ReadPayload(n uint32) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Child returns a bounded reader over the next payloadLen octets of r's
// stream. Reads through the returned *io.LimitedReader consume from r in
// lock-step; call Close (via r.CloseChild) to discard any octets the
// caller did not consume, so parsing a known block with unrecognised
// trailing fields stops exactly at its declared end.
func (r *Reader) Child(payloadLen uint32) *io.LimitedReader {
	return &io.LimitedReader{R: r.r, N: int64(payloadLen)}
}

// CloseChild discards any bytes remaining in a child reader returned by
// Child, advancing the parent stream to the child's declared end.
func (r *Reader) CloseChild(c *io.LimitedReader) error {
	if c.N < 0 {
		return errors.Wrap(ErrOutOfBounds, "read past declared block end")
	}
	if c.N == 0 {
		return nil
	}
	_, err := io.CopyN(io.Discard, c.R, c.N)
	c.N = 0
	return err
}

// ReadChildHeader reads the next child block header from within a bounded
// parent reader, returning ok=false when the parent's declared end has
// been reached.
func ReadChildHeader(parent *io.LimitedReader) (Header, bool, error) {
	if parent.N <= 0 {
		return Header{}, false, nil
	}
	if parent.N < HeaderSize {
		return Header{}, false, errors.Wrap(ErrOutOfBounds, "truncated child block header")
	}
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(parent, buf[:]); err != nil {
		return Header{}, false, err
	}
	var h Header
	copy(h.Tag[:], buf[:4])
	h.Size = le32(buf[4:8])
	plen, err := h.PayloadLen()
	if err != nil {
		return Header{}, false, err
	}
	if int64(plen) > parent.N {
		return Header{}, false, errors.Wrapf(ErrOutOfBounds, "child %q extends past parent end", h.Tag)
	}
	return h, true, nil
}

func le16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
