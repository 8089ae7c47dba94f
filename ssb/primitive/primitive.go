/*
NAME
  primitive.go - fixed-width SSB scalar encoding: integers, bools, UUIDs,
  rationals, timestamps, time labels and date-times.

DESCRIPTION
  Little-endian readers and writers for each SSB scalar type, plus the
  fixed- and variable-length string and byte-array encodings.

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

// Package primitive provides readers and writers for the scalar types of the
// Sequence Store Binary (SSB) encoding: little-endian fixed-width integers,
// booleans, UUIDs, rationals, timestamps, time labels, date-times and
// strings/byte arrays.
package primitive

import (
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// SSB is little-endian throughout.
var order = binary.LittleEndian

// Sizes, in octets, of the fixed-width SSB scalar encodings.
const (
	SizeUUID      = 16
	SizeRational  = 8
	SizeTimestamp = 11
	SizeTimeLabel = 29
	SizeDateTime  = 7
	SizeTag       = 16
)

// Errors returned by the primitive codec. These are the leaves of the
// MalformedBlock and TruncatedInput taxonomy described in the GSF error
// design; callers higher up wrap them with path context.
var (
	ErrShortRead           = errors.New("primitive: short read")
	ErrStringTooLong       = errors.New("primitive: string exceeds 65535 octets")
	ErrNanosOutOfRange     = errors.New("primitive: nanoseconds out of range")
	ErrOverLongEnclosed    = errors.New("primitive: value exceeds enclosing block bounds")
)

// readFull reads exactly len(b) bytes from r, wrapping io.EOF/io.ErrUnexpectedEOF
// as ErrShortRead so callers see one taxonomy.
func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err != nil {
		return errors.Wrap(ErrShortRead, err.Error())
	}
	return nil
}

// ReadUint reads an n-octet (1-8) unsigned little-endian integer.
func ReadUint(r io.Reader, n int) (uint64, error) {
	var buf [8]byte
	if err := readFull(r, buf[:n]); err != nil {
		return 0, err
	}
	var v uint64
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v, nil
}

// WriteUint writes v as an n-octet (1-8) unsigned little-endian integer.
func WriteUint(w io.Writer, n int, v uint64) error {
	var buf [8]byte
	for i := 0; i < n; i++ {
		buf[i] = byte(v)
		v >>= 8
	}
	_, err := w.Write(buf[:n])
	return err
}

// ReadInt reads an n-octet (1-8) signed two's-complement little-endian integer.
func ReadInt(r io.Reader, n int) (int64, error) {
	u, err := ReadUint(r, n)
	if err != nil {
		return 0, err
	}
	shift := uint(64 - n*8)
	return int64(u<<shift) >> shift, nil
}

// WriteInt writes v as an n-octet (1-8) signed two's-complement little-endian integer.
func WriteInt(w io.Writer, n int, v int64) error {
	return WriteUint(w, n, uint64(v))
}

// ReadBool reads a 1-octet boolean; any non-zero octet decodes true.
func ReadBool(r io.Reader) (bool, error) {
	var buf [1]byte
	if err := readFull(r, buf[:]); err != nil {
		return false, err
	}
	return buf[0] != 0, nil
}

// WriteBool writes a 1-octet boolean; true encodes as 1, false as 0.
func WriteBool(w io.Writer, b bool) error {
	var v byte
	if b {
		v = 1
	}
	_, err := w.Write([]byte{v})
	return err
}

// ReadUUID reads a 16-octet UUID.
func ReadUUID(r io.Reader) (uuid.UUID, error) {
	var buf [SizeUUID]byte
	if err := readFull(r, buf[:]); err != nil {
		return uuid.UUID{}, err
	}
	var u uuid.UUID
	copy(u[:], buf[:])
	return u, nil
}

// WriteUUID writes a 16-octet UUID verbatim; it never goes through the
// library's text form, so the wire bytes are exactly u[:].
func WriteUUID(w io.Writer, u uuid.UUID) error {
	_, err := w.Write(u[:])
	return err
}

// Rational is an unsigned (numerator, denominator) pair. Either side being
// zero is a null/invalid signal to consumers; the codec preserves the
// literal values written.
type Rational struct {
	Num uint32
	Den uint32
}

// IsNull reports whether either side of r is zero.
func (r Rational) IsNull() bool { return r.Num == 0 || r.Den == 0 }

// ReadRational reads an 8-octet (num, den) unsigned rational.
func ReadRational(r io.Reader) (Rational, error) {
	num, err := ReadUint(r, 4)
	if err != nil {
		return Rational{}, err
	}
	den, err := ReadUint(r, 4)
	if err != nil {
		return Rational{}, err
	}
	return Rational{Num: uint32(num), Den: uint32(den)}, nil
}

// WriteRational writes an 8-octet (num, den) unsigned rational.
func WriteRational(w io.Writer, v Rational) error {
	if err := WriteUint(w, 4, uint64(v.Num)); err != nil {
		return err
	}
	return WriteUint(w, 4, uint64(v.Den))
}

// Timestamp is a signed nanosecond timestamp: a sign octet ("positive?"),
// 6 unsigned seconds octets and 4 unsigned nanosecond octets. A
// zero-magnitude timestamp is canonically positive.
type Timestamp struct {
	Positive bool
	Seconds  uint64 // 48-bit value.
	Nanos    uint32
}

// ReadTimestamp reads an 11-octet signed nanosecond timestamp.
func ReadTimestamp(r io.Reader) (Timestamp, error) {
	pos, err := ReadBool(r)
	if err != nil {
		return Timestamp{}, err
	}
	sec, err := ReadUint(r, 6)
	if err != nil {
		return Timestamp{}, err
	}
	nanos, err := ReadUint(r, 4)
	if err != nil {
		return Timestamp{}, err
	}
	if nanos >= 1e9 {
		return Timestamp{}, errors.Wrapf(ErrNanosOutOfRange, "got %d", nanos)
	}
	if sec == 0 && nanos == 0 {
		pos = true
	}
	return Timestamp{Positive: pos, Seconds: sec, Nanos: uint32(nanos)}, nil
}

// WriteTimestamp writes an 11-octet signed nanosecond timestamp.
func WriteTimestamp(w io.Writer, t Timestamp) error {
	if t.Nanos >= 1e9 {
		return errors.Wrapf(ErrNanosOutOfRange, "got %d", t.Nanos)
	}
	pos := t.Positive
	if t.Seconds == 0 && t.Nanos == 0 {
		pos = true
	}
	if err := WriteBool(w, pos); err != nil {
		return err
	}
	if err := WriteUint(w, 6, t.Seconds); err != nil {
		return err
	}
	return WriteUint(w, 4, uint64(t.Nanos))
}

// AsNanos returns t as a signed count of nanoseconds since zero, suitable
// for computing differences between timestamps.
func (t Timestamp) AsNanos() int64 {
	mag := int64(t.Seconds)*1e9 + int64(t.Nanos)
	if !t.Positive {
		return -mag
	}
	return mag
}

// String renders t as a signed seconds.nanoseconds value.
func (t Timestamp) String() string {
	sign := "+"
	if !t.Positive {
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%09d", sign, t.Seconds, t.Nanos)
}

// TimeLabel is a (tag, timecode) pair: a 16-octet tag and a 13-octet
// timecode, fixed-width strings interpreted opaquely by the codec.
type TimeLabel struct {
	Tag      [SizeTag]byte
	Timecode [13]byte
}

// ReadTimeLabel reads a 29-octet time label.
func ReadTimeLabel(r io.Reader) (TimeLabel, error) {
	var tl TimeLabel
	if err := readFull(r, tl.Tag[:]); err != nil {
		return TimeLabel{}, err
	}
	if err := readFull(r, tl.Timecode[:]); err != nil {
		return TimeLabel{}, err
	}
	return tl, nil
}

// WriteTimeLabel writes a 29-octet time label.
func WriteTimeLabel(w io.Writer, tl TimeLabel) error {
	if _, err := w.Write(tl.Tag[:]); err != nil {
		return err
	}
	_, err := w.Write(tl.Timecode[:])
	return err
}

// DateTime is a 7-octet calendar date-time: year (u16), month, day, hour,
// minute, second (each u8).
type DateTime struct {
	Year                          uint16
	Month, Day, Hour, Min, Second uint8
}

// ReadDateTime reads a 7-octet date-time.
func ReadDateTime(r io.Reader) (DateTime, error) {
	year, err := ReadUint(r, 2)
	if err != nil {
		return DateTime{}, err
	}
	var rest [5]byte
	if err := readFull(r, rest[:]); err != nil {
		return DateTime{}, err
	}
	return DateTime{
		Year: uint16(year), Month: rest[0], Day: rest[1],
		Hour: rest[2], Min: rest[3], Second: rest[4],
	}, nil
}

// WriteDateTime writes a 7-octet date-time.
func WriteDateTime(w io.Writer, dt DateTime) error {
	if err := WriteUint(w, 2, uint64(dt.Year)); err != nil {
		return err
	}
	_, err := w.Write([]byte{dt.Month, dt.Day, dt.Hour, dt.Min, dt.Second})
	return err
}

// RawString holds a string read from the wire. Valid is false when the
// underlying bytes were not valid UTF-8; Bytes then holds the raw octets
// unmodified rather than a U+FFFD-substituted string (Open Question 3:
// malformed UTF-8 is surfaced, never silently corrupted).
type RawString struct {
	Bytes []byte
	Valid bool
}

// String returns the decoded string when Valid, or empty otherwise.
func (s RawString) String() string {
	if !s.Valid {
		return ""
	}
	return string(s.Bytes)
}

// ReadVarString reads a 2-octet unsigned length followed by that many UTF-8
// octets (maximum 65,535 octets).
func ReadVarString(r io.Reader) (RawString, error) {
	n, err := ReadUint(r, 2)
	if err != nil {
		return RawString{}, err
	}
	buf := make([]byte, n)
	if err := readFull(r, buf); err != nil {
		return RawString{}, err
	}
	return RawString{Bytes: buf, Valid: utf8.Valid(buf)}, nil
}

// WriteVarString writes s as a 2-octet length-prefixed UTF-8 string. It
// fails with ErrStringTooLong rather than truncating.
func WriteVarString(w io.Writer, s string) error {
	if len(s) > 65535 {
		return errors.Wrapf(ErrStringTooLong, "length %d", len(s))
	}
	if err := WriteUint(w, 2, uint64(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

// ReadFixedString reads a size-octet fixed string. The slot is either
// null-terminated or fills the slot entirely; trailing NUL octets are
// trimmed from the returned value.
func ReadFixedString(r io.Reader, size int) (RawString, error) {
	buf := make([]byte, size)
	if err := readFull(r, buf); err != nil {
		return RawString{}, err
	}
	if i := indexZero(buf); i >= 0 {
		buf = buf[:i]
	}
	return RawString{Bytes: buf, Valid: utf8.Valid(buf)}, nil
}

// WriteFixedString writes s into a size-octet slot, null-terminating or
// filling the slot. s must fit within size-1 octets (room for a terminator)
// unless it exactly fills size.
func WriteFixedString(w io.Writer, s string, size int) error {
	b := []byte(s)
	if len(b) > size {
		return errors.Wrapf(ErrOverLongEnclosed, "string length %d exceeds slot %d", len(b), size)
	}
	buf := make([]byte, size)
	copy(buf, b)
	_, err := w.Write(buf)
	return err
}

func indexZero(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}

// ReadVarBytes reads a 4-octet unsigned length followed by that many bytes.
func ReadVarBytes(r io.Reader) ([]byte, error) {
	n, err := ReadUint(r, 4)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if err := readFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteVarBytes writes b as a 4-octet length-prefixed byte array.
func WriteVarBytes(w io.Writer, b []byte) error {
	if err := WriteUint(w, 4, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadFixedBytes reads exactly n bytes.
func ReadFixedBytes(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := readFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// LegacyTimestamp is the v7 IPPTimestamp layout: a 10-octet timestamp
// (unsigned seconds + nanoseconds, no sign octet) followed by a deprecated
// 16-zero-octet padding region. It is only ever read, never written, since
// new files are always written as v8 (Open Question 2).
type LegacyTimestamp struct {
	Seconds uint64 // 48-bit value (6 octets).
	Nanos   uint32 // 4 octets.
}

// ReadLegacyTimestamp reads the 10-octet v7 IPPTimestamp plus its 16-octet
// deprecated zero region (26 octets total).
func ReadLegacyTimestamp(r io.Reader) (LegacyTimestamp, error) {
	sec, err := ReadUint(r, 6)
	if err != nil {
		return LegacyTimestamp{}, err
	}
	nanos, err := ReadUint(r, 4)
	if err != nil {
		return LegacyTimestamp{}, err
	}
	var pad [16]byte
	if err := readFull(r, pad[:]); err != nil {
		return LegacyTimestamp{}, err
	}
	return LegacyTimestamp{Seconds: sec, Nanos: uint32(nanos)}, nil
}
