/*
NAME
  grain.go - the tagged-union grain model: common header plus one of
  Empty/Video/CodedVideo/Audio/CodedAudio/Event payloads.

DESCRIPTION
  Defines Grain, its per-variant payload structs and the Data handle
  that holds a grain's payload either in memory or lazily.

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

// Package grain defines the GSF grain data model: a common header shared
// by every grain, one payload variant per grain kind, and the data region
// that carries a grain's opaque media bytes, either materialized or lazy.
package grain

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/ausocean/gsf/ssb/primitive"
)

// Type is the grain variant discriminant.
type Type uint8

// Grain variants.
const (
	TypeEmpty Type = iota
	TypeVideo
	TypeCodedVideo
	TypeAudio
	TypeCodedAudio
	TypeEvent
)

// String returns a human-readable name for t.
func (t Type) String() string {
	switch t {
	case TypeEmpty:
		return "Empty"
	case TypeVideo:
		return "Video"
	case TypeCodedVideo:
		return "CodedVideo"
	case TypeAudio:
		return "Audio"
	case TypeCodedAudio:
		return "CodedAudio"
	case TypeEvent:
		return "Event"
	default:
		return "Unknown"
	}
}

// Header holds the fields common to every grain, regardless of variant.
type Header struct {
	GrainType         Type
	SourceID          uuid.UUID
	FlowID            uuid.UUID
	OriginTimestamp   primitive.Timestamp
	SyncTimestamp     primitive.Timestamp
	CreationTimestamp primitive.Timestamp
	Rate              primitive.Rational
	Duration          primitive.Rational
	TimeLabels        []primitive.TimeLabel
}

// Data is a grain's payload data region. It may be materialized (Bytes
// held directly) or lazy (a handle into the reader that produced it,
// realized on first access via Bytes()/Realize()).
type Data struct {
	bytes  []byte
	lazy   *LazyBytes
	length int // Expected length; 0 for Empty grains.
}

// NewData wraps already-materialized bytes as a Data region.
func NewData(b []byte) Data { return Data{bytes: b, length: len(b)} }

// NewLazyData wraps a deferred read as a Data region of the given length.
func NewLazyData(l *LazyBytes, length int) Data { return Data{lazy: l, length: length} }

// Len returns the data region's expected length without realizing it.
func (d Data) Len() int { return d.length }

// IsLazy reports whether d has not yet been realized into memory.
func (d Data) IsLazy() bool { return d.lazy != nil && d.bytes == nil }

// Bytes returns the data region's bytes, realizing a lazy handle on
// first access. Per the reference behaviour chosen for §5's shared-reader
// question, a lazy handle must only be realized once the decoder's
// iteration over the stream has completed.
func (d *Data) Bytes() ([]byte, error) {
	if d.bytes != nil {
		return d.bytes, nil
	}
	if d.lazy == nil {
		return nil, nil
	}
	b, err := d.lazy.Read()
	if err != nil {
		return nil, err
	}
	d.bytes = b
	return b, nil
}

// LazyBytes is a deferred read of length bytes at offset in a reader that
// must support io.ReaderAt, shared with (and gated by) the decoder that
// produced it, per §9's "distinct LazyBytes value" guidance.
type LazyBytes struct {
	Source ReaderAtGate
	Offset int64
	Length int
}

// ReaderAtGate is the interface a decoder's source must satisfy to back a
// LazyBytes: random access, plus a busy gate that rejects reads made while
// the decoder is still iterating (§5's reference behaviour (b)).
type ReaderAtGate interface {
	ReadAtGated(off int64, p []byte) (int, error)
}

// Read realizes the lazy byte range.
func (l *LazyBytes) Read() ([]byte, error) {
	buf := make([]byte, l.Length)
	if l.Length == 0 {
		return buf, nil
	}
	_, err := l.Source.ReadAtGated(l.Offset, buf)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Component describes one planar component of a Video/CodedVideo grain.
// Offset is implicit: the sum of the Lengths of all preceding components.
type Component struct {
	Width, Height, Stride, Length uint32
}

// Components is an ordered sequence of video components exposing computed
// offsets.
type Components []Component

// TotalLength returns the sum of every component's Length, the grain's
// expected total data length.
func (cs Components) TotalLength() int {
	var total int
	for _, c := range cs {
		total += int(c.Length)
	}
	return total
}

// Offset returns the implicit byte offset of component i: the sum of the
// Lengths of components before it.
func (cs Components) Offset(i int) int {
	var off int
	for j := 0; j < i; j++ {
		off += int(cs[j].Length)
	}
	return off
}

// Layout describes how a grain's Data buffer is divided into the
// contiguous planes or interleaved channels that a per-component kernel
// such as psnr.Kernel scores separately.
type Layout struct {
	// Planes holds the byte length of each contiguous region, in order,
	// for a Video/CodedVideo grain's planar components. Empty for an
	// interleaved-channel layout.
	Planes []uint32
	// Channels and BytesPerSample describe an Audio/CodedAudio grain's
	// interleaved sample frames. Channels is 0 for a planar layout.
	Channels       uint16
	BytesPerSample int
}

// LayoutOf derives the plane/channel layout of g's Data buffer from its
// Video or Audio payload. ok is false for any other variant, or a
// coded-audio format whose sample width is not a raw PCM depth.
func LayoutOf(g *Grain) (l Layout, ok bool) {
	switch g.GrainType {
	case TypeVideo:
		if g.Video == nil {
			return Layout{}, false
		}
		planes := make([]uint32, len(g.Video.Components))
		for i, c := range g.Video.Components {
			planes[i] = c.Length
		}
		return Layout{Planes: planes}, true
	case TypeAudio:
		if g.Audio == nil {
			return Layout{}, false
		}
		bps := g.Audio.Format.BytesPerSample()
		if bps == 0 || g.Audio.Channels == 0 {
			return Layout{}, false
		}
		return Layout{Channels: g.Audio.Channels, BytesPerSample: bps}, true
	default:
		return Layout{}, false
	}
}

// Video is the payload of a Video grain.
type Video struct {
	FrameFormat     CogFrameFormat
	FrameLayout     CogFrameLayout
	Width, Height   uint32
	Extension       uint32
	AspectRatio     primitive.Rational
	PixelAspectRatio primitive.Rational
	Components      Components
}

// CodedVideo is the payload of a CodedVideo grain.
type CodedVideo struct {
	Video
	OriginWidth, OriginHeight uint32
	CodedWidth, CodedHeight   uint32
	KeyFrame                  bool
	TemporalOffset            int32
	UnitOffsets               []uint32
}

// Audio is the payload of an Audio grain.
type Audio struct {
	Format     CogAudioFormat
	Channels   uint16
	Samples    uint32
	SampleRate uint32
}

// CodedAudio is the payload of a CodedAudio grain.
type CodedAudio struct {
	Audio
	Priming   uint32
	Remainder uint32
}

// Event is the payload of an Event grain: a type discriminant. The
// opaque byte string itself is the grain's Data region, interpreted
// externally except that Type 0 is JSON by convention.
type Event struct {
	EventType uint8
}

// AsJSON unmarshals data (the grain's realized Data region) into v, per
// the Type-0-is-JSON convention. It does not check EventType; callers
// that care should check it first.
func (e Event) AsJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// Grain is a tagged union of a common Header plus exactly one payload
// variant, plus its data region. Exactly one of the payload fields is
// meaningful, selected by Header.GrainType.
type Grain struct {
	Header

	Video      *Video
	CodedVideo *CodedVideo
	Audio      *Audio
	CodedAudio *CodedAudio
	Event      *Event

	Data Data
}

// ExpectedDataLength returns the data length implied by the grain's
// variant-specific fields: the sum of video component lengths for
// Video/CodedVideo; for every other variant (Audio, CodedAudio, Empty,
// Event) it returns the length of the grain's Data as it stands.
func (g *Grain) ExpectedDataLength() int {
	switch g.GrainType {
	case TypeVideo:
		if g.Video != nil {
			return g.Video.Components.TotalLength()
		}
	case TypeCodedVideo:
		if g.CodedVideo != nil {
			return g.CodedVideo.Components.TotalLength()
		}
	}
	return g.Data.Len()
}
