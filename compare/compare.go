/*
NAME
  compare.go - the structural grain comparator: a static per-variant
  attribute schema walked to build a hierarchical diff tree, modeled on
  revid/config.Variables' []Variable{Name, Update, Validate} table.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/
package compare

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ausocean/gsf/grain"
	"github.com/ausocean/gsf/psnr"
	"github.com/ausocean/gsf/ssb/primitive"
)

type attrKind int

const (
	kindUUID attrKind = iota
	kindTimestamp
	kindRational
	kindBool
	kindString
	kindInt
	kindUint
	kindEnum
	kindTimeLabels
	kindComponents
	kindUnitOffsets
)

// attr is one entry of the static per-variant comparison schema: a path,
// a value kind, and an accessor pulling the comparable value out of each
// grain. Exactly the shape of revid/config.Variables' table, but reading
// two grains instead of one config source.
type attr struct {
	Path string
	Kind attrKind
	Get  func(a, b *grain.Grain) (av, bv interface{})
}

var commonAttrs = []attr{
	{"source_id", kindUUID, func(a, b *grain.Grain) (interface{}, interface{}) { return a.SourceID, b.SourceID }},
	{"flow_id", kindUUID, func(a, b *grain.Grain) (interface{}, interface{}) { return a.FlowID, b.FlowID }},
	{"origin_timestamp", kindTimestamp, func(a, b *grain.Grain) (interface{}, interface{}) { return a.OriginTimestamp, b.OriginTimestamp }},
	{"sync_timestamp", kindTimestamp, func(a, b *grain.Grain) (interface{}, interface{}) { return a.SyncTimestamp, b.SyncTimestamp }},
	{"creation_timestamp", kindTimestamp, func(a, b *grain.Grain) (interface{}, interface{}) { return a.CreationTimestamp, b.CreationTimestamp }},
	{"rate", kindRational, func(a, b *grain.Grain) (interface{}, interface{}) { return a.Rate, b.Rate }},
	{"duration", kindRational, func(a, b *grain.Grain) (interface{}, interface{}) { return a.Duration, b.Duration }},
	{"time_labels", kindTimeLabels, func(a, b *grain.Grain) (interface{}, interface{}) { return a.TimeLabels, b.TimeLabels }},
}

func videoAttrs() []attr {
	return []attr{
		{"frame_format", kindEnum, func(a, b *grain.Grain) (interface{}, interface{}) { return a.Video.FrameFormat, b.Video.FrameFormat }},
		{"frame_layout", kindEnum, func(a, b *grain.Grain) (interface{}, interface{}) { return a.Video.FrameLayout, b.Video.FrameLayout }},
		{"width", kindUint, func(a, b *grain.Grain) (interface{}, interface{}) { return uint64(a.Video.Width), uint64(b.Video.Width) }},
		{"height", kindUint, func(a, b *grain.Grain) (interface{}, interface{}) { return uint64(a.Video.Height), uint64(b.Video.Height) }},
		{"extension", kindUint, func(a, b *grain.Grain) (interface{}, interface{}) { return uint64(a.Video.Extension), uint64(b.Video.Extension) }},
		{"aspect_ratio", kindRational, func(a, b *grain.Grain) (interface{}, interface{}) { return a.Video.AspectRatio, b.Video.AspectRatio }},
		{"pixel_aspect_ratio", kindRational, func(a, b *grain.Grain) (interface{}, interface{}) { return a.Video.PixelAspectRatio, b.Video.PixelAspectRatio }},
		{"components", kindComponents, func(a, b *grain.Grain) (interface{}, interface{}) { return a.Video.Components, b.Video.Components }},
	}
}

func codedVideoAttrs() []attr {
	return []attr{
		{"frame_format", kindEnum, func(a, b *grain.Grain) (interface{}, interface{}) { return a.CodedVideo.FrameFormat, b.CodedVideo.FrameFormat }},
		{"frame_layout", kindEnum, func(a, b *grain.Grain) (interface{}, interface{}) { return a.CodedVideo.FrameLayout, b.CodedVideo.FrameLayout }},
		{"width", kindUint, func(a, b *grain.Grain) (interface{}, interface{}) { return uint64(a.CodedVideo.Width), uint64(b.CodedVideo.Width) }},
		{"height", kindUint, func(a, b *grain.Grain) (interface{}, interface{}) { return uint64(a.CodedVideo.Height), uint64(b.CodedVideo.Height) }},
		{"origin_width", kindUint, func(a, b *grain.Grain) (interface{}, interface{}) { return uint64(a.CodedVideo.OriginWidth), uint64(b.CodedVideo.OriginWidth) }},
		{"origin_height", kindUint, func(a, b *grain.Grain) (interface{}, interface{}) { return uint64(a.CodedVideo.OriginHeight), uint64(b.CodedVideo.OriginHeight) }},
		{"coded_width", kindUint, func(a, b *grain.Grain) (interface{}, interface{}) { return uint64(a.CodedVideo.CodedWidth), uint64(b.CodedVideo.CodedWidth) }},
		{"coded_height", kindUint, func(a, b *grain.Grain) (interface{}, interface{}) { return uint64(a.CodedVideo.CodedHeight), uint64(b.CodedVideo.CodedHeight) }},
		{"key_frame", kindBool, func(a, b *grain.Grain) (interface{}, interface{}) { return a.CodedVideo.KeyFrame, b.CodedVideo.KeyFrame }},
		{"temporal_offset", kindInt, func(a, b *grain.Grain) (interface{}, interface{}) { return int64(a.CodedVideo.TemporalOffset), int64(b.CodedVideo.TemporalOffset) }},
		{"components", kindComponents, func(a, b *grain.Grain) (interface{}, interface{}) { return a.CodedVideo.Components, b.CodedVideo.Components }},
		{"unit_offsets", kindUnitOffsets, func(a, b *grain.Grain) (interface{}, interface{}) { return a.CodedVideo.UnitOffsets, b.CodedVideo.UnitOffsets }},
	}
}

func audioAttrs() []attr {
	return []attr{
		{"format", kindEnum, func(a, b *grain.Grain) (interface{}, interface{}) { return a.Audio.Format, b.Audio.Format }},
		{"channels", kindUint, func(a, b *grain.Grain) (interface{}, interface{}) { return uint64(a.Audio.Channels), uint64(b.Audio.Channels) }},
		{"samples", kindUint, func(a, b *grain.Grain) (interface{}, interface{}) { return uint64(a.Audio.Samples), uint64(b.Audio.Samples) }},
		{"sample_rate", kindUint, func(a, b *grain.Grain) (interface{}, interface{}) { return uint64(a.Audio.SampleRate), uint64(b.Audio.SampleRate) }},
	}
}

func codedAudioAttrs() []attr {
	return []attr{
		{"format", kindEnum, func(a, b *grain.Grain) (interface{}, interface{}) { return a.CodedAudio.Format, b.CodedAudio.Format }},
		{"channels", kindUint, func(a, b *grain.Grain) (interface{}, interface{}) { return uint64(a.CodedAudio.Channels), uint64(b.CodedAudio.Channels) }},
		{"samples", kindUint, func(a, b *grain.Grain) (interface{}, interface{}) { return uint64(a.CodedAudio.Samples), uint64(b.CodedAudio.Samples) }},
		{"priming", kindUint, func(a, b *grain.Grain) (interface{}, interface{}) { return uint64(a.CodedAudio.Priming), uint64(b.CodedAudio.Priming) }},
		{"remainder", kindUint, func(a, b *grain.Grain) (interface{}, interface{}) { return uint64(a.CodedAudio.Remainder), uint64(b.CodedAudio.Remainder) }},
		{"sample_rate", kindUint, func(a, b *grain.Grain) (interface{}, interface{}) { return uint64(a.CodedAudio.SampleRate), uint64(b.CodedAudio.SampleRate) }},
	}
}

func eventAttrs() []attr {
	return []attr{
		{"event_type", kindUint, func(a, b *grain.Grain) (interface{}, interface{}) { return uint64(a.Event.EventType), uint64(b.Event.EventType) }},
	}
}

// schemaFor returns the variant-specific attribute table for t, nil for
// Empty (which carries no variant payload beyond the common header).
func schemaFor(t grain.Type) []attr {
	switch t {
	case grain.TypeVideo:
		return videoAttrs()
	case grain.TypeCodedVideo:
		return codedVideoAttrs()
	case grain.TypeAudio:
		return audioAttrs()
	case grain.TypeCodedAudio:
		return codedAudioAttrs()
	case grain.TypeEvent:
		return eventAttrs()
	default:
		return nil
	}
}

// CompareGrain compares a and b, producing a diff tree refined by opts.
// If a and b are structurally incomparable (different GrainType), the
// root node is Different and carries the reason; no attribute is walked.
func CompareGrain(a, b *grain.Grain, opts ...Option) *Node {
	s := newState(opts)

	if a.GrainType != b.GrainType {
		return different("grain", fmt.Sprintf("grain type mismatch: %s vs %s", a.GrainType, b.GrainType))
	}

	var children []*Node
	for _, at := range commonAttrs {
		av, bv := at.Get(a, b)
		children = append(children, compareOne(s, at.Path, at.Kind, av, bv))
	}
	for _, at := range schemaFor(a.GrainType) {
		av, bv := at.Get(a, b)
		children = append(children, compareOne(s, at.Path, at.Kind, av, bv))
	}
	children = append(children, compareData(s, a, b))

	return group("grain", children...)
}

func compareOne(s *state, path string, kind attrKind, av, bv interface{}) *Node {
	switch kind {
	case kindUUID:
		a, b := av.(uuid.UUID), bv.(uuid.UUID)
		return leaf(s, path, a == b, a.String(), b.String())
	case kindTimestamp:
		a, b := av.(primitive.Timestamp), bv.(primitive.Timestamp)
		return compareTimestamp(s, path, a, b)
	case kindRational:
		a, b := av.(primitive.Rational), bv.(primitive.Rational)
		return leaf(s, path, a == b, fmt.Sprintf("%d/%d", a.Num, a.Den), fmt.Sprintf("%d/%d", b.Num, b.Den))
	case kindBool:
		a, b := av.(bool), bv.(bool)
		return leaf(s, path, a == b, fmt.Sprint(a), fmt.Sprint(b))
	case kindString:
		a, b := av.(string), bv.(string)
		return leaf(s, path, a == b, a, b)
	case kindInt:
		a, b := av.(int64), bv.(int64)
		return compareInt(s, path, a, b)
	case kindUint:
		a, b := av.(uint64), bv.(uint64)
		return compareInt(s, path, int64(a), int64(b))
	case kindEnum:
		return compareEnum(s, path, av, bv)
	case kindTimeLabels:
		a, b := av.([]primitive.TimeLabel), bv.([]primitive.TimeLabel)
		return leaf(s, path, timeLabelsEqual(a, b), fmt.Sprintf("%d label(s)", len(a)), fmt.Sprintf("%d label(s)", len(b)))
	case kindComponents:
		a, b := av.(grain.Components), bv.(grain.Components)
		return leaf(s, path, componentsEqual(a, b), fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
	case kindUnitOffsets:
		a, b := av.([]uint32), bv.([]uint32)
		return leaf(s, path, uint32sEqual(a, b), fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
	default:
		return different(path, "unhandled attribute kind")
	}
}

// enumValue is satisfied by CogFrameFormat/CogFrameLayout/CogAudioFormat.
type enumValue interface {
	Uint32() uint32
	String() string
}

func compareEnum(s *state, path string, av, bv interface{}) *Node {
	a, aok := av.(enumValue)
	b, bok := bv.(enumValue)
	if !aok || !bok {
		return different(path, "not an enum value")
	}
	return leaf(s, path, a.Uint32() == b.Uint32(), a.String(), b.String())
}

// compareInt applies an ExpectedDifference option for path if present,
// treating diff = a - b; otherwise requires exact equality.
func compareInt(s *state, path string, a, b int64) *Node {
	if opt, ok := s.expected[path]; ok {
		diff := a - b
		ok := opt.op.evalInt(diff, opt.value)
		return leaf(s, path, ok, fmt.Sprint(a), fmt.Sprint(b))
	}
	return leaf(s, path, a == b, fmt.Sprint(a), fmt.Sprint(b))
}

// compareTimestamp applies an ExpectedDifference option for path
// (measured in nanoseconds) if present, otherwise requires exact
// equality of the underlying instant.
func compareTimestamp(s *state, path string, a, b primitive.Timestamp) *Node {
	an, bn := a.AsNanos(), b.AsNanos()
	if opt, ok := s.expected[path]; ok {
		diff := an - bn
		ok := opt.op.evalInt(diff, opt.value)
		return leaf(s, path, ok, a.String(), b.String())
	}
	return leaf(s, path, an == bn, a.String(), b.String())
}

func timeLabelsEqual(a, b []primitive.TimeLabel) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func componentsEqual(a, b grain.Components) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func uint32sEqual(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// compareData compares the data region of a and b. When excluded, the
// region is never realized, avoiding the cost of decoding lazy grains
// whose bytes are of no interest to the caller. When a PSNR option is
// present for "data" and the variant is Video or Audio, PSNR is computed
// via the psnr package instead of byte equality.
func compareData(s *state, a, b *grain.Grain) *Node {
	const path = "data"
	if s.isExcluded(path) {
		return &Node{Path: path, Kind: NodeExcluded}
	}

	ab, aerr := a.Data.Bytes()
	bb, berr := b.Data.Bytes()
	if aerr != nil || berr != nil {
		return different(path, fmt.Sprintf("failed to realize data: a=%v b=%v", aerr, berr))
	}

	if opt, ok := s.psnr[path]; ok {
		return comparePSNR(path, opt, a, ab, bb)
	}

	equal := len(ab) == len(bb)
	if equal {
		for i := range ab {
			if ab[i] != bb[i] {
				equal = false
				break
			}
		}
	}
	return leaf(s, path, equal, fmt.Sprintf("%d byte(s)", len(ab)), fmt.Sprintf("%d byte(s)", len(bb)))
}

// comparePSNR scores a.Data against b.Data per plane/channel via the psnr
// package and checks each score against opt's threshold(s). For OpLT/OpLE
// the operator names the *fail* condition directly ("fail if below
// threshold"), matching PSNR's doc comment; for every other operator it
// names the pass condition. Getting this backwards would mark two
// identical buffers (whose score is +Inf) as Different under OpLT, since
// +Inf is never less than any finite threshold.
func comparePSNR(path string, opt Option, g *grain.Grain, a, b []byte) *Node {
	if g.GrainType != grain.TypeVideo && g.GrainType != grain.TypeAudio {
		return different(path, "PSNR option only applies to Video or Audio grains")
	}
	layout, _ := grain.LayoutOf(g)
	values, err := psnr.Default.Compute(a, b, layout)
	if err != nil {
		return different(path, "PSNR computation failed: "+err.Error())
	}
	ok := true
	for i, v := range values {
		threshold := opt.thresholds[0]
		if i < len(opt.thresholds) {
			threshold = opt.thresholds[i]
		}
		var failed bool
		switch opt.op {
		case OpLT, OpLE:
			failed = opt.op.evalFloat(v, threshold)
		default:
			failed = !opt.op.evalFloat(v, threshold)
		}
		if failed {
			ok = false
			break
		}
	}
	return &Node{
		Path: path,
		Kind: map[bool]NodeKind{true: NodeEqual, false: NodeDifferent}[ok],
		A:    fmt.Sprintf("psnr=%v dB", values),
		B:    fmt.Sprintf("threshold %s %v dB", opt.op, opt.thresholds),
	}
}
