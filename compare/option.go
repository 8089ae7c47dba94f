/*
NAME
  option.go - the comparator's option builder surface: Include, Exclude,
  ExpectedDifference and PSNR, replacing the source's operator-overloaded
  option values with plain builder functions (§9's redesign guidance).

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package compare implements the structural grain comparator: a
// recursive walk over a declared per-variant attribute schema, producing
// a hierarchical diff tree refinable by Include/Exclude/ExpectedDifference/
// PSNR options.
package compare

// Op is a comparison operator used by ExpectedDifference and PSNR options.
type Op int

// Supported operators.
const (
	OpEQ Op = iota
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
)

func (op Op) String() string {
	switch op {
	case OpEQ:
		return "=="
	case OpNE:
		return "!="
	case OpLT:
		return "<"
	case OpLE:
		return "<="
	case OpGT:
		return ">"
	case OpGE:
		return ">="
	default:
		return "?"
	}
}

func (op Op) evalInt(diff, value int64) bool {
	switch op {
	case OpEQ:
		return diff == value
	case OpNE:
		return diff != value
	case OpLT:
		return diff < value
	case OpLE:
		return diff <= value
	case OpGT:
		return diff > value
	case OpGE:
		return diff >= value
	default:
		return false
	}
}

func (op Op) evalFloat(v, threshold float64) bool {
	switch op {
	case OpEQ:
		return v == threshold
	case OpNE:
		return v != threshold
	case OpLT:
		return v < threshold
	case OpLE:
		return v <= threshold
	case OpGT:
		return v > threshold
	case OpGE:
		return v >= threshold
	default:
		return false
	}
}

type optionKind int

const (
	optInclude optionKind = iota
	optExclude
	optExpectedDifference
	optPSNR
)

// Option is a single comparator refinement, built via Include, Exclude,
// ExpectedDifference or PSNR.
type Option struct {
	kind       optionKind
	path       string
	op         Op
	value      int64
	thresholds []float64
}

// Include marks path as included in the verdict, overriding the default
// exclusion of creation_timestamp.
func Include(path string) Option { return Option{kind: optInclude, path: path} }

// Exclude marks path as excluded from the verdict. If both Include(p) and
// Exclude(p) are supplied, Exclude wins.
func Exclude(path string) Option { return Option{kind: optExclude, path: path} }

// ExpectedDifference declares that a.path - b.path (as a signed integer
// or time offset in nanoseconds) must satisfy "op value" for path to be
// considered a match.
func ExpectedDifference(path string, op Op, value int64) Option {
	return Option{kind: optExpectedDifference, path: path, op: op, value: value}
}

// PSNR declares a threshold test on the per-component/channel PSNR (in
// dB) of the data region, applicable only to the data attribute of Video
// and Audio grains. OpLT and OpLE name the failure condition: OpLT means
// "fail if any channel's PSNR is below its threshold", OpLE "at or
// below". Any other op must be satisfied as "psnr[i] op thresholds[i]"
// for every i.
func PSNR(path string, op Op, thresholds []float64) Option {
	return Option{kind: optPSNR, path: path, op: op, thresholds: thresholds}
}

// CompareOnlyMetadata is sugar for Exclude("data").
func CompareOnlyMetadata() Option { return Exclude("data") }

// state is the resolved set of options for one comparison call.
type state struct {
	included map[string]bool
	excluded map[string]bool
	expected map[string]Option
	psnr     map[string]Option
}

func newState(opts []Option) *state {
	s := &state{
		included: map[string]bool{},
		excluded: map[string]bool{},
		expected: map[string]Option{},
		psnr:     map[string]Option{},
	}
	for _, o := range opts {
		switch o.kind {
		case optInclude:
			s.included[o.path] = true
		case optExclude:
			s.excluded[o.path] = true
		case optExpectedDifference:
			s.expected[o.path] = o
		case optPSNR:
			s.psnr[o.path] = o
		}
	}
	return s
}

// defaultExcludedPaths lists attribute paths excluded from the verdict
// unless explicitly included.
var defaultExcludedPaths = map[string]bool{
	"creation_timestamp": true,
}

// isExcluded reports whether path should be excluded from the verdict,
// applying: explicit Exclude always wins; explicit Include overrides the
// default exclusion; otherwise the default exclusion set applies.
func (s *state) isExcluded(path string) bool {
	if s.excluded[path] {
		return true
	}
	if s.included[path] {
		return false
	}
	return defaultExcludedPaths[path]
}
