package compare

import (
	"fmt"

	"github.com/ausocean/gsf/gsf"
)

// SequenceDiff is the result of comparing two grain sequences: one Node
// per pair walked up to and including the first mismatch, plus any
// length mismatch recorded as Extra.
type SequenceDiff struct {
	Nodes []*Node
	// Extra counts the grains present in one sequence beyond the length
	// of the other, keyed by the side that holds them ("a" or "b").
	Extra map[string]int
	// MismatchIndex is the 0-based position of the first pair that
	// failed to compare equal, or -1 if every pair compared (and both
	// sequences ended together) without one.
	MismatchIndex int
}

// OK reports whether every compared pair passed and neither sequence had
// leftover grains.
func (d SequenceDiff) OK() bool { return d.MismatchIndex < 0 }

// CompareSequences walks a and b grain-by-grain in iteration order,
// applying CompareGrain to each pair, and stops as soon as a pair fails
// to compare equal, recording its 0-based position in MismatchIndex. If
// one sequence is exhausted before the other, the excess is itself
// treated as the mismatch: a synthetic node records which side ran out,
// Extra is incremented, and iteration stops there. If returnLastOnly is
// true, only the most recent pair's diff tree is retained as iteration
// proceeds (bounded memory over a long matching prefix); otherwise every
// diff up to the mismatch is kept.
func CompareSequences(a, b *gsf.Iterator, returnLastOnly bool, opts ...Option) (SequenceDiff, error) {
	diff := SequenceDiff{MismatchIndex: -1}

	for i := 0; ; i++ {
		aMore := a.Next()
		bMore := b.Next()

		if a.Err() != nil || b.Err() != nil {
			break
		}
		if !aMore && !bMore {
			break
		}

		var n *Node
		switch {
		case !aMore:
			n = different(fmt.Sprintf("[%d]", i), "a does not exist, but b exists")
			if diff.Extra == nil {
				diff.Extra = map[string]int{}
			}
			diff.Extra["b"]++
		case !bMore:
			n = different(fmt.Sprintf("[%d]", i), "a exists, but b does not exist")
			if diff.Extra == nil {
				diff.Extra = map[string]int{}
			}
			diff.Extra["a"]++
		default:
			n = CompareGrain(a.Grain().Grain, b.Grain().Grain, opts...)
		}

		if returnLastOnly {
			diff.Nodes = diff.Nodes[:0]
		}
		diff.Nodes = append(diff.Nodes, n)

		if !n.OK() {
			diff.MismatchIndex = i
			break
		}
	}

	if err := a.Err(); err != nil {
		return diff, err
	}
	if err := b.Err(); err != nil {
		return diff, err
	}
	return diff, nil
}
