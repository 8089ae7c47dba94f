/*
NAME
  psnr.go - peak signal-to-noise ratio kernel used by the comparator's
  PSNR option: an external, swappable Kernel interface with a
  gonum/stat backed default implementation.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package psnr computes peak signal-to-noise ratio between two equally
// sized byte buffers, one value per plane or channel of a grain.Layout.
// It is the kernel behind the comparator's PSNR option.
package psnr

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/gsf/grain"
)

// ErrLengthMismatch is returned when the two buffers differ in length.
var ErrLengthMismatch = errors.New("psnr: buffer length mismatch")

// ErrBadLayout is returned when a Layout's declared planes or channel
// framing does not account for the whole of the compared buffers.
var ErrBadLayout = errors.New("psnr: layout does not cover buffer length")

// MaxSampleValue is the peak signal value of one octet. The kernel scores
// every region octet by octet against this peak, so samples wider than
// 8 bits (e.g. S16LE audio) are not decoded into whole sample values.
const MaxSampleValue = 255.0

// Kernel computes PSNR, in decibels, between reference buffer a and
// degraded buffer b, one value per plane (Video) or channel (Audio) of
// layout. A zero Layout treats the whole of a and b as a single plane.
type Kernel interface {
	Compute(a, b []byte, layout grain.Layout) ([]float64, error)
}

// Default is the package's default Kernel, backed by gonum/stat for the
// per-plane/channel MSE computation.
var Default Kernel = gonumKernel{}

type gonumKernel struct{}

// Compute splits a and b into the planes or channels layout describes
// and returns one score per region: 10*log10(MAX^2/MSE), or +Inf for a
// region whose bytes are bit-identical (the limit of PSNR as MSE tends
// to zero, and the monotonicity anchor: no two distinct regions may
// score higher than two identical ones).
func (gonumKernel) Compute(a, b []byte, layout grain.Layout) ([]float64, error) {
	if len(a) != len(b) {
		return nil, ErrLengthMismatch
	}
	if len(a) == 0 {
		return []float64{math.Inf(1)}, nil
	}

	switch {
	case len(layout.Planes) > 0:
		return computePlanes(a, b, layout.Planes)
	case layout.Channels > 0 && layout.BytesPerSample > 0:
		return computeChannels(a, b, int(layout.Channels), layout.BytesPerSample)
	default:
		return []float64{scoreDiffs(diffsOf(a, b))}, nil
	}
}

// computePlanes scores each contiguous region named by planeLens, in
// order, as an independent channel.
func computePlanes(a, b []byte, planeLens []uint32) ([]float64, error) {
	values := make([]float64, len(planeLens))
	var off int
	for i, n := range planeLens {
		end := off + int(n)
		if end > len(a) {
			return nil, errors.Wrapf(ErrBadLayout, "plane %d needs %d bytes, %d remain", i, n, len(a)-off)
		}
		values[i] = scoreDiffs(diffsOf(a[off:end], b[off:end]))
		off = end
	}
	if off != len(a) {
		return nil, errors.Wrapf(ErrBadLayout, "planes cover %d of %d bytes", off, len(a))
	}
	return values, nil
}

// computeChannels scores each of an interleaved PCM buffer's channels
// independently, gathering every bytesPerSample-wide sample belonging
// to channel c from its strided position in each frame.
func computeChannels(a, b []byte, channels, bytesPerSample int) ([]float64, error) {
	frame := channels * bytesPerSample
	if len(a)%frame != 0 {
		return nil, errors.Wrapf(ErrBadLayout, "buffer length %d not a multiple of frame size %d", len(a), frame)
	}
	values := make([]float64, channels)
	for c := 0; c < channels; c++ {
		diffs := make([]float64, 0, len(a)/frame*bytesPerSample)
		for off := c * bytesPerSample; off+bytesPerSample <= len(a); off += frame {
			diffs = append(diffs, diffsOf(a[off:off+bytesPerSample], b[off:off+bytesPerSample])...)
		}
		values[c] = scoreDiffs(diffs)
	}
	return values, nil
}

func diffsOf(a, b []byte) []float64 {
	diffs := make([]float64, len(a))
	for i := range a {
		diffs[i] = float64(a[i]) - float64(b[i])
	}
	return diffs
}

// scoreDiffs turns a region's per-sample differences into a PSNR value,
// taking the mean of the squared differences (the region's MSE) via
// gonum/stat's weighted mean with unit weights.
func scoreDiffs(diffs []float64) float64 {
	if len(diffs) == 0 {
		return math.Inf(1)
	}
	sq := make([]float64, len(diffs))
	for i, d := range diffs {
		sq[i] = d * d
	}
	mse := stat.Mean(sq, nil)
	if mse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10((MaxSampleValue * MaxSampleValue) / mse)
}
