package psnr

import (
	"math"
	"testing"

	"github.com/ausocean/gsf/grain"
)

func TestIdenticalBuffersScoreInfinite(t *testing.T) {
	a := []byte{10, 20, 30, 40, 50, 60, 70, 80}
	b := append([]byte(nil), a...)

	got, err := Default.Compute(a, b, grain.Layout{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !math.IsInf(got[0], 1) {
		t.Errorf("got %v, want [+Inf]", got)
	}
}

func TestEmptyBuffersScoreInfinite(t *testing.T) {
	got, err := Default.Compute(nil, nil, grain.Layout{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !math.IsInf(got[0], 1) {
		t.Errorf("got %v, want [+Inf]", got)
	}
}

func TestLengthMismatchErrors(t *testing.T) {
	_, err := Default.Compute([]byte{1, 2, 3}, []byte{1, 2}, grain.Layout{})
	if err != ErrLengthMismatch {
		t.Errorf("got %v, want ErrLengthMismatch", err)
	}
}

func TestPSNRDecreasesAsDifferenceGrows(t *testing.T) {
	a := make([]byte, 256)
	for i := range a {
		a[i] = byte(i)
	}

	small := append([]byte(nil), a...)
	small[0] += 1

	large := append([]byte(nil), a...)
	for i := range large {
		large[i] = byte(255 - int(large[i]))
	}

	smallScore, err := Default.Compute(a, small, grain.Layout{})
	if err != nil {
		t.Fatal(err)
	}
	largeScore, err := Default.Compute(a, large, grain.Layout{})
	if err != nil {
		t.Fatal(err)
	}

	if !(smallScore[0] > largeScore[0]) {
		t.Errorf("expected a small perturbation to score higher than a large one: small=%v large=%v", smallScore, largeScore)
	}
}

func TestPSNRNeverExceedsIdenticalScore(t *testing.T) {
	a := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	b := append([]byte(nil), a...)
	b[3] += 1

	identical, err := Default.Compute(a, a, grain.Layout{})
	if err != nil {
		t.Fatal(err)
	}
	differing, err := Default.Compute(a, b, grain.Layout{})
	if err != nil {
		t.Fatal(err)
	}
	if !(math.IsInf(identical[0], 1) && differing[0] < identical[0]) {
		t.Errorf("expected identical buffers to score no lower than differing ones: identical=%v differing=%v", identical, differing)
	}
}

func TestComputeScoresEachPlaneIndependently(t *testing.T) {
	a := []byte{10, 20, 30, 40, 100, 200}
	b := []byte{10, 20, 30, 40, 0, 200}
	layout := grain.Layout{Planes: []uint32{4, 1, 1}}

	got, err := Default.Compute(a, b, layout)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d plane score(s), want 3", len(got))
	}
	if !math.IsInf(got[0], 1) {
		t.Errorf("Y plane is identical, want +Inf, got %v", got[0])
	}
	// One sample off by 100: MSE 10000, so 10*log10(255^2/10000) dB.
	if want := 10 * math.Log10(255*255/10000.0); math.IsInf(got[1], 1) || math.Abs(got[1]-want) > 1e-9 {
		t.Errorf("U plane was wrecked, want a low finite score of %v dB, got %v", want, got[1])
	}
	if !math.IsInf(got[2], 1) {
		t.Errorf("V plane is identical, want +Inf, got %v", got[2])
	}
}

func TestComputeBadPlaneLayoutErrors(t *testing.T) {
	_, err := Default.Compute([]byte{1, 2, 3}, []byte{1, 2, 3}, grain.Layout{Planes: []uint32{2}})
	if err == nil {
		t.Fatal("expected an error when planes do not cover the whole buffer")
	}
}

func TestComputeScoresEachChannelIndependently(t *testing.T) {
	// Two interleaved 16-bit channels, four frames. Channel 0 is
	// identical; channel 1 differs in every frame.
	a := []byte{0, 0, 10, 0, 0, 0, 10, 0, 0, 0, 10, 0, 0, 0, 10, 0}
	b := append([]byte(nil), a...)
	for i := 2; i < len(b); i += 4 {
		b[i] = 0
	}
	layout := grain.Layout{Channels: 2, BytesPerSample: 2}

	got, err := Default.Compute(a, b, layout)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d channel score(s), want 2", len(got))
	}
	if !math.IsInf(got[0], 1) {
		t.Errorf("channel 0 is identical, want +Inf, got %v", got[0])
	}
	if math.IsInf(got[1], 1) {
		t.Errorf("channel 1 differs, want a finite score, got %v", got[1])
	}
}
