package grain

import (
	"errors"
	"testing"
)

func TestComponentsOffsetAndTotalLength(t *testing.T) {
	cs := Components{
		{Width: 1920, Height: 1080, Stride: 1920, Length: 1920 * 1080},
		{Width: 960, Height: 540, Stride: 960, Length: 960 * 540},
		{Width: 960, Height: 540, Stride: 960, Length: 960 * 540},
	}
	want := []int{0, 1920 * 1080, 1920*1080 + 960*540}
	for i, w := range want {
		if got := cs.Offset(i); got != w {
			t.Errorf("Offset(%d) = %d, want %d", i, got, w)
		}
	}
	wantTotal := 1920*1080 + 2*960*540
	if got := cs.TotalLength(); got != wantTotal {
		t.Errorf("TotalLength() = %d, want %d", got, wantTotal)
	}
}

func TestExpectedDataLengthVideo(t *testing.T) {
	g := &Grain{
		Header: Header{GrainType: TypeVideo},
		Video: &Video{
			Components: Components{
				{Length: 100},
				{Length: 50},
			},
		},
	}
	if got := g.ExpectedDataLength(); got != 150 {
		t.Errorf("ExpectedDataLength() = %d, want 150", got)
	}
}

func TestExpectedDataLengthAudioUsesDataLen(t *testing.T) {
	g := &Grain{
		Header: Header{GrainType: TypeAudio},
		Audio:  &Audio{},
		Data:   NewData([]byte{1, 2, 3, 4}),
	}
	if got := g.ExpectedDataLength(); got != 4 {
		t.Errorf("ExpectedDataLength() = %d, want 4", got)
	}
}

type fakeGate struct {
	data []byte
	err  error
}

func (g *fakeGate) ReadAtGated(off int64, p []byte) (int, error) {
	if g.err != nil {
		return 0, g.err
	}
	return copy(p, g.data[off:]), nil
}

func TestLazyDataRealizesOnAccess(t *testing.T) {
	gate := &fakeGate{data: []byte("0123456789")}
	d := NewLazyData(&LazyBytes{Source: gate, Offset: 3, Length: 4}, 4)
	if !d.IsLazy() {
		t.Fatal("expected IsLazy() true before Bytes()")
	}
	b, err := d.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "3456" {
		t.Errorf("got %q, want %q", b, "3456")
	}
	if d.IsLazy() {
		t.Fatal("expected IsLazy() false after realization")
	}
}

func TestLazyDataPropagatesGateError(t *testing.T) {
	wantErr := errors.New("not yet")
	gate := &fakeGate{err: wantErr}
	d := NewLazyData(&LazyBytes{Source: gate, Offset: 0, Length: 4}, 4)
	if _, err := d.Bytes(); !errors.Is(err, wantErr) {
		t.Errorf("got %v, want %v", err, wantErr)
	}
}

func TestEventAsJSON(t *testing.T) {
	e := Event{EventType: 0}
	var out struct {
		Msg string `json:"msg"`
	}
	if err := e.AsJSON([]byte(`{"msg":"hello"}`), &out); err != nil {
		t.Fatal(err)
	}
	if out.Msg != "hello" {
		t.Errorf("got %q, want %q", out.Msg, "hello")
	}
}

func TestFrameFormatUnknownRoundTrip(t *testing.T) {
	f := FrameFormatFromUint32(0xAABBCCDD)
	if f.Known() {
		t.Fatal("expected unknown format")
	}
	if f.Uint32() != 0xAABBCCDD {
		t.Errorf("Uint32() = %#x, want %#x", f.Uint32(), 0xAABBCCDD)
	}
}
