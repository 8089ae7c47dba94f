package gsf

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"

	"github.com/ausocean/gsf/grain"
	"github.com/ausocean/gsf/ssb/primitive"
)

// seekableBuffer is an in-memory sink/source implementing io.Writer,
// io.Reader, io.Seeker and io.ReaderAt, so it can exercise both the
// encoder's back-patch path and the decoder's lazy ReaderAtGate path.
type seekableBuffer struct {
	buf []byte
	pos int64
}

func (b *seekableBuffer) Write(p []byte) (int, error) {
	if b.pos == int64(len(b.buf)) {
		b.buf = append(b.buf, p...)
	} else {
		end := b.pos + int64(len(p))
		if end > int64(len(b.buf)) {
			grown := make([]byte, end)
			copy(grown, b.buf)
			b.buf = grown
		}
		copy(b.buf[b.pos:], p)
	}
	b.pos += int64(len(p))
	return len(p), nil
}

func (b *seekableBuffer) Read(p []byte) (int, error) {
	if b.pos >= int64(len(b.buf)) {
		return 0, io.EOF
	}
	n := copy(p, b.buf[b.pos:])
	b.pos += int64(n)
	return n, nil
}

func (b *seekableBuffer) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(b.buf)) {
		return 0, io.EOF
	}
	n := copy(p, b.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var np int64
	switch whence {
	case io.SeekStart:
		np = offset
	case io.SeekCurrent:
		np = b.pos + offset
	case io.SeekEnd:
		np = int64(len(b.buf)) + offset
	}
	b.pos = np
	return np, nil
}

// countingSource wraps a seekableBuffer, counting bytes actually pulled
// through Read so a test can confirm a skip took the Seek path instead.
type countingSource struct {
	*seekableBuffer
	reads int64
}

func (s *countingSource) Read(p []byte) (int, error) {
	n, err := s.seekableBuffer.Read(p)
	s.reads += int64(n)
	return n, err
}

func videoGrain(flowID uuid.UUID, n int) *grain.Grain {
	payload := bytes.Repeat([]byte{byte(n)}, 12)
	return &grain.Grain{
		Header: grain.Header{
			GrainType:       grain.TypeVideo,
			FlowID:          flowID,
			OriginTimestamp: primitive.Timestamp{Positive: true, Seconds: uint64(n)},
			SyncTimestamp:   primitive.Timestamp{Positive: true, Seconds: uint64(n)},
			Rate:            primitive.Rational{Num: 25, Den: 1},
			Duration:        primitive.Rational{Num: 1, Den: 25},
		},
		Video: &grain.Video{
			FrameFormat: grain.FrameFormatRGB,
			FrameLayout: grain.FrameLayoutFullFrame,
			Width:       2,
			Height:      2,
			Components: grain.Components{
				{Width: 2, Height: 2, Stride: 6, Length: 12},
			},
		},
		Data: grain.NewData(payload),
	}
}

func buildFile(t *testing.T, dst io.Writer, flowID uuid.UUID, grains int) uuid.UUID {
	t.Helper()
	fileID := uuid.New()
	enc := New(dst, fileID, primitive.DateTime{Year: 2024, Month: 1, Day: 1})
	seg, err := enc.AddSegment(0, uuid.New())
	if err != nil {
		t.Fatalf("AddSegment: %v", err)
	}
	if err := enc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < grains; i++ {
		if err := seg.AddGrain(videoGrain(flowID, i)); err != nil {
			t.Fatalf("AddGrain(%d): %v", i, err)
		}
	}
	if err := enc.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	return fileID
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	flowID := uuid.New()
	var sink seekableBuffer
	fileID := buildFile(t, &sink, flowID, 3)

	file, err := DecodeAll(bytes.NewReader(sink.buf), Options{})
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if file.Head.ID != fileID {
		t.Errorf("file id mismatch: got %s, want %s", file.Head.ID, fileID)
	}
	if len(file.Segments) != 1 || file.Segments[0].Count != 3 {
		t.Fatalf("got segments %+v, want one segment with count 3", file.Segments)
	}
	grains := file.Grains[0]
	if len(grains) != 3 {
		t.Fatalf("got %d grains, want 3", len(grains))
	}
	for i, g := range grains {
		if g.GrainType != grain.TypeVideo {
			t.Errorf("grain %d: got type %v, want Video", i, g.GrainType)
		}
		data, err := g.Data.Bytes()
		if err != nil {
			t.Fatalf("grain %d Data.Bytes(): %v", i, err)
		}
		want := bytes.Repeat([]byte{byte(i)}, 12)
		if !bytes.Equal(data, want) {
			t.Errorf("grain %d: got data %v, want %v", i, data, want)
		}
	}
}

func TestSegmentCountBackPatchedOnSeekableSink(t *testing.T) {
	var sink seekableBuffer
	buildFile(t, &sink, uuid.New(), 5)

	file, err := DecodeAll(bytes.NewReader(sink.buf), Options{})
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if file.Segments[0].Count != 5 {
		t.Errorf("got count %d, want 5", file.Segments[0].Count)
	}
}

func TestSegmentCountUnknownOnNonSeekableSink(t *testing.T) {
	var buf bytes.Buffer
	buildFile(t, &buf, uuid.New(), 5)

	file, err := DecodeAll(bytes.NewReader(buf.Bytes()), Options{})
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if file.Segments[0].Count != -1 {
		t.Errorf("got count %d, want -1 for a non-seekable sink", file.Segments[0].Count)
	}
}

func TestTerminatorBothSpellingsAccepted(t *testing.T) {
	// Spelling 1: the encoder's own output, a bare "grai" header whose
	// size field is 0.
	var sink seekableBuffer
	buildFile(t, &sink, uuid.New(), 1)
	if _, err := DecodeAll(bytes.NewReader(sink.buf), Options{}); err != nil {
		t.Fatalf("DecodeAll with payload-zero terminator: %v", err)
	}

	// Spelling 2: truncated stream (no terminator at all), accepted in
	// non-strict mode as an implicit terminator and rejected in strict
	// mode.
	var raw bytes.Buffer
	enc := New(&raw, uuid.New(), primitive.DateTime{Year: 2024, Month: 1, Day: 1})
	seg, err := enc.AddSegment(0, uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.Start(); err != nil {
		t.Fatal(err)
	}
	if err := seg.AddGrain(videoGrain(uuid.New(), 0)); err != nil {
		t.Fatal(err)
	}

	if _, err := DecodeAll(bytes.NewReader(raw.Bytes()), Options{}); err != nil {
		t.Fatalf("DecodeAll without explicit terminator (lenient mode): %v", err)
	}
	if _, err := DecodeAll(bytes.NewReader(raw.Bytes()), Options{Strict: true}); err == nil {
		t.Fatal("expected TruncatedInput in strict mode without a terminator")
	}
}

func TestStrictModeRejectsUnknownLocalID(t *testing.T) {
	var sink seekableBuffer
	buildFile(t, &sink, uuid.New(), 1)

	// A terminated stream whose head declares no segments and which
	// holds no grains decodes cleanly in strict mode.
	var empty seekableBuffer
	enc := New(&empty, uuid.New(), primitive.DateTime{Year: 2024, Month: 1, Day: 1})
	if err := enc.Start(); err != nil {
		t.Fatal(err)
	}
	if err := enc.End(); err != nil {
		t.Fatal(err)
	}

	it, err := Grains(&emptyReaderAt{src: bytes.NewReader(empty.buf)}, Options{Strict: true})
	if err != nil {
		t.Fatalf("Grains: %v", err)
	}
	defer it.Close()

	if it.Next() {
		t.Fatal("expected no grains from an empty, grain-less stream")
	}
	if it.Err() != nil {
		t.Fatalf("unexpected error on an empty but valid stream: %v", it.Err())
	}

	// Strict mode accepts the well-formed file (local_id 0 is declared).
	if _, err := DecodeAll(bytes.NewReader(sink.buf), Options{Strict: true}); err != nil {
		t.Fatalf("DecodeAll strict on well-formed file: %v", err)
	}

	// A grai whose local_id the head never declares is rejected in strict
	// mode. The encoder only hands out handles for declared segments, so
	// the stray handle is built directly.
	var stray seekableBuffer
	senc := New(&stray, uuid.New(), primitive.DateTime{Year: 2024, Month: 1, Day: 1})
	if err := senc.Start(); err != nil {
		t.Fatal(err)
	}
	h := &SegmentHandle{e: senc, seg: &segmentState{Segment: Segment{LocalID: 7, ID: uuid.New(), Count: -1}}}
	if err := h.AddGrain(videoGrain(uuid.New(), 0)); err != nil {
		t.Fatal(err)
	}
	if err := senc.End(); err != nil {
		t.Fatal(err)
	}
	_, err = DecodeAll(bytes.NewReader(stray.buf), Options{Strict: true})
	var gsfErr *Error
	if !errors.As(err, &gsfErr) || gsfErr.Kind != KindUnknownLocalID {
		t.Errorf("got %v, want a KindUnknownLocalID *Error", err)
	}
}

// emptyReaderAt adapts a bytes.Reader to the gsf.Source interface.
type emptyReaderAt struct {
	src *bytes.Reader
}

func (e *emptyReaderAt) Read(p []byte) (int, error)              { return e.src.Read(p) }
func (e *emptyReaderAt) ReadAt(p []byte, off int64) (int, error) { return e.src.ReadAt(p, off) }

func TestLazyDataGatedUntilIterationDone(t *testing.T) {
	var sink seekableBuffer
	buildFile(t, &sink, uuid.New(), 2)

	src := &emptyReaderAt{src: bytes.NewReader(sink.buf)}
	it, err := Grains(src, Options{SkipData: true})
	if err != nil {
		t.Fatalf("Grains: %v", err)
	}

	if !it.Next() {
		t.Fatalf("expected a grain, got err=%v", it.Err())
	}
	g := it.Grain().Grain
	if !g.Data.IsLazy() {
		t.Fatal("expected a lazy data handle under SkipData")
	}
	if _, err := g.Data.Bytes(); err == nil {
		t.Fatal("expected lazy read to be rejected before iteration completes")
	}

	for it.Next() {
	}
	if it.Err() != nil {
		t.Fatalf("unexpected iteration error: %v", it.Err())
	}
	it.Close()

	data, err := g.Data.Bytes()
	if err != nil {
		t.Fatalf("lazy read after completion: %v", err)
	}
	if !bytes.Equal(data, bytes.Repeat([]byte{0}, 12)) {
		t.Errorf("got %v, want twelve zero bytes", data)
	}
}

func TestSkipDataSeeksPastPayloadOnSeekableSource(t *testing.T) {
	var sink seekableBuffer
	buildFile(t, &sink, uuid.New(), 3) // 3 grains * 12 payload bytes = 36 skippable bytes.

	src := &countingSource{seekableBuffer: &seekableBuffer{buf: sink.buf}}
	it, err := Grains(src, Options{SkipData: true})
	if err != nil {
		t.Fatalf("Grains: %v", err)
	}
	defer it.Close()

	for it.Next() {
	}
	if it.Err() != nil {
		t.Fatalf("unexpected iteration error: %v", it.Err())
	}

	if src.reads >= int64(len(sink.buf)) {
		t.Errorf("expected skipped grdt payloads to be seeked past rather than read: read %d of %d total byte(s)", src.reads, len(sink.buf))
	}
	if limit := int64(len(sink.buf)) - 3*12; src.reads > limit {
		t.Errorf("read %d byte(s), want at most %d: the %d-byte file less its 36 payload bytes, which skipping seeks past instead of reading", src.reads, limit, len(sink.buf))
	}
}

func TestLocalIDsFiltering(t *testing.T) {
	var sink seekableBuffer
	fileID := uuid.New()
	enc := New(&sink, fileID, primitive.DateTime{Year: 2024, Month: 1, Day: 1})
	seg0, err := enc.AddSegment(0, uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	seg1, err := enc.AddSegment(1, uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.Start(); err != nil {
		t.Fatal(err)
	}
	if err := seg0.AddGrain(videoGrain(uuid.New(), 0)); err != nil {
		t.Fatal(err)
	}
	if err := seg1.AddGrain(videoGrain(uuid.New(), 1)); err != nil {
		t.Fatal(err)
	}
	if err := enc.End(); err != nil {
		t.Fatal(err)
	}

	file, err := DecodeAll(bytes.NewReader(sink.buf), Options{LocalIDs: map[uint16]bool{1: true}})
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(file.Grains[0]) != 0 {
		t.Errorf("got %d grains for filtered-out local_id 0, want 0", len(file.Grains[0]))
	}
	if len(file.Grains[1]) != 1 {
		t.Errorf("got %d grains for local_id 1, want 1", len(file.Grains[1]))
	}
}

func TestDuplicateLocalIDRejected(t *testing.T) {
	var sink seekableBuffer
	enc := New(&sink, uuid.New(), primitive.DateTime{Year: 2024, Month: 1, Day: 1})
	if _, err := enc.AddSegment(0, uuid.New()); err != nil {
		t.Fatal(err)
	}
	_, err := enc.AddSegment(0, uuid.New())
	if err == nil {
		t.Fatal("expected DuplicateLocalId error")
	}
	var gsfErr *Error
	if !errors.As(err, &gsfErr) || gsfErr.Kind != KindDuplicateLocalID {
		t.Errorf("got %v, want a KindDuplicateLocalID *Error", err)
	}
}

func TestEncoderStateErrorsOnOutOfOrderCalls(t *testing.T) {
	var sink seekableBuffer
	enc := New(&sink, uuid.New(), primitive.DateTime{Year: 2024, Month: 1, Day: 1})
	if err := enc.Start(); err != nil {
		t.Fatal(err)
	}
	if _, err := enc.AddSegment(0, uuid.New()); err == nil {
		t.Fatal("expected EncoderState error adding a segment after Start")
	}
	if err := enc.AddTag("k", "v"); err == nil {
		t.Fatal("expected EncoderState error adding a file tag after Start")
	}
	if err := enc.Start(); err == nil {
		t.Fatal("expected EncoderState error calling Start twice")
	}
}

func TestBlockSizeIncludesHeader(t *testing.T) {
	var sink seekableBuffer
	buildFile(t, &sink, uuid.New(), 1)

	r := bytes.NewReader(sink.buf)
	// Skip the 12-byte file header and read the head block's own header
	// to confirm Size covers the header plus the payload.
	if _, err := r.Seek(12, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		t.Fatal(err)
	}
	size := uint32(hdr[4]) | uint32(hdr[5])<<8 | uint32(hdr[6])<<16 | uint32(hdr[7])<<24
	if size <= 8 {
		t.Errorf("head block size %d does not look like it includes the 8-byte header", size)
	}
}
