package gsfio

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/ausocean/gsf/gsf"
	"github.com/ausocean/gsf/grain"
	"github.com/ausocean/gsf/ssb/primitive"
)

type readerAtBuf struct{ *bytes.Reader }

func buildFile(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := gsf.New(&buf, uuid.New(), primitive.DateTime{Year: 2024, Month: 1, Day: 1})
	seg, err := enc.AddSegment(0, uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.Start(); err != nil {
		t.Fatal(err)
	}
	g := &grain.Grain{
		Header: grain.Header{GrainType: grain.TypeEvent},
		Event:  &grain.Event{EventType: 1},
		Data:   grain.NewData([]byte(`{}`)),
	}
	if err := seg.AddGrain(g); err != nil {
		t.Fatal(err)
	}
	if err := enc.End(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodeAllSucceedsWithLiveContext(t *testing.T) {
	data := buildFile(t)
	file, err := DecodeAll(context.Background(), readerAtBuf{bytes.NewReader(data)}, gsf.Options{})
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(file.Grains[0]) != 1 {
		t.Errorf("got %d grains, want 1", len(file.Grains[0]))
	}
}

func TestDecodeAllRespectsCancelledContext(t *testing.T) {
	data := buildFile(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DecodeAll(ctx, readerAtBuf{bytes.NewReader(data)}, gsf.Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestIteratorRespectsCancelledContext(t *testing.T) {
	data := buildFile(t)
	ctx, cancel := context.WithCancel(context.Background())

	it, err := Grains(ctx, readerAtBuf{bytes.NewReader(data)}, gsf.Options{})
	if err != nil {
		t.Fatalf("Grains: %v", err)
	}
	cancel()

	if it.Next() {
		t.Fatal("expected Next to return false once the context is cancelled")
	}
	if !errors.Is(it.Err(), context.Canceled) {
		t.Errorf("got %v, want context.Canceled", it.Err())
	}
}
