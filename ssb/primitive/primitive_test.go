package primitive

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func TestUintRoundTrip(t *testing.T) {
	cases := []struct {
		width int
		val   uint64
	}{
		{1, 0xff},
		{2, 0xbeef},
		{4, 0xdeadbeef},
		{8, 0xdeadbeefcafebabe},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		if err := WriteUint(&buf, c.width, c.val); err != nil {
			t.Fatalf("WriteUint(%d, %d): %v", c.width, c.val, err)
		}
		got, err := ReadUint(&buf, c.width)
		if err != nil {
			t.Fatalf("ReadUint(%d): %v", c.width, err)
		}
		if got != c.val {
			t.Errorf("width %d: got %#x, want %#x", c.width, got, c.val)
		}
	}
}

func TestIntRoundTripNegative(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteInt(&buf, 4, -12345); err != nil {
		t.Fatal(err)
	}
	got, err := ReadInt(&buf, 4)
	if err != nil {
		t.Fatal(err)
	}
	if got != -12345 {
		t.Errorf("got %d, want -12345", got)
	}
}

func TestBoolRoundTrip(t *testing.T) {
	for _, v := range []bool{true, false} {
		var buf bytes.Buffer
		if err := WriteBool(&buf, v); err != nil {
			t.Fatal(err)
		}
		got, err := ReadBool(&buf)
		if err != nil {
			t.Fatal(err)
		}
		if got != v {
			t.Errorf("got %v, want %v", got, v)
		}
	}
}

func TestUUIDRoundTrip(t *testing.T) {
	id := uuid.New()
	var buf bytes.Buffer
	if err := WriteUUID(&buf, id); err != nil {
		t.Fatal(err)
	}
	got, err := ReadUUID(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != id {
		t.Errorf("got %s, want %s", got, id)
	}
}

func TestRationalRoundTrip(t *testing.T) {
	r := Rational{Num: 30000, Den: 1001}
	var buf bytes.Buffer
	if err := WriteRational(&buf, r); err != nil {
		t.Fatal(err)
	}
	got, err := ReadRational(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != r {
		t.Errorf("got %+v, want %+v", got, r)
	}
}

func TestTimestampZeroIsCanonicallyPositive(t *testing.T) {
	neg := Timestamp{Positive: false, Seconds: 0, Nanos: 0}
	var buf bytes.Buffer
	if err := WriteTimestamp(&buf, neg); err != nil {
		t.Fatal(err)
	}
	got, err := ReadTimestamp(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Positive {
		t.Errorf("zero-magnitude timestamp did not round-trip as positive: %+v", got)
	}
	if got.AsNanos() != 0 {
		t.Errorf("AsNanos() = %d, want 0", got.AsNanos())
	}
}

func TestTimestampNegative(t *testing.T) {
	ts := Timestamp{Positive: false, Seconds: 5, Nanos: 500}
	var buf bytes.Buffer
	if err := WriteTimestamp(&buf, ts); err != nil {
		t.Fatal(err)
	}
	got, err := ReadTimestamp(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.AsNanos() != -(5*1e9 + 500) {
		t.Errorf("AsNanos() = %d, want %d", got.AsNanos(), -(5*1e9 + 500))
	}
}

func TestTimestampNanosOutOfRange(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTimestamp(&buf, Timestamp{Positive: true, Seconds: 0, Nanos: 1e9})
	if err == nil {
		t.Fatal("expected error for nanos >= 1e9")
	}
}

func TestTimeLabelRoundTrip(t *testing.T) {
	var tl TimeLabel
	copy(tl.Tag[:], "LTC")
	copy(tl.Timecode[:], "01:02:03:04")
	var buf bytes.Buffer
	if err := WriteTimeLabel(&buf, tl); err != nil {
		t.Fatal(err)
	}
	got, err := ReadTimeLabel(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != tl {
		t.Errorf("got %+v, want %+v", got, tl)
	}
}

func TestDateTimeRoundTrip(t *testing.T) {
	dt := DateTime{Year: 2024, Month: 6, Day: 15, Hour: 12, Min: 30, Second: 45}
	var buf bytes.Buffer
	if err := WriteDateTime(&buf, dt); err != nil {
		t.Fatal(err)
	}
	got, err := ReadDateTime(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(dt, got); diff != "" {
		t.Errorf("DateTime round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestVarStringRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteVarString(&buf, "hello, gsf"); err != nil {
		t.Fatal(err)
	}
	got, err := ReadVarString(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Valid || got.String() != "hello, gsf" {
		t.Errorf("got %+v, want valid \"hello, gsf\"", got)
	}
}

func TestVarStringMalformedUTF8NotSubstituted(t *testing.T) {
	bad := []byte{0xff, 0xfe, 0xfd}
	var buf bytes.Buffer
	if err := WriteUint(&buf, 2, uint64(len(bad))); err != nil {
		t.Fatal(err)
	}
	buf.Write(bad)

	got, err := ReadVarString(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Valid {
		t.Fatal("expected Valid=false for malformed UTF-8")
	}
	if !bytes.Equal(got.Bytes, bad) {
		t.Errorf("raw bytes not preserved: got %x, want %x", got.Bytes, bad)
	}
}

func TestVarBytesRoundTrip(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	var buf bytes.Buffer
	if err := WriteVarBytes(&buf, data); err != nil {
		t.Fatal(err)
	}
	got, err := ReadVarBytes(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("got %v, want %v", got, data)
	}
}

func TestFixedStringRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFixedString(&buf, "abc", 16); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFixedString(&buf, 16)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Valid || got.String() != "abc" {
		t.Errorf("got %+v, want valid \"abc\"", got)
	}
}
