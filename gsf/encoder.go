/*
NAME
  encoder.go - the progressive GSF encoder: file header, head block with
  segments and tags, a stream of grai blocks, and the terminator.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package gsf

import (
	"io"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ausocean/gsf/grain"
	"github.com/ausocean/gsf/ssb/block"
	"github.com/ausocean/gsf/ssb/primitive"
)

// encoderState models the encoder's lifecycle explicitly, per §9's
// guidance: Open -> Started -> Closed | Failed, with disallowed
// transitions returning EncoderState.
type encoderState uint8

const (
	stateOpen encoderState = iota
	stateStarted
	stateClosed
	stateFailed
)

// segmentState tracks the bookkeeping the encoder needs per declared
// segment: its wire identity plus the number of grains written for it,
// which End back-patches into the count field on a seekable sink.
type segmentState struct {
	Segment
	grainCount int64
}

// Encoder is the progressive GSF writer. Create one with New, declare
// segments with AddSegment, call Start, write grains via each
// SegmentHandle, then End.
type Encoder struct {
	w     *block.Writer
	seek  io.Seeker // Non-nil if the sink supports back-patching.
	state encoderState
	err   error

	fileID  uuid.UUID
	created primitive.DateTime
	tags    []Tag
	segs    []*segmentState
}

// New returns a new Encoder writing to dst. If dst implements io.Seeker,
// segment counts are back-patched by End; otherwise they are left at -1.
func New(dst io.Writer, fileID uuid.UUID, created primitive.DateTime) *Encoder {
	e := &Encoder{w: block.NewWriter(dst), fileID: fileID, created: created}
	if s, ok := dst.(io.Seeker); ok {
		e.seek = s
	}
	return e
}

// AddTag attaches a file-scoped tag. Must be called before Start.
func (e *Encoder) AddTag(key, val string) error {
	if e.state != stateOpen {
		return e.stateErr("AddTag")
	}
	e.tags = append(e.tags, Tag{Key: key, Val: primitive.RawString{Bytes: []byte(val), Valid: true}})
	return nil
}

// SegmentHandle lets callers append grains to one declared segment.
type SegmentHandle struct {
	e   *Encoder
	seg *segmentState
}

// AddSegment declares a segment. Must be called before Start; once Start
// has run it returns an EncoderState error.
func (e *Encoder) AddSegment(localID uint16, id uuid.UUID) (*SegmentHandle, error) {
	if e.state != stateOpen {
		return nil, e.stateErr("AddSegment")
	}
	for _, s := range e.segs {
		if s.LocalID == localID {
			return nil, wrapf(KindDuplicateLocalID, errors.Errorf("local_id %d", localID), "AddSegment")
		}
	}
	ss := &segmentState{Segment: Segment{LocalID: localID, ID: id, Count: -1}}
	e.segs = append(e.segs, ss)
	return &SegmentHandle{e: e, seg: ss}, nil
}

// AddTag attaches a tag to this segment. Must be called before Start.
func (h *SegmentHandle) AddTag(key, val string) error {
	if h.e.state != stateOpen {
		return h.e.stateErr("Segment.AddTag")
	}
	h.seg.Tags = append(h.seg.Tags, Tag{Key: key, Val: primitive.RawString{Bytes: []byte(val), Valid: true}})
	return nil
}

// Start writes the file header and the head block (file id, created,
// every declared segment and file tag). After Start, no further segments
// or file tags may be added.
func (e *Encoder) Start() error {
	if e.state != stateOpen {
		return e.stateErr("Start")
	}
	if err := e.w.WriteFileHeader(block.FileHeader{
		Type:  [4]byte{'g', 'r', 's', 'g'},
		Major: MajorVersion,
		Minor: MinorVersion,
	}); err != nil {
		return e.fail(wrapf(KindIoError, err, "file header"))
	}

	hh := e.w.Begin(tagHead)
	if err := primitive.WriteUUID(e.w, e.fileID); err != nil {
		return e.fail(wrapf(KindIoError, err, "head.id"))
	}
	if err := primitive.WriteDateTime(e.w, e.created); err != nil {
		return e.fail(wrapf(KindIoError, err, "head.created"))
	}
	for _, ss := range e.segs {
		sh := e.w.Begin(tagSegm)
		if err := primitive.WriteUint(e.w, 2, uint64(ss.LocalID)); err != nil {
			return e.fail(wrapf(KindIoError, err, "segm.local_id"))
		}
		if err := primitive.WriteUUID(e.w, ss.ID); err != nil {
			return e.fail(wrapf(KindIoError, err, "segm.id"))
		}
		if err := primitive.WriteInt(e.w, 8, ss.Count); err != nil {
			return e.fail(wrapf(KindIoError, err, "segm.count"))
		}
		for _, t := range ss.Tags {
			if err := writeTagBlock(e.w, t); err != nil {
				return e.fail(wrapf(KindIoError, err, "segm.tag"))
			}
		}
		if err := e.w.End(sh); err != nil {
			return e.fail(wrapf(KindIoError, err, "segm"))
		}
	}
	for _, t := range e.tags {
		if err := writeTagBlock(e.w, t); err != nil {
			return e.fail(wrapf(KindIoError, err, "head.tag"))
		}
	}
	if err := e.w.End(hh); err != nil {
		return e.fail(wrapf(KindIoError, err, "head"))
	}

	e.state = stateStarted
	return nil
}

func writeTagBlock(w *block.Writer, t Tag) error {
	h := w.Begin(tagTag)
	if err := primitive.WriteVarString(w, t.Key); err != nil {
		return err
	}
	if err := primitive.WriteVarString(w, t.Val.String()); err != nil {
		return err
	}
	return w.End(h)
}

// Segment returns the previously declared handle for localID, or nil.
func (e *Encoder) Segment(localID uint16) *SegmentHandle {
	for _, s := range e.segs {
		if s.LocalID == localID {
			return &SegmentHandle{e: e, seg: s}
		}
	}
	return nil
}

// AddGrain writes g immediately as a grai block. g is not retained.
func (h *SegmentHandle) AddGrain(g *grain.Grain) error {
	e := h.e
	if e.state != stateStarted {
		return e.stateErr("AddGrain")
	}

	data, err := g.Data.Bytes()
	if err != nil {
		return e.fail(wrapf(KindIoError, err, "grai.grdt"))
	}
	if len(data) >= 1<<31 {
		return e.fail(wrapf(KindValueOutOfRange, errors.Errorf("data length %d", len(data)), "grai.grdt"))
	}

	gh := e.w.Begin(tagGrai)
	if err := primitive.WriteUint(e.w, 2, uint64(h.seg.LocalID)); err != nil {
		return e.fail(wrapf(KindIoError, err, "grai.local_id"))
	}
	if err := writeGBHD(e.w, g); err != nil {
		return e.fail(err)
	}
	dh := e.w.Begin(tagGrdt)
	if len(data) > 0 {
		if _, err := e.w.Write(data); err != nil {
			return e.fail(wrapf(KindIoError, err, "grai.grdt"))
		}
	}
	if err := e.w.End(dh); err != nil {
		return e.fail(wrapf(KindIoError, err, "grai.grdt"))
	}
	if err := e.w.End(gh); err != nil {
		return e.fail(wrapf(KindIoError, err, "grai"))
	}

	h.seg.grainCount++
	return nil
}

// End writes the terminator grai block (tag "grai", size 0, no payload),
// then, on a seekable sink, back-patches each segment's count to the
// number of grains actually written for it.
func (e *Encoder) End() error {
	var term [block.HeaderSize]byte // Tag "grai", size field 0.
	copy(term[:4], tagGrai[:])
	if e.state != stateStarted {
		if e.state == stateFailed {
			// Best-effort: still try to write a terminator.
			_, _ = e.w.Write(term[:])
			return e.err
		}
		return e.stateErr("End")
	}
	if _, err := e.w.Write(term[:]); err != nil {
		e.state = stateFailed
		e.err = wrapf(KindIoError, err, "terminator")
		return e.err
	}
	e.state = stateClosed
	if e.seek == nil {
		return nil
	}
	return e.patchCounts()
}

// patchCounts rewrites each segment's count field on a seekable sink.
// Because block.Writer buffers nested blocks rather than streaming them,
// the count fields' absolute offsets are not known until Start has fully
// flushed; we locate them by re-scanning the written head block, which is
// always small and always the second thing in the file.
func (e *Encoder) patchCounts() error {
	cur, err := e.seek.Seek(0, io.SeekCurrent)
	if err != nil {
		return wrapf(KindIoError, err, "back-patch: seek current")
	}
	defer e.seek.Seek(cur, io.SeekStart)

	r, ok := e.seek.(io.Reader)
	if !ok {
		return nil
	}
	if _, err := e.seek.Seek(0, io.SeekStart); err != nil {
		return wrapf(KindIoError, err, "back-patch: seek start")
	}
	br := block.NewReader(r)
	if _, err := br.ReadFileHeader(); err != nil {
		return wrapf(KindIoError, err, "back-patch: file header")
	}
	hh, err := br.ReadHeader()
	if err != nil {
		return wrapf(KindIoError, err, "back-patch: head header")
	}
	plen, err := hh.PayloadLen()
	if err != nil {
		return wrapf(KindIoError, err, "back-patch: head size")
	}
	child := br.Child(plen)
	if _, err := primitive.ReadUUID(child); err != nil {
		return wrapf(KindIoError, err, "back-patch: head.id")
	}
	if _, err := primitive.ReadDateTime(child); err != nil {
		return wrapf(KindIoError, err, "back-patch: head.created")
	}
	for child.N > 0 {
		ch, ok, err := block.ReadChildHeader(child)
		if err != nil {
			return wrapf(KindIoError, err, "back-patch: head child")
		}
		if !ok {
			break
		}
		cplen, err := ch.PayloadLen()
		if err != nil {
			return wrapf(KindIoError, err, "back-patch: segm size")
		}
		if ch.Tag != tagSegm {
			if _, err := io.CopyN(io.Discard, child, int64(cplen)); err != nil {
				return wrapf(KindIoError, err, "back-patch: skip")
			}
			continue
		}
		localID, err := primitive.ReadUint(child, 2)
		if err != nil {
			return wrapf(KindIoError, err, "back-patch: segm.local_id")
		}
		if _, err := primitive.ReadUUID(child); err != nil {
			return wrapf(KindIoError, err, "back-patch: segm.id")
		}
		countAbs, err := e.seek.Seek(0, io.SeekCurrent)
		if err != nil {
			return wrapf(KindIoError, err, "back-patch: tell")
		}
		// Step the child reader over the count field so its remaining
		// length stays in step with the file position.
		if _, err := io.CopyN(io.Discard, child, 8); err != nil {
			return wrapf(KindIoError, err, "back-patch: segm.count")
		}
		for _, ss := range e.segs {
			if ss.LocalID == uint16(localID) {
				var buf [8]byte
				for i, v := 0, uint64(ss.grainCount); i < 8; i++ {
					buf[i] = byte(v)
					v >>= 8
				}
				if _, err := e.seek.Seek(countAbs, io.SeekStart); err != nil {
					return wrapf(KindIoError, err, "back-patch: seek count")
				}
				if ws, ok := e.seek.(io.Writer); ok {
					if _, err := ws.Write(buf[:]); err != nil {
						return wrapf(KindIoError, err, "back-patch: write count")
					}
				}
				if _, err := e.seek.Seek(countAbs+8, io.SeekStart); err != nil {
					return wrapf(KindIoError, err, "back-patch: reseek")
				}
			}
		}
		// Skip over count + any tags to the next segm/child.
		rest := cplen - 2 - primitive.SizeUUID - 8
		if _, err := io.CopyN(io.Discard, child, int64(rest)); err != nil {
			return wrapf(KindIoError, err, "back-patch: skip segm tail")
		}
	}
	return nil
}

func (e *Encoder) fail(err error) error {
	e.state = stateFailed
	e.err = err
	return err
}

func (e *Encoder) stateErr(op string) error {
	if e.state == stateFailed {
		return wrapf(KindEncoderState, errors.Wrapf(e.err, "after failure, calling %s", op), "encoder")
	}
	return wrapf(KindEncoderState, errors.Errorf("%s invalid in state %d", op, e.state), "encoder")
}
