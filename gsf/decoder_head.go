package gsf

import (
	"io"

	"github.com/pkg/errors"

	"github.com/ausocean/gsf/ssb/block"
	"github.com/ausocean/gsf/ssb/primitive"
)

// readHead reads the unique "head" block: its body (file id, created),
// and its nested segm/tag children, skipping unrecognised children.
func (d *decoder) readHead() error {
	h, err := d.br.ReadHeader()
	if err != nil {
		return wrapf(KindTruncatedInput, err, "head")
	}
	if h.Tag != tagHead {
		return wrapf(KindMalformedBlock, errors.Errorf("expected head, got %q", h.TagString()), "head")
	}
	plen, err := h.PayloadLen()
	if err != nil {
		return wrapf(KindMalformedBlock, err, "head")
	}
	child := d.br.Child(plen)

	id, err := primitive.ReadUUID(child)
	if err != nil {
		return wrapf(KindTruncatedInput, err, "head.id")
	}
	d.head.ID = id

	if d.major == 7 {
		if _, err := primitive.ReadLegacyTimestamp(child); err != nil {
			return wrapf(KindTruncatedInput, err, "head.created (v7 legacy)")
		}
		// v7's legacy created value is not surfaced in FileHead.Created;
		// only v8's DateTime is (Open Question 2).
	} else {
		dt, err := primitive.ReadDateTime(child)
		if err != nil {
			return wrapf(KindTruncatedInput, err, "head.created")
		}
		d.head.Created = dt
	}

	d.segmentSet = map[uint16]bool{}
	for {
		ch, ok, err := block.ReadChildHeader(child)
		if err != nil {
			return wrapf(KindMalformedBlock, err, "head")
		}
		if !ok {
			break
		}
		plen, err := ch.PayloadLen()
		if err != nil {
			return wrapf(KindMalformedBlock, err, "head."+ch.TagString())
		}
		grandchild := &io.LimitedReader{R: child, N: int64(plen)}
		switch ch.Tag {
		case tagSegm:
			seg, err := d.readSegm(grandchild)
			if err != nil {
				return err
			}
			if d.segmentSet[seg.LocalID] {
				return wrapf(KindDuplicateLocalID, errors.Errorf("local_id %d", seg.LocalID), "head.segm")
			}
			d.segmentSet[seg.LocalID] = true
			d.segments = append(d.segments, seg)
		case tagTag:
			tg, err := readTag(grandchild)
			if err != nil {
				return wrapf(KindMalformedBlock, err, "head.tag")
			}
			d.head.Tags = append(d.head.Tags, tg)
		default:
			d.log.Debug("gsf: skipping unknown head child block", "tag", ch.TagString())
		}
		if err := consumeRemainder(child, grandchild); err != nil {
			return wrapf(KindMalformedBlock, err, "head."+ch.TagString())
		}
	}
	return nil
}

// readSegm reads a segm block body: local_id, id, count, and nested tags.
func (d *decoder) readSegm(r *io.LimitedReader) (Segment, error) {
	localID, err := primitive.ReadUint(r, 2)
	if err != nil {
		return Segment{}, wrapf(KindTruncatedInput, err, "segm.local_id")
	}
	id, err := primitive.ReadUUID(r)
	if err != nil {
		return Segment{}, wrapf(KindTruncatedInput, err, "segm.id")
	}
	count, err := primitive.ReadInt(r, 8)
	if err != nil {
		return Segment{}, wrapf(KindTruncatedInput, err, "segm.count")
	}
	seg := Segment{LocalID: uint16(localID), ID: id, Count: count}
	for {
		ch, ok, err := block.ReadChildHeader(r)
		if err != nil {
			return Segment{}, wrapf(KindMalformedBlock, err, "segm")
		}
		if !ok {
			break
		}
		plen, err := ch.PayloadLen()
		if err != nil {
			return Segment{}, wrapf(KindMalformedBlock, err, "segm."+ch.TagString())
		}
		grandchild := &io.LimitedReader{R: r, N: int64(plen)}
		if ch.Tag == tagTag {
			tg, err := readTag(grandchild)
			if err != nil {
				return Segment{}, wrapf(KindMalformedBlock, err, "segm.tag")
			}
			seg.Tags = append(seg.Tags, tg)
		} else {
			d.log.Debug("gsf: skipping unknown segm child block", "tag", ch.TagString())
		}
		if err := consumeRemainder(r, grandchild); err != nil {
			return Segment{}, wrapf(KindMalformedBlock, err, "segm."+ch.TagString())
		}
	}
	return seg, nil
}

// readTag reads a "tag " block body: a (key, val) pair of variable strings.
func readTag(r io.Reader) (Tag, error) {
	key, err := primitive.ReadVarString(r)
	if err != nil {
		return Tag{}, errors.Wrap(err, "tag.key")
	}
	val, err := primitive.ReadVarString(r)
	if err != nil {
		return Tag{}, errors.Wrap(err, "tag.val")
	}
	return Tag{Key: key.String(), Val: val}, nil
}

// consumeRemainder discards whatever the caller did not read of child,
// advancing parent in lock-step, so declared-but-unconsumed trailing
// fields in a known block never leak into the next sibling.
func consumeRemainder(parent io.Reader, child *io.LimitedReader) error {
	if child.N <= 0 {
		return nil
	}
	_, err := io.CopyN(io.Discard, child, child.N)
	return err
}
