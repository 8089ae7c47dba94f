package gsf

import (
	"io"

	"github.com/pkg/errors"

	"github.com/ausocean/gsf/grain"
	"github.com/ausocean/gsf/ssb/block"
	"github.com/ausocean/gsf/ssb/primitive"
)

// readGrai reads one top-level block, handling the grai terminator, a
// grai grain block, or skipping any other unknown top-level tag. It loops
// internally past non-grai/unknown blocks so callers only ever see a
// grain, the terminator, or an error.
//
// eager controls whether the grdt payload is read into memory (true) or
// left as a lazy handle (false). When the grain is filtered out by
// opts.LocalIDs, g is nil but term is false and err is nil: the caller
// should keep pulling.
func (d *decoder) readGrai(eager bool) (localID uint16, g *grain.Grain, term bool, err error) {
	for {
		h, err := d.br.ReadHeader()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				if d.opts.Strict {
					return 0, nil, false, wrapf(KindTruncatedInput, err, "top-level")
				}
				return 0, nil, true, nil
			}
			return 0, nil, false, wrapf(KindTruncatedInput, err, "top-level")
		}
		if h.Tag == tagGrai && h.Size == 0 {
			return 0, nil, true, nil
		}
		plen, err := h.PayloadLen()
		if err != nil {
			return 0, nil, false, wrapf(KindMalformedBlock, err, "top-level")
		}
		if h.Tag != tagGrai {
			d.log.Debug("gsf: skipping unknown top-level block", "tag", h.TagString())
			if err := d.br.SeekPast(plen); err != nil {
				return 0, nil, false, wrapf(KindTruncatedInput, err, "top-level skip")
			}
			continue
		}
		if plen == 0 {
			// A grai with a non-zero size field but zero payload is also accepted
			// as a terminator, per Open Question 1's "accept both" rule.
			return 0, nil, true, nil
		}
		return d.readGrainBlock(plen, eager)
	}
}

func (d *decoder) readGrainBlock(plen uint32, eager bool) (uint16, *grain.Grain, bool, error) {
	body := d.br.Child(plen)

	id64, err := primitive.ReadUint(body, 2)
	if err != nil {
		return 0, nil, false, wrapf(KindTruncatedInput, err, "grai.local_id")
	}
	localID := uint16(id64)

	if d.opts.Strict && d.segmentSet != nil && !d.segmentSet[localID] {
		return 0, nil, false, wrapf(KindUnknownLocalID, errors.Errorf("local_id %d", localID), "grai")
	}

	filtered := d.opts.LocalIDs != nil && !d.opts.LocalIDs[localID]

	var g grain.Grain
	var sawGbhd, sawGrdt bool
	var dataOffset int64
	var dataLen uint32
	var dataBytes []byte

	for body.N > 0 {
		ch, ok, err := block.ReadChildHeader(body)
		if err != nil {
			return 0, nil, false, wrapf(KindMalformedBlock, err, "grai")
		}
		if !ok {
			break
		}
		cplen, err := ch.PayloadLen()
		if err != nil {
			return 0, nil, false, wrapf(KindMalformedBlock, err, "grai."+ch.TagString())
		}
		switch ch.Tag {
		case tagGbhd:
			if sawGbhd {
				d.log.Warning("gsf: duplicate gbhd in grai, ignoring", "local_id", localID)
				if err := d.skipChild(body, cplen); err != nil {
					return 0, nil, false, err
				}
				continue
			}
			sawGbhd = true
			gc := &io.LimitedReader{R: body, N: int64(cplen)}
			if err := d.readGBHD(gc, &g); err != nil {
				return 0, nil, false, err
			}
			if err := consumeRemainder(body, gc); err != nil {
				return 0, nil, false, wrapf(KindMalformedBlock, err, "grai.gbhd")
			}
		case tagGrdt:
			if sawGrdt {
				d.log.Warning("gsf: duplicate grdt in grai, ignoring", "local_id", localID)
				if err := d.skipChild(body, cplen); err != nil {
					return 0, nil, false, err
				}
				continue
			}
			sawGrdt = true
			dataLen = cplen
			if filtered {
				if err := d.skipChild(body, cplen); err != nil {
					return 0, nil, false, err
				}
				continue
			}
			if eager {
				b, err := primitive.ReadFixedBytes(body, int(cplen))
				if err != nil {
					return 0, nil, false, wrapf(KindTruncatedPayload, err, "grai.grdt")
				}
				dataBytes = b
			} else {
				dataOffset = d.cr.n
				if err := d.skipChild(body, cplen); err != nil {
					return 0, nil, false, err
				}
			}
		default:
			d.log.Debug("gsf: skipping unknown grai child block", "tag", ch.TagString())
			if err := d.skipChild(body, cplen); err != nil {
				return 0, nil, false, err
			}
		}
	}

	if filtered {
		return localID, nil, false, nil
	}

	if !sawGbhd {
		g.GrainType = grain.TypeEmpty
	}
	if !sawGrdt {
		d.log.Warning("gsf: grai missing grdt, treating as empty data", "local_id", localID)
	}

	want := g.ExpectedDataLength()
	if want > int(dataLen) && sawGrdt {
		return 0, nil, false, wrapf(KindTruncatedPayload,
			errors.Errorf("expected %d bytes, grdt has %d", want, dataLen), "grai.grdt")
	}

	if eager {
		g.Data = grain.NewData(dataBytes)
	} else {
		lb := &grain.LazyBytes{
			Source: &gate{ra: d.ra, done: &d.iterDone},
			Offset: dataOffset,
			Length: int(dataLen),
		}
		g.Data = grain.NewLazyData(lb, int(dataLen))
	}

	return localID, &g, false, nil
}

// skipChild discards n octets that remain of a child block, as the
// generic "skip unknown/unneeded child" step. Mirrors block.Reader's
// SeekPast: a seekable underlying source is seeked past, rather than
// read and discarded, so skipping a grdt payload under SkipData never
// touches its bytes.
func (d *decoder) skipChild(parent *io.LimitedReader, n uint32) error {
	if n == 0 {
		return nil
	}
	if cr, ok := parent.R.(*countReader); ok {
		if rs, ok := cr.r.(io.Seeker); ok {
			if _, err := rs.Seek(int64(n), io.SeekCurrent); err != nil {
				return wrapf(KindTruncatedInput, err, "skip")
			}
			cr.n += int64(n)
			parent.N -= int64(n)
			return nil
		}
	}
	_, err := io.CopyN(io.Discard, parent, int64(n))
	if err != nil {
		return wrapf(KindTruncatedInput, err, "skip")
	}
	return nil
}
