package gsf

import (
	"io"

	"github.com/pkg/errors"

	"github.com/ausocean/gsf/grain"
	"github.com/ausocean/gsf/ssb/block"
	"github.com/ausocean/gsf/ssb/primitive"
)

// readGBHD reads a gbhd block body into g: the common header fields in
// their fixed order, then tils (if present) and at most one variant
// block, skipping any other children.
func (d *decoder) readGBHD(r *io.LimitedReader, g *grain.Grain) error {
	var err error
	if g.SourceID, err = primitive.ReadUUID(r); err != nil {
		return wrapf(KindTruncatedInput, err, "gbhd.src_id")
	}
	if g.FlowID, err = primitive.ReadUUID(r); err != nil {
		return wrapf(KindTruncatedInput, err, "gbhd.flow_id")
	}
	if g.OriginTimestamp, err = primitive.ReadTimestamp(r); err != nil {
		return wrapf(KindMalformedBlock, err, "gbhd.origin_ts")
	}
	if g.SyncTimestamp, err = primitive.ReadTimestamp(r); err != nil {
		return wrapf(KindMalformedBlock, err, "gbhd.sync_ts")
	}
	if g.Rate, err = primitive.ReadRational(r); err != nil {
		return wrapf(KindTruncatedInput, err, "gbhd.rate")
	}
	if g.Duration, err = primitive.ReadRational(r); err != nil {
		return wrapf(KindTruncatedInput, err, "gbhd.duration")
	}

	var sawVariant bool
	for r.N > 0 {
		ch, ok, err := block.ReadChildHeader(r)
		if err != nil {
			return wrapf(KindMalformedBlock, err, "gbhd")
		}
		if !ok {
			break
		}
		plen, err := ch.PayloadLen()
		if err != nil {
			return wrapf(KindMalformedBlock, err, "gbhd."+ch.TagString())
		}
		child := &io.LimitedReader{R: r, N: int64(plen)}

		switch ch.Tag {
		case tagTils:
			if err := readTils(child, g); err != nil {
				return wrapf(KindMalformedBlock, err, "gbhd.tils")
			}
		case tagVghd:
			if sawVariant {
				return wrapf(KindMalformedBlock, errors.New("multiple variant blocks"), "gbhd")
			}
			sawVariant = true
			g.GrainType = grain.TypeVideo
			if err := readVghd(child, g); err != nil {
				return wrapf(KindMalformedBlock, err, "gbhd.vghd")
			}
		case tagCghd:
			if sawVariant {
				return wrapf(KindMalformedBlock, errors.New("multiple variant blocks"), "gbhd")
			}
			sawVariant = true
			g.GrainType = grain.TypeCodedVideo
			if err := readCghd(child, g); err != nil {
				return wrapf(KindMalformedBlock, err, "gbhd.cghd")
			}
		case tagAghd:
			if sawVariant {
				return wrapf(KindMalformedBlock, errors.New("multiple variant blocks"), "gbhd")
			}
			sawVariant = true
			g.GrainType = grain.TypeAudio
			if err := readAghd(child, g); err != nil {
				return wrapf(KindMalformedBlock, err, "gbhd.aghd")
			}
		case tagCahd:
			if sawVariant {
				return wrapf(KindMalformedBlock, errors.New("multiple variant blocks"), "gbhd")
			}
			sawVariant = true
			g.GrainType = grain.TypeCodedAudio
			if err := readCahd(child, g); err != nil {
				return wrapf(KindMalformedBlock, err, "gbhd.cahd")
			}
		case tagEghd:
			if sawVariant {
				return wrapf(KindMalformedBlock, errors.New("multiple variant blocks"), "gbhd")
			}
			sawVariant = true
			g.GrainType = grain.TypeEvent
			if err := readEghd(child, g); err != nil {
				return wrapf(KindMalformedBlock, err, "gbhd.eghd")
			}
		default:
			d.log.Debug("gsf: skipping unknown gbhd child block", "tag", ch.TagString())
		}
		if err := consumeRemainder(r, child); err != nil {
			return wrapf(KindMalformedBlock, err, "gbhd."+ch.TagString())
		}
	}
	if !sawVariant {
		g.GrainType = grain.TypeEmpty
	}
	return nil
}

func readTils(r io.Reader, g *grain.Grain) error {
	n, err := primitive.ReadUint(r, 2)
	if err != nil {
		return err
	}
	g.TimeLabels = make([]primitive.TimeLabel, 0, n)
	for i := uint64(0); i < n; i++ {
		tl, err := primitive.ReadTimeLabel(r)
		if err != nil {
			return err
		}
		g.TimeLabels = append(g.TimeLabels, tl)
	}
	return nil
}

func readVideoHeader(r io.Reader) (grain.Video, error) {
	var v grain.Video
	format, err := primitive.ReadUint(r, 4)
	if err != nil {
		return v, err
	}
	layout, err := primitive.ReadUint(r, 4)
	if err != nil {
		return v, err
	}
	width, err := primitive.ReadUint(r, 4)
	if err != nil {
		return v, err
	}
	height, err := primitive.ReadUint(r, 4)
	if err != nil {
		return v, err
	}
	ext, err := primitive.ReadUint(r, 4)
	if err != nil {
		return v, err
	}
	aspect, err := primitive.ReadRational(r)
	if err != nil {
		return v, err
	}
	pixAspect, err := primitive.ReadRational(r)
	if err != nil {
		return v, err
	}
	v.FrameFormat = grain.FrameFormatFromUint32(uint32(format))
	v.FrameLayout = grain.FrameLayoutFromUint32(uint32(layout))
	v.Width, v.Height, v.Extension = uint32(width), uint32(height), uint32(ext)
	v.AspectRatio, v.PixelAspectRatio = aspect, pixAspect
	return v, nil
}

func readComponents(r io.Reader) (grain.Components, error) {
	n, err := primitive.ReadUint(r, 2)
	if err != nil {
		return nil, err
	}
	cs := make(grain.Components, 0, n)
	for i := uint64(0); i < n; i++ {
		w, err := primitive.ReadUint(r, 4)
		if err != nil {
			return nil, err
		}
		h, err := primitive.ReadUint(r, 4)
		if err != nil {
			return nil, err
		}
		stride, err := primitive.ReadUint(r, 4)
		if err != nil {
			return nil, err
		}
		length, err := primitive.ReadUint(r, 4)
		if err != nil {
			return nil, err
		}
		cs = append(cs, grain.Component{
			Width: uint32(w), Height: uint32(h), Stride: uint32(stride), Length: uint32(length),
		})
	}
	return cs, nil
}

func readVghd(r *io.LimitedReader, g *grain.Grain) error {
	v, err := readVideoHeader(r)
	if err != nil {
		return err
	}
	for r.N > 0 {
		ch, ok, err := block.ReadChildHeader(r)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		plen, err := ch.PayloadLen()
		if err != nil {
			return err
		}
		child := &io.LimitedReader{R: r, N: int64(plen)}
		if ch.Tag == tagComp {
			cs, err := readComponents(child)
			if err != nil {
				return err
			}
			v.Components = cs
		}
		if err := consumeRemainder(r, child); err != nil {
			return err
		}
	}
	g.Video = &v
	return nil
}

func readCghd(r *io.LimitedReader, g *grain.Grain) error {
	v, err := readVideoHeader(r)
	if err != nil {
		return err
	}
	cv := grain.CodedVideo{Video: v}

	originW, err := primitive.ReadUint(r, 4)
	if err != nil {
		return err
	}
	originH, err := primitive.ReadUint(r, 4)
	if err != nil {
		return err
	}
	codedW, err := primitive.ReadUint(r, 4)
	if err != nil {
		return err
	}
	codedH, err := primitive.ReadUint(r, 4)
	if err != nil {
		return err
	}
	keyFrame, err := primitive.ReadBool(r)
	if err != nil {
		return err
	}
	temporalOffset, err := primitive.ReadInt(r, 4)
	if err != nil {
		return err
	}
	cv.OriginWidth, cv.OriginHeight = uint32(originW), uint32(originH)
	cv.CodedWidth, cv.CodedHeight = uint32(codedW), uint32(codedH)
	cv.KeyFrame = keyFrame
	cv.TemporalOffset = int32(temporalOffset)

	for r.N > 0 {
		ch, ok, err := block.ReadChildHeader(r)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		plen, err := ch.PayloadLen()
		if err != nil {
			return err
		}
		child := &io.LimitedReader{R: r, N: int64(plen)}
		switch ch.Tag {
		case tagComp:
			cs, err := readComponents(child)
			if err != nil {
				return err
			}
			cv.Components = cs
		case tagUnof:
			offs, err := readUnitOffsets(child)
			if err != nil {
				return err
			}
			total := cv.Components.TotalLength()
			for _, o := range offs {
				if total > 0 && int(o) >= total {
					return errors.Errorf("unit_offset %d >= payload length %d", o, total)
				}
			}
			cv.UnitOffsets = offs
		}
		if err := consumeRemainder(r, child); err != nil {
			return err
		}
	}
	g.CodedVideo = &cv
	return nil
}

func readUnitOffsets(r io.Reader) ([]uint32, error) {
	n, err := primitive.ReadUint(r, 2)
	if err != nil {
		return nil, err
	}
	offs := make([]uint32, 0, n)
	for i := uint64(0); i < n; i++ {
		o, err := primitive.ReadUint(r, 4)
		if err != nil {
			return nil, err
		}
		offs = append(offs, uint32(o))
	}
	return offs, nil
}

func readAghd(r *io.LimitedReader, g *grain.Grain) error {
	a, err := readAudioCommon(r)
	if err != nil {
		return err
	}
	g.Audio = &a
	return nil
}

func readAudioCommon(r io.Reader) (grain.Audio, error) {
	var a grain.Audio
	format, err := primitive.ReadUint(r, 4)
	if err != nil {
		return a, err
	}
	channels, err := primitive.ReadUint(r, 2)
	if err != nil {
		return a, err
	}
	samples, err := primitive.ReadUint(r, 4)
	if err != nil {
		return a, err
	}
	sampleRate, err := primitive.ReadUint(r, 4)
	if err != nil {
		return a, err
	}
	a.Format = grain.AudioFormatFromUint32(uint32(format))
	a.Channels = uint16(channels)
	a.Samples = uint32(samples)
	a.SampleRate = uint32(sampleRate)
	return a, nil
}

func readCahd(r *io.LimitedReader, g *grain.Grain) error {
	// cahd's wire order is format, channels, samples, priming, remainder,
	// sample_rate -- priming/remainder sit between samples and sample_rate,
	// unlike aghd, so it cannot reuse readAudioCommon directly.
	var ca grain.CodedAudio
	format, err := primitive.ReadUint(r, 4)
	if err != nil {
		return err
	}
	channels, err := primitive.ReadUint(r, 2)
	if err != nil {
		return err
	}
	samples, err := primitive.ReadUint(r, 4)
	if err != nil {
		return err
	}
	priming, err := primitive.ReadUint(r, 4)
	if err != nil {
		return err
	}
	remainder, err := primitive.ReadUint(r, 4)
	if err != nil {
		return err
	}
	sampleRate, err := primitive.ReadUint(r, 4)
	if err != nil {
		return err
	}
	ca.Format = grain.AudioFormatFromUint32(uint32(format))
	ca.Channels = uint16(channels)
	ca.Samples = uint32(samples)
	ca.Priming = uint32(priming)
	ca.Remainder = uint32(remainder)
	ca.SampleRate = uint32(sampleRate)
	g.CodedAudio = &ca
	return nil
}

func readEghd(r io.Reader, g *grain.Grain) error {
	t, err := primitive.ReadUint(r, 1)
	if err != nil {
		return err
	}
	g.Event = &grain.Event{EventType: uint8(t)}
	return nil
}
