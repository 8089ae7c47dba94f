package gsf

import (
	"github.com/pkg/errors"

	"github.com/ausocean/gsf/grain"
	"github.com/ausocean/gsf/ssb/block"
	"github.com/ausocean/gsf/ssb/primitive"
)

// writeGBHD writes g's gbhd block: the common header in fixed order
// (src_id, flow_id, origin_ts, sync_ts, rate, duration), then tils (when
// non-empty), then exactly one variant header (omitted only for Empty).
func writeGBHD(w *block.Writer, g *grain.Grain) error {
	h := w.Begin(tagGbhd)

	if err := primitive.WriteUUID(w, g.SourceID); err != nil {
		return wrapf(KindIoError, err, "gbhd.src_id")
	}
	if err := primitive.WriteUUID(w, g.FlowID); err != nil {
		return wrapf(KindIoError, err, "gbhd.flow_id")
	}
	if err := primitive.WriteTimestamp(w, g.OriginTimestamp); err != nil {
		return wrapf(KindIoError, err, "gbhd.origin_ts")
	}
	if err := primitive.WriteTimestamp(w, g.SyncTimestamp); err != nil {
		return wrapf(KindIoError, err, "gbhd.sync_ts")
	}
	if err := primitive.WriteRational(w, g.Rate); err != nil {
		return wrapf(KindIoError, err, "gbhd.rate")
	}
	if err := primitive.WriteRational(w, g.Duration); err != nil {
		return wrapf(KindIoError, err, "gbhd.duration")
	}

	if len(g.TimeLabels) > 0 {
		th := w.Begin(tagTils)
		if err := primitive.WriteUint(w, 2, uint64(len(g.TimeLabels))); err != nil {
			return wrapf(KindIoError, err, "tils.n")
		}
		for _, tl := range g.TimeLabels {
			if err := primitive.WriteTimeLabel(w, tl); err != nil {
				return wrapf(KindIoError, err, "tils")
			}
		}
		if err := w.End(th); err != nil {
			return wrapf(KindIoError, err, "tils")
		}
	}

	switch g.GrainType {
	case grain.TypeVideo:
		if g.Video == nil {
			return wrapf(KindValueOutOfRange, errors.New("Video grain missing Video payload"), "gbhd")
		}
		if err := writeVghd(w, g.Video); err != nil {
			return err
		}
	case grain.TypeCodedVideo:
		if g.CodedVideo == nil {
			return wrapf(KindValueOutOfRange, errors.New("CodedVideo grain missing CodedVideo payload"), "gbhd")
		}
		if err := writeCghd(w, g.CodedVideo); err != nil {
			return err
		}
	case grain.TypeAudio:
		if g.Audio == nil {
			return wrapf(KindValueOutOfRange, errors.New("Audio grain missing Audio payload"), "gbhd")
		}
		if err := writeAghd(w, g.Audio); err != nil {
			return err
		}
	case grain.TypeCodedAudio:
		if g.CodedAudio == nil {
			return wrapf(KindValueOutOfRange, errors.New("CodedAudio grain missing CodedAudio payload"), "gbhd")
		}
		if err := writeCahd(w, g.CodedAudio); err != nil {
			return err
		}
	case grain.TypeEvent:
		if g.Event == nil {
			return wrapf(KindValueOutOfRange, errors.New("Event grain missing Event payload"), "gbhd")
		}
		if err := writeEghd(w, g.Event); err != nil {
			return err
		}
	case grain.TypeEmpty:
		// No variant block.
	}

	return w.End(h)
}

func writeVideoCommon(w *block.Writer, v *grain.Video) error {
	if err := primitive.WriteUint(w, 4, uint64(v.FrameFormat.Uint32())); err != nil {
		return err
	}
	if err := primitive.WriteUint(w, 4, uint64(v.FrameLayout.Uint32())); err != nil {
		return err
	}
	if err := primitive.WriteUint(w, 4, uint64(v.Width)); err != nil {
		return err
	}
	if err := primitive.WriteUint(w, 4, uint64(v.Height)); err != nil {
		return err
	}
	if err := primitive.WriteUint(w, 4, uint64(v.Extension)); err != nil {
		return err
	}
	if err := primitive.WriteRational(w, v.AspectRatio); err != nil {
		return err
	}
	return primitive.WriteRational(w, v.PixelAspectRatio)
}

func writeComponents(w *block.Writer, cs grain.Components) error {
	ch := w.Begin(tagComp)
	if err := primitive.WriteUint(w, 2, uint64(len(cs))); err != nil {
		return err
	}
	for _, c := range cs {
		if err := primitive.WriteUint(w, 4, uint64(c.Width)); err != nil {
			return err
		}
		if err := primitive.WriteUint(w, 4, uint64(c.Height)); err != nil {
			return err
		}
		if err := primitive.WriteUint(w, 4, uint64(c.Stride)); err != nil {
			return err
		}
		if err := primitive.WriteUint(w, 4, uint64(c.Length)); err != nil {
			return err
		}
	}
	return w.End(ch)
}

func writeVghd(w *block.Writer, v *grain.Video) error {
	h := w.Begin(tagVghd)
	if err := writeVideoCommon(w, v); err != nil {
		return wrapf(KindIoError, err, "vghd")
	}
	if len(v.Components) > 0 {
		if err := writeComponents(w, v.Components); err != nil {
			return wrapf(KindIoError, err, "vghd.comp")
		}
	}
	return w.End(h)
}

func writeCghd(w *block.Writer, cv *grain.CodedVideo) error {
	h := w.Begin(tagCghd)
	if err := writeVideoCommon(w, &cv.Video); err != nil {
		return wrapf(KindIoError, err, "cghd")
	}
	if err := primitive.WriteUint(w, 4, uint64(cv.OriginWidth)); err != nil {
		return wrapf(KindIoError, err, "cghd.origin_w")
	}
	if err := primitive.WriteUint(w, 4, uint64(cv.OriginHeight)); err != nil {
		return wrapf(KindIoError, err, "cghd.origin_h")
	}
	if err := primitive.WriteUint(w, 4, uint64(cv.CodedWidth)); err != nil {
		return wrapf(KindIoError, err, "cghd.coded_w")
	}
	if err := primitive.WriteUint(w, 4, uint64(cv.CodedHeight)); err != nil {
		return wrapf(KindIoError, err, "cghd.coded_h")
	}
	if err := primitive.WriteBool(w, cv.KeyFrame); err != nil {
		return wrapf(KindIoError, err, "cghd.key_frame")
	}
	if err := primitive.WriteInt(w, 4, int64(cv.TemporalOffset)); err != nil {
		return wrapf(KindIoError, err, "cghd.temporal_offset")
	}
	if len(cv.Components) > 0 {
		if err := writeComponents(w, cv.Components); err != nil {
			return wrapf(KindIoError, err, "cghd.comp")
		}
	}
	if len(cv.UnitOffsets) > 0 {
		uh := w.Begin(tagUnof)
		if err := primitive.WriteUint(w, 2, uint64(len(cv.UnitOffsets))); err != nil {
			return wrapf(KindIoError, err, "unof.n")
		}
		for _, o := range cv.UnitOffsets {
			if err := primitive.WriteUint(w, 4, uint64(o)); err != nil {
				return wrapf(KindIoError, err, "unof")
			}
		}
		if err := w.End(uh); err != nil {
			return wrapf(KindIoError, err, "unof")
		}
	}
	return w.End(h)
}

func writeAudioCommon(w *block.Writer, a *grain.Audio) error {
	if err := primitive.WriteUint(w, 4, uint64(a.Format.Uint32())); err != nil {
		return err
	}
	if err := primitive.WriteUint(w, 2, uint64(a.Channels)); err != nil {
		return err
	}
	if err := primitive.WriteUint(w, 4, uint64(a.Samples)); err != nil {
		return err
	}
	return primitive.WriteUint(w, 4, uint64(a.SampleRate))
}

func writeAghd(w *block.Writer, a *grain.Audio) error {
	h := w.Begin(tagAghd)
	if err := writeAudioCommon(w, a); err != nil {
		return wrapf(KindIoError, err, "aghd")
	}
	return w.End(h)
}

func writeCahd(w *block.Writer, ca *grain.CodedAudio) error {
	h := w.Begin(tagCahd)
	if err := primitive.WriteUint(w, 4, uint64(ca.Format.Uint32())); err != nil {
		return wrapf(KindIoError, err, "cahd.format")
	}
	if err := primitive.WriteUint(w, 2, uint64(ca.Channels)); err != nil {
		return wrapf(KindIoError, err, "cahd.channels")
	}
	if err := primitive.WriteUint(w, 4, uint64(ca.Samples)); err != nil {
		return wrapf(KindIoError, err, "cahd.samples")
	}
	if err := primitive.WriteUint(w, 4, uint64(ca.Priming)); err != nil {
		return wrapf(KindIoError, err, "cahd.priming")
	}
	if err := primitive.WriteUint(w, 4, uint64(ca.Remainder)); err != nil {
		return wrapf(KindIoError, err, "cahd.remainder")
	}
	if err := primitive.WriteUint(w, 4, uint64(ca.SampleRate)); err != nil {
		return wrapf(KindIoError, err, "cahd.sample_rate")
	}
	return w.End(h)
}

func writeEghd(w *block.Writer, e *grain.Event) error {
	h := w.Begin(tagEghd)
	if err := primitive.WriteUint(w, 1, uint64(e.EventType)); err != nil {
		return wrapf(KindIoError, err, "eghd.type")
	}
	return w.End(h)
}
