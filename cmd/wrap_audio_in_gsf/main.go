/*
DESCRIPTION
  wrap_audio_in_gsf frames a PCM, WAV or FLAC audio file into a
  single-segment GSF file of Audio grains, each holding samples-per-grain
  interleaved 16-bit little-endian samples.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Command wrap_audio_in_gsf wraps PCM/WAV/FLAC audio essence in a GSF
// container.
package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	flacpkg "github.com/mewkiz/flac"
	"github.com/go-audio/wav"
	"github.com/google/uuid"

	"github.com/ausocean/gsf/grain"
	"github.com/ausocean/gsf/gsf"
	"github.com/ausocean/gsf/ssb/primitive"
)

const pkg = "wrap_audio_in_gsf: "

func main() {
	in := flag.String("in", "", "input audio file")
	out := flag.String("out", "", "output GSF file")
	sampleRate := flag.Int("sample-rate", 48000, "sample rate, for -format=pcm (ignored for wav/flac)")
	channels := flag.Int("channels", 1, "channel count, for -format=pcm (ignored for wav/flac)")
	samplesPerGrain := flag.Int("samples-per-grain", 1024, "samples per grain, per channel")
	format := flag.String("format", "pcm", "input format: pcm, wav or flac")
	flag.Parse()

	if *in == "" || *out == "" {
		fmt.Fprintln(os.Stderr, pkg+"missing -in or -out")
		os.Exit(2)
	}

	if err := run(*in, *out, *format, *sampleRate, *channels, *samplesPerGrain); err != nil {
		fmt.Fprintln(os.Stderr, pkg+err.Error())
		os.Exit(1)
	}
}

// pcmSource is a decoded stream of interleaved 16-bit little-endian
// samples, plus the geometry needed to frame them into Audio grains.
type pcmSource struct {
	r          io.Reader
	sampleRate int
	channels   int
}

func openSource(inPath, format string, sampleRate, channels int) (*pcmSource, func() error, error) {
	f, err := os.Open(inPath)
	if err != nil {
		return nil, nil, err
	}

	switch format {
	case "pcm":
		return &pcmSource{r: bufio.NewReader(f), sampleRate: sampleRate, channels: channels}, f.Close, nil

	case "wav":
		dec := wav.NewDecoder(f)
		if !dec.IsValidFile() {
			f.Close()
			return nil, nil, fmt.Errorf("%s: not a valid WAV file", inPath)
		}
		if err := dec.FwdToPCM(); err != nil {
			f.Close()
			return nil, nil, err
		}
		return &pcmSource{r: bufio.NewReader(f), sampleRate: int(dec.SampleRate), channels: int(dec.NumChans)}, f.Close, nil

	case "flac":
		stream, err := flacpkg.Parse(f)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		pr, pw := io.Pipe()
		go func() {
			pw.CloseWithError(copyFlacPCM(stream, pw))
		}()
		return &pcmSource{r: pr, sampleRate: int(stream.Info.SampleRate), channels: int(stream.Info.NChannels)}, f.Close, nil

	default:
		f.Close()
		return nil, nil, fmt.Errorf("unsupported -format %q", format)
	}
}

// copyFlacPCM decodes every frame of stream and writes each subframe's
// samples to w as interleaved 16-bit little-endian PCM. It assumes a
// 16-bit source depth, the common case for archival FLAC essence.
func copyFlacPCM(stream *flacpkg.Stream, w io.Writer) error {
	var buf [2]byte
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		for i := 0; i < frame.Subframes[0].NSamples; i++ {
			for _, sub := range frame.Subframes {
				binary.LittleEndian.PutUint16(buf[:], uint16(int16(sub.Samples[i])))
				if _, err := w.Write(buf[:]); err != nil {
					return err
				}
			}
		}
	}
}

func run(inPath, outPath, format string, sampleRate, channels, samplesPerGrain int) error {
	src, closeFn, err := openSource(inPath, format, sampleRate, channels)
	if err != nil {
		return err
	}
	defer closeFn()

	outFile, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer outFile.Close()

	now := time.Now().UTC()
	enc := gsf.New(outFile, uuid.New(), primitive.DateTime{
		Year: uint16(now.Year()), Month: uint8(now.Month()), Day: uint8(now.Day()),
		Hour: uint8(now.Hour()), Min: uint8(now.Minute()), Second: uint8(now.Second()),
	})
	seg, err := enc.AddSegment(0, uuid.New())
	if err != nil {
		return err
	}
	if err := enc.Start(); err != nil {
		return err
	}

	flowID := uuid.New()
	bytesPerGrain := samplesPerGrain * src.channels * 2
	buf := make([]byte, bytesPerGrain)

	var n int64
	for {
		k, err := io.ReadFull(src.r, buf)
		if k == 0 {
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
		}
		frameSamples := k / (src.channels * 2)
		if frameSamples == 0 {
			break
		}

		offsetNanos := n * int64(samplesPerGrain) * 1e9 / int64(src.sampleRate)
		ts := nsToTimestamp(offsetNanos)
		g := &grain.Grain{
			Header: grain.Header{
				GrainType:       grain.TypeAudio,
				FlowID:          flowID,
				OriginTimestamp: ts,
				SyncTimestamp:   ts,
				Rate:            primitive.Rational{Num: uint32(src.sampleRate), Den: 1},
				Duration:        primitive.Rational{Num: uint32(frameSamples), Den: uint32(src.sampleRate)},
			},
			Audio: &grain.Audio{
				Format:     grain.AudioFormatS16LE,
				Channels:   uint16(src.channels),
				Samples:    uint32(frameSamples),
				SampleRate: uint32(src.sampleRate),
			},
			Data: grain.NewData(append([]byte(nil), buf[:k]...)),
		}
		if err := seg.AddGrain(g); err != nil {
			return err
		}
		n++

		if err == io.ErrUnexpectedEOF || err == io.EOF {
			break
		}
	}

	fmt.Printf("wrapped %d grain(s) into %s\n", n, outPath)
	return enc.End()
}

func nsToTimestamp(ns int64) primitive.Timestamp {
	pos := ns >= 0
	if !pos {
		ns = -ns
	}
	return primitive.Timestamp{Positive: pos, Seconds: uint64(ns / 1e9), Nanos: uint32(ns % 1e9)}
}
