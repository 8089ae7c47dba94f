/*
DESCRIPTION
  wrap_video_in_gsf frames a raw, headerless video essence file (frames of
  known geometry and pixel format, back to back with no separators) into a
  single-segment GSF file of Video grains, assigning each frame an
  incrementing origin_timestamp at the given rate.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Command wrap_video_in_gsf wraps raw video essence in a GSF container.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ausocean/gsf/grain"
	"github.com/ausocean/gsf/gsf"
	"github.com/ausocean/gsf/ssb/primitive"
)

const pkg = "wrap_video_in_gsf: "

func main() {
	in := flag.String("in", "", "input raw video essence file")
	out := flag.String("out", "", "output GSF file")
	size := flag.String("size", "", "frame geometry, WxH, e.g. 1920x1080")
	format := flag.String("format", "rgb", "pixel format: rgb, rgba or yuv420p")
	rate := flag.Float64("rate", 25, "frame rate, frames per second")
	flag.Parse()

	if *in == "" || *out == "" || *size == "" {
		fmt.Fprintln(os.Stderr, pkg+"missing -in, -out or -size")
		os.Exit(2)
	}

	if err := run(*in, *out, *size, *format, *rate); err != nil {
		fmt.Fprintln(os.Stderr, pkg+err.Error())
		os.Exit(1)
	}
}

func parseSize(s string) (w, h uint32, err error) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid -size %q, want WxH", s)
	}
	wi, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	hi, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return uint32(wi), uint32(hi), nil
}

// frameLayout returns the CogFrameFormat and per-frame component layout
// for a supported -format value.
func frameLayout(format string, w, h uint32) (grain.CogFrameFormat, grain.Components, error) {
	switch format {
	case "rgb":
		return grain.FrameFormatRGB, grain.Components{{Width: w, Height: h, Stride: w * 3, Length: w * h * 3}}, nil
	case "rgba":
		return grain.FrameFormatRGBA, grain.Components{{Width: w, Height: h, Stride: w * 4, Length: w * h * 4}}, nil
	case "yuv420p":
		cw, ch := (w+1)/2, (h+1)/2
		return grain.FrameFormatU8_420, grain.Components{
			{Width: w, Height: h, Stride: w, Length: w * h},
			{Width: cw, Height: ch, Stride: cw, Length: cw * ch},
			{Width: cw, Height: ch, Stride: cw, Length: cw * ch},
		}, nil
	default:
		return grain.CogFrameFormat{}, nil, fmt.Errorf("unsupported -format %q", format)
	}
}

func run(inPath, outPath, size, format string, rate float64) error {
	w, h, err := parseSize(size)
	if err != nil {
		return err
	}
	cfmt, components, err := frameLayout(format, w, h)
	if err != nil {
		return err
	}
	frameLen := components.TotalLength()

	inFile, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer inFile.Close()
	r := bufio.NewReader(inFile)

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
	frameDur := primitive.Rational{Num: 1, Den: uint32(rate)}
	var n int64
	buf := make([]byte, frameLen)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return err
		}

		ts := nsToTimestamp(int64(float64(n) / rate * 1e9))
		g := &grain.Grain{
			Header: grain.Header{
				GrainType:       grain.TypeVideo,
				FlowID:          flowID,
				OriginTimestamp: ts,
				SyncTimestamp:   ts,
				Rate:            primitive.Rational{Num: uint32(rate), Den: 1},
				Duration:        frameDur,
			},
			Video: &grain.Video{
				FrameFormat: cfmt,
				FrameLayout: grain.FrameLayoutFullFrame,
				Width:       w,
				Height:      h,
				Components:  components,
			},
			Data: grain.NewData(append([]byte(nil), buf...)),
		}
		if err := seg.AddGrain(g); err != nil {
			return err
		}
		n++
	}

	fmt.Printf("wrapped %d frame(s) into %s\n", n, outPath)
	return enc.End()
}

func nsToTimestamp(ns int64) primitive.Timestamp {
	pos := ns >= 0
	if !pos {
		ns = -ns
	}
	return primitive.Timestamp{Positive: pos, Seconds: uint64(ns / 1e9), Nanos: uint32(ns % 1e9)}
}
