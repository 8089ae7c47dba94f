/*
DESCRIPTION
  extract_gsf_essence writes the raw data region of every grain in a GSF
  file to one flat file per segment, in grain order, discarding all grain
  metadata. Useful for pulling a flow's essence back out for playback or
  further processing by format-specific tools.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Command extract_gsf_essence pulls raw grain data out of a GSF file.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ausocean/gsf/gsf"
)

const pkg = "extract_gsf_essence: "

// localIDs collects repeatable -local-id flags.
type localIDs []uint16

func (l *localIDs) String() string { return fmt.Sprint([]uint16(*l)) }

func (l *localIDs) Set(s string) error {
	var v uint16
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return fmt.Errorf("invalid -local-id %q: %w", s, err)
	}
	*l = append(*l, v)
	return nil
}

func main() {
	in := flag.String("in", "", "input GSF file")
	outDir := flag.String("out-dir", ".", "directory to write essence files to")
	var ids localIDs
	flag.Var(&ids, "local-id", "restrict extraction to this segment's local_id (repeatable)")
	flag.Parse()

	if *in == "" {
		fmt.Fprintln(os.Stderr, pkg+"missing -in")
		os.Exit(2)
	}

	if err := run(*in, *outDir, ids); err != nil {
		fmt.Fprintln(os.Stderr, pkg+err.Error())
		os.Exit(1)
	}
}

func run(in, outDir string, ids localIDs) error {
	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()

	opts := gsf.Options{}
	if len(ids) > 0 {
		set := map[uint16]bool{}
		for _, id := range ids {
			set[id] = true
		}
		opts.LocalIDs = set
	}

	dec, err := gsf.DecodeAll(f, opts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	for _, seg := range dec.Segments {
		grains := dec.Grains[seg.LocalID]
		if len(grains) == 0 {
			continue
		}
		out := filepath.Join(outDir, fmt.Sprintf("segment-%d-%s.raw", seg.LocalID, seg.ID))
		wf, err := os.Create(out)
		if err != nil {
			return err
		}
		for _, g := range grains {
			b, err := g.Data.Bytes()
			if err != nil {
				wf.Close()
				return err
			}
			if _, err := wf.Write(b); err != nil {
				wf.Close()
				return err
			}
		}
		if err := wf.Close(); err != nil {
			return err
		}
		fmt.Printf("wrote %s (%d grains)\n", out, len(grains))
	}
	return nil
}
