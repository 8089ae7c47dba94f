/*
DESCRIPTION
  compare_gsf walks two GSF files grain-by-grain and reports the first
  point at which they diverge, or confirms they match end to end.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Command compare_gsf compares two GSF files' grain sequences.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ausocean/gsf/compare"
	"github.com/ausocean/gsf/gsf"
)

const pkg = "compare_gsf: "

func main() {
	a := flag.String("a", "", "first GSF file")
	b := flag.String("b", "", "second GSF file")
	lastOnly := flag.Bool("last-only", false, "retain only the most recent diff while scanning (bounded memory)")
	metadataOnly := flag.Bool("metadata-only", false, "skip comparing grain data regions")
	flag.Parse()

	if *a == "" || *b == "" {
		fmt.Fprintln(os.Stderr, pkg+"missing -a or -b")
		os.Exit(2)
	}

	match, err := run(*a, *b, *lastOnly, *metadataOnly)
	if err != nil {
		fmt.Fprintln(os.Stderr, pkg+err.Error())
		os.Exit(1)
	}
	if !match {
		os.Exit(1)
	}
}

func run(aPath, bPath string, lastOnly, metadataOnly bool) (bool, error) {
	af, err := os.Open(aPath)
	if err != nil {
		return false, err
	}
	defer af.Close()
	bf, err := os.Open(bPath)
	if err != nil {
		return false, err
	}
	defer bf.Close()

	ia, err := gsf.Grains(af, gsf.Options{})
	if err != nil {
		return false, err
	}
	defer ia.Close()
	ib, err := gsf.Grains(bf, gsf.Options{})
	if err != nil {
		return false, err
	}
	defer ib.Close()

	var opts []compare.Option
	if metadataOnly {
		opts = append(opts, compare.CompareOnlyMetadata())
	}

	diff, err := compare.CompareSequences(ia, ib, lastOnly, opts...)
	if err != nil {
		return false, err
	}

	for _, n := range diff.Nodes {
		fmt.Print(compare.Render(n))
	}
	if diff.OK() {
		fmt.Println("sequences match")
		return true, nil
	}
	fmt.Printf("sequences diverge at index %d (extra: %v)\n", diff.MismatchIndex, diff.Extra)
	return false, nil
}
