/*
DESCRIPTION
  gsf_probe prints a summary of a GSF file: its id, creation time,
  segment table and per-variant grain counts. With -watch it re-probes
  the file each time it is rewritten.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Command gsf_probe is a diagnostic tool for GSF files.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/gsf/grain"
	"github.com/ausocean/gsf/gsf"
)

const pkg = "gsf_probe: "

const (
	logMaxSize    = 10 // Megabytes.
	logMaxBackups = 5
	logMaxAge     = 28 // Days.
)

func main() {
	file := flag.String("file", "", "path to the GSF file to probe")
	watch := flag.Bool("watch", false, "re-probe the file each time it is rewritten")
	level := flag.Int("level", int(logging.Info), "log verbosity (0=debug .. 3=fatal)")
	logFile := flag.String("log-file", "", "rotate diagnostics to this file instead of stderr")
	flag.Parse()

	var w io.Writer = os.Stderr
	if *logFile != "" {
		w = &lumberjack.Logger{
			Filename:   *logFile,
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAge,
		}
	}
	log := logging.New(int8(*level), w, false)

	if *file == "" {
		log.Fatal(pkg + "missing -file")
	}

	if err := probe(*file, log); err != nil {
		log.Error(pkg+"probe failed", "error", err)
		// Exit 2 for a malformed file, 1 for an I/O failure.
		var gerr *gsf.Error
		if errors.As(err, &gerr) && gerr.Kind != gsf.KindIoError {
			os.Exit(2)
		}
		os.Exit(1)
	}

	if !*watch {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Fatal(pkg+"could not start watcher", "error", err)
	}
	defer watcher.Close()
	if err := watcher.Add(*file); err != nil {
		log.Fatal(pkg+"could not watch file", "error", err)
	}

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Info(pkg+"file changed, re-probing", "file", *file)
			if err := probe(*file, log); err != nil {
				log.Error(pkg+"probe failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Error(pkg+"watch error", "error", err)
		}
	}
}

func probe(path string, log logging.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := gsf.DecodeAll(f, gsf.Options{SkipData: true, Logger: log})
	if err != nil {
		return err
	}

	fmt.Printf("file id:      %s\n", dec.Head.ID)
	fmt.Printf("created:      %04d-%02d-%02d %02d:%02d:%02d\n",
		dec.Head.Created.Year, dec.Head.Created.Month, dec.Head.Created.Day,
		dec.Head.Created.Hour, dec.Head.Created.Min, dec.Head.Created.Second)
	fmt.Printf("segments:     %d\n", len(dec.Segments))

	for _, seg := range dec.Segments {
		grains := dec.Grains[seg.LocalID]
		counts := map[grain.Type]int{}
		for _, g := range grains {
			counts[g.GrainType]++
		}
		fmt.Printf("  [%d] id=%s count=%d\n", seg.LocalID, seg.ID, len(grains))
		for t := grain.TypeEmpty; t <= grain.TypeEvent; t++ {
			if counts[t] > 0 {
				fmt.Printf("      %-10s %d\n", t, counts[t])
			}
		}
	}
	return nil
}
