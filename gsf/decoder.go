/*
NAME
  decoder.go - the GSF decoder: file header, head block, and the grai
  grain loop, in both eager and lazy/streaming modes.

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

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/gsf/grain"
	"github.com/ausocean/gsf/ssb/block"
)

// Source is what a decoder needs from its input: sequential reads for the
// main parse, plus random access so lazy data handles can be realized
// once iteration has finished (§5's reference behaviour (b)).
type Source interface {
	io.Reader
	io.ReaderAt
}

// countReader wraps an io.Reader, tracking the cumulative number of bytes
// read so that lazy data handles can record accurate offsets.
type countReader struct {
	r io.Reader
	n int64
}

func (c *countReader) Read(p []byte) (int, error) {
	k, err := c.r.Read(p)
	c.n += int64(k)
	return k, err
}

// gate backs a grain.ReaderAtGate: it rejects lazy reads while the
// decoder that produced them is still iterating, and permits them once
// iteration has completed.
type gate struct {
	ra   io.ReaderAt
	done *bool
}

var errLazyBeforeDone = errors.New("gsf: lazy grain data accessed before decoder iteration completed")

func (g *gate) ReadAtGated(off int64, p []byte) (int, error) {
	if g.done == nil || !*g.done {
		return 0, errLazyBeforeDone
	}
	return g.ra.ReadAt(p, off)
}

// Options configures a decode operation.
type Options struct {
	// SkipData requests lazy data handles rather than eager payload reads.
	// Only Grains honours it; DecodeAll always reads payloads eagerly.
	SkipData bool
	// LocalIDs, if non-nil, restricts decoding to grains whose local_id is
	// a member; grains outside the set are skipped without materializing
	// their data.
	LocalIDs map[uint16]bool
	// Strict, when true, reports UnknownLocalId for grains whose local_id
	// names no declared segment, and TruncatedInput when the stream ends
	// without a terminator grai block.
	Strict bool
	// Logger receives Debug/Warning diagnostics for skipped/unknown
	// blocks; a nil Logger is a no-op.
	Logger logging.Logger
}

func (o Options) logger() logging.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return noopLogger{}
}

type noopLogger struct{}

func (noopLogger) Log(int8, string, ...interface{})   {}
func (noopLogger) SetLevel(int8)                      {}
func (noopLogger) Debug(string, ...interface{})       {}
func (noopLogger) Info(string, ...interface{})        {}
func (noopLogger) Warning(string, ...interface{})     {}
func (noopLogger) Error(string, ...interface{})       {}
func (noopLogger) Fatal(string, ...interface{})       {}

// File holds the result of an eager DecodeAll: the file-level head, the
// declared segments, and every grain keyed by the local_id of the
// segment it belongs to.
type File struct {
	Head     FileHead
	Segments []Segment
	Grains   map[uint16][]*grain.Grain
}

// DecodeAll eagerly decodes every grain, including its data, from r.
func DecodeAll(r io.Reader, opts Options) (*File, error) {
	cr := &countReader{r: r}
	d := &decoder{cr: cr, br: block.NewReader(cr), opts: opts, log: opts.logger()}

	if err := d.readFileHeader(); err != nil {
		return nil, err
	}
	if err := d.readHead(); err != nil {
		return nil, err
	}

	result := &File{Head: d.head, Segments: d.segmentList(), Grains: map[uint16][]*grain.Grain{}}
	for {
		localID, g, term, err := d.readGrai(true)
		if err != nil {
			return nil, err
		}
		if term {
			break
		}
		if g == nil {
			continue // Filtered by LocalIDs.
		}
		result.Grains[localID] = append(result.Grains[localID], g)
	}
	return result, nil
}

// Entry is one decoded grain yielded by Grains, alongside the local_id of
// the segment it belongs to.
type Entry struct {
	LocalID uint16
	Grain   *grain.Grain
}

// Iterator pulls grains one at a time from a GSF stream in file order.
type Iterator struct {
	d    *decoder
	done bool
	err  error
	cur  Entry
}

// Grains returns a pull-style iterator over src's grains. If opts.SkipData
// is set, each yielded grain's Data is a lazy handle valid only after
// iteration has completed (call Close or exhaust Next first).
func Grains(src Source, opts Options) (*Iterator, error) {
	cr := &countReader{r: src}
	d := &decoder{cr: cr, br: block.NewReader(cr), opts: opts, log: opts.logger(), ra: src}

	if err := d.readFileHeader(); err != nil {
		return nil, err
	}
	if err := d.readHead(); err != nil {
		return nil, err
	}
	return &Iterator{d: d}, nil
}

// Next advances the iterator, returning false at the terminator or on
// error (check Err to distinguish the two).
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	for {
		localID, g, term, err := it.d.readGrai(!it.d.opts.SkipData)
		if err != nil {
			it.err = err
			it.done = true
			return false
		}
		if term {
			it.done = true
			it.d.setIterationDone()
			return false
		}
		if g == nil {
			continue // Filtered by LocalIDs; keep pulling.
		}
		it.cur = Entry{LocalID: localID, Grain: g}
		return true
	}
}

// Grain returns the entry produced by the most recent successful Next.
func (it *Iterator) Grain() Entry { return it.cur }

// Err returns the error, if any, that stopped iteration.
func (it *Iterator) Err() error { return it.err }

// Close marks the iterator's decode as finished, enabling any lazy data
// handles it produced to be realized. Safe to call after natural
// exhaustion (Next already calls it on the terminator) or to bail out
// early.
func (it *Iterator) Close() { it.d.setIterationDone() }

// decoder holds the shared state for a single parse of a GSF stream.
type decoder struct {
	cr   *countReader
	br   *block.Reader
	opts Options
	log  logging.Logger
	ra   io.ReaderAt

	major, minor uint16
	head         FileHead
	segments     []Segment
	segmentSet   map[uint16]bool

	iterDone bool
}

func (d *decoder) setIterationDone() { d.iterDone = true }

func (d *decoder) segmentList() []Segment { return d.segments }

func (d *decoder) readFileHeader() error {
	fh, err := d.br.ReadFileHeader()
	if err != nil {
		return wrapf(KindUnsupportedSignature, err, "file header")
	}
	if fh.TypeString() != FileType {
		return wrapf(KindWrongFileType, errors.Errorf("got %q", fh.TypeString()), "file header")
	}
	if fh.Major != 7 && fh.Major != MajorVersion {
		return wrapf(KindUnsupportedMajorVersion, errors.Errorf("got %d", fh.Major), "file header")
	}
	d.major, d.minor = fh.Major, fh.Minor
	return nil
}
