/*
NAME
  gsfio.go - context-carrying variants of the gsf package's decode
  operations, for callers that need cancellation or deadlines around a
  potentially slow or stalled source (e.g. a live network capture).

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package gsfio wraps gsf's decode operations with context.Context
// cancellation, for use against sources that may stall (a network pipe,
// a growing file being tailed). It does not invent a bespoke async
// runtime: each call runs the underlying blocking gsf operation on a
// goroutine and selects between its completion and ctx.Done.
package gsfio

import (
	"context"

	"github.com/ausocean/gsf/gsf"
)

// DecodeAll behaves like gsf.DecodeAll, but returns early with ctx.Err()
// if ctx is cancelled before decoding finishes. The underlying decode
// goroutine is not killed (io.Reader gives no way to interrupt a blocked
// Read); it is left to finish or fail on its own and its result is
// discarded if the context already returned.
func DecodeAll(ctx context.Context, src gsf.Source, opts gsf.Options) (*gsf.File, error) {
	type result struct {
		file *gsf.File
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		f, err := gsf.DecodeAll(src, opts)
		ch <- result{f, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.file, r.err
	}
}

// Iterator wraps a gsf.Iterator, making Next context-aware: it returns
// false immediately (with Err reporting ctx.Err()) if ctx is cancelled
// before the next grain becomes available.
type Iterator struct {
	ctx context.Context
	it  *gsf.Iterator
	err error
}

// Grains returns a context-aware iterator over src's grains.
func Grains(ctx context.Context, src gsf.Source, opts gsf.Options) (*Iterator, error) {
	it, err := gsf.Grains(src, opts)
	if err != nil {
		return nil, err
	}
	return &Iterator{ctx: ctx, it: it}, nil
}

// Next advances the iterator. It blocks on the underlying gsf.Iterator's
// Next in a goroutine, racing it against ctx.Done.
func (i *Iterator) Next() bool {
	if i.ctx.Err() != nil {
		i.err = i.ctx.Err()
		return false
	}

	ch := make(chan bool, 1)
	go func() { ch <- i.it.Next() }()

	select {
	case <-i.ctx.Done():
		i.err = i.ctx.Err()
		return false
	case ok := <-ch:
		return ok
	}
}

// Grain returns the entry produced by the most recent successful Next.
func (i *Iterator) Grain() gsf.Entry { return i.it.Grain() }

// Err returns the error, if any, that stopped iteration: either the
// underlying decode error, or ctx.Err() if the context was cancelled
// first.
func (i *Iterator) Err() error {
	if i.err != nil {
		return i.err
	}
	return i.it.Err()
}

// Close releases the underlying iterator, enabling any lazy data handles
// it produced to be realized.
func (i *Iterator) Close() { i.it.Close() }
