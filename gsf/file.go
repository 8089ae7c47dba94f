/*
NAME
  file.go - the GSF file-level model: FileHeader, Segment and Tag.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package gsf implements the Grain Sequence Format: the SSB
// file_type="grsg" specialization that carries sequences of media grains
// from one or more flows, as a progressive encoder and a lazy/eager
// decoder.
package gsf

import (
	"github.com/google/uuid"

	"github.com/ausocean/gsf/ssb/primitive"
)

// FileType is the SSB file-type tag for GSF.
const FileType = "grsg"

// MajorVersion is the GSF major version this package writes, and the
// highest major version it can read (v7 is also accepted, read-only, per
// Open Question 2).
const MajorVersion = 8

// MinorVersion is the GSF minor version this package writes.
const MinorVersion = 0

// Tag is a (key, val) string pair attached to a file or a segment.
type Tag struct {
	Key string
	Val primitive.RawString
}

// FileHead is the file-level metadata carried in the GSF "head" block:
// the file identifier, its creation time, and its file-scoped tags. Its
// segments are tracked separately (see Segment).
type FileHead struct {
	ID      uuid.UUID
	Created primitive.DateTime
	Tags    []Tag
}

// Segment is a (local_id, id, count) triple holding the ordered grains of
// exactly one flow, plus any tags attached to it. Count is -1 when
// unknown at write time (e.g. a streaming, non-seekable sink).
type Segment struct {
	LocalID uint16
	ID      uuid.UUID
	Count   int64
	Tags    []Tag
}
