/*
NAME
  errors.go - the GSF error taxonomy.

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

import "fmt"

// ErrorKind is a closed taxonomy of GSF decode/encode failure kinds.
type ErrorKind uint8

// Error kinds, per the GSF error handling design.
const (
	KindUnsupportedSignature ErrorKind = iota
	KindWrongFileType
	KindUnsupportedMajorVersion
	KindTruncatedInput
	KindMalformedBlock
	KindDuplicateLocalID
	KindUnknownLocalID
	KindTruncatedPayload
	KindValueOutOfRange
	KindEncoderState
	KindIoError
)

// String names k for diagnostics.
func (k ErrorKind) String() string {
	switch k {
	case KindUnsupportedSignature:
		return "UnsupportedSignature"
	case KindWrongFileType:
		return "WrongFileType"
	case KindUnsupportedMajorVersion:
		return "UnsupportedMajorVersion"
	case KindTruncatedInput:
		return "TruncatedInput"
	case KindMalformedBlock:
		return "MalformedBlock"
	case KindDuplicateLocalID:
		return "DuplicateLocalId"
	case KindUnknownLocalID:
		return "UnknownLocalId"
	case KindTruncatedPayload:
		return "TruncatedPayload"
	case KindValueOutOfRange:
		return "ValueOutOfRange"
	case KindEncoderState:
		return "EncoderState"
	case KindIoError:
		return "IoError"
	default:
		return "Unknown"
	}
}

// Error is the error type returned by every GSF decode/encode operation
// that fails for a taxonomy-classified reason.
type Error struct {
	Kind ErrorKind
	Path string // Dot-separated context, e.g. "head.segm[3]".
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("gsf: %s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("gsf: %s: %v", e.Kind, e.Err)
}

// Unwrap allows errors.Is/errors.As to see through to Err.
func (e *Error) Unwrap() error { return e.Err }

// wrapf builds an *Error of the given kind, wrapping cause with the given
// path/context string.
func wrapf(kind ErrorKind, cause error, path string) *Error {
	return &Error{Kind: kind, Path: path, Err: cause}
}
