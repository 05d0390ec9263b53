package eixgo

import (
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/eixgo/internal/numio"
)

var (
	// ErrBadMagic is returned when a segment does not start with the
	// cache magic token.
	ErrBadMagic = errors.New("bad magic")

	// ErrUnsupportedVersion is returned when a segment declares a format
	// version this reader does not understand.
	ErrUnsupportedVersion = errors.New("unsupported format version")

	// ErrHeaderNotFound is returned when a segment index is out of range
	// of the segments present in the file.
	ErrHeaderNotFound = errors.New("header not found")

	// ErrTruncatedRecord is returned when fewer bytes remain than a
	// declared length demands.
	ErrTruncatedRecord = errors.New("truncated record")

	// ErrInvalidVarint is returned when a varint has no terminating byte
	// within the decoder's bound or overflows 64 bits.
	ErrInvalidVarint = errors.New("invalid varint")

	// ErrIndexOutOfRange is returned when a record references a pool
	// index at or beyond the owning pool's length.
	ErrIndexOutOfRange = errors.New("pool index out of range")
)

// FormatError reports cache data that does not conform to the format
// contract. It wraps one of the Err* sentinels, so errors.Is works against
// both the sentinel and the FormatError value.
//
// Once a FormatError surfaces mid-traversal, the originating reader's cursor
// is no longer trustworthy and the reader must be discarded; other readers
// and headers on the same Database are unaffected.
type FormatError struct {
	// Segment is the index of the segment being decoded, or -1 when the
	// failure happened before any segment was identified.
	Segment int

	// Offset is the absolute byte offset into the cache file at which
	// decoding stopped.
	Offset int64

	cause error
}

func (e *FormatError) Error() string {
	if e.Segment < 0 {
		return fmt.Sprintf("format error at offset %d: %v", e.Offset, e.cause)
	}
	return fmt.Sprintf("format error in segment %d at offset %d: %v", e.Segment, e.Offset, e.cause)
}

func (e *FormatError) Unwrap() error { return e.cause }

// formatErr builds a FormatError around sentinel with positional context.
func formatErr(segment int, offset int64, sentinel error, format string, args ...any) error {
	detail := fmt.Sprintf(format, args...)
	return &FormatError{
		Segment: segment,
		Offset:  offset,
		cause:   fmt.Errorf("%w: %s", sentinel, detail),
	}
}

// translateError normalizes low-level decode errors into the public error
// surface. Primitive decode failures become FormatErrors carrying the
// position; genuine I/O failures pass through wrapped so callers can still
// reach the underlying os/io error via errors.Is/As.
func translateError(err error, segment int, offset int64, what string) error {
	if err == nil {
		return nil
	}

	var fe *FormatError
	if errors.As(err, &fe) {
		return err
	}

	switch {
	case errors.Is(err, ErrIndexOutOfRange):
		return &FormatError{
			Segment: segment,
			Offset:  offset,
			cause:   fmt.Errorf("%s: %w", what, err),
		}
	case errors.Is(err, numio.ErrInvalidVarint):
		return &FormatError{
			Segment: segment,
			Offset:  offset,
			cause:   fmt.Errorf("%w: %s: %w", ErrInvalidVarint, what, err),
		}
	case errors.Is(err, numio.ErrTruncated), errors.Is(err, numio.ErrStringTooLong):
		return &FormatError{
			Segment: segment,
			Offset:  offset,
			cause:   fmt.Errorf("%w: %s: %w", ErrTruncatedRecord, what, err),
		}
	case errors.Is(err, io.ErrUnexpectedEOF):
		return &FormatError{
			Segment: segment,
			Offset:  offset,
			cause:   fmt.Errorf("%w: %s: %w", ErrTruncatedRecord, what, err),
		}
	case errors.Is(err, io.EOF):
		// A clean EOF that reaches this path means a structure promised
		// more data than the file holds.
		return &FormatError{
			Segment: segment,
			Offset:  offset,
			cause:   fmt.Errorf("%w: %s: unexpected end of file", ErrTruncatedRecord, what),
		}
	}

	return fmt.Errorf("%s: %w", what, err)
}
