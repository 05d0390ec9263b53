package eixgo

import (
	"bytes"
	"math"

	"github.com/hupe1980/eixgo/internal/numio"
)

// Magic opens every segment of a cache file.
var Magic = [4]byte{'e', 'i', 'x', '\n'}

// FormatVersion is the only on-disk format version this reader accepts.
const FormatVersion = 1

// Header describes one repository segment: its interning pools, overlay
// identity and body byte-range. Headers are parsed eagerly by ReadHeader and
// live independently of the Database cursor; reading the same index twice
// re-parses from the file.
type Header struct {
	// Version is the format version the segment declares.
	Version uint32

	// The four interning pools, in on-disk order.
	Licenses *StringPool
	Keywords *StringPool
	UseFlags *StringPool
	Slots    *StringPool

	// Overlay is the overlay/repository path of this segment.
	Overlay string

	// Segment is this header's index within the file.
	Segment int

	// BodyOffset is the absolute offset of the first body byte; BodyLen
	// is the declared body length in bytes.
	BodyOffset int64
	BodyLen    int64
}

// End returns the absolute offset of the first byte after this segment.
func (h *Header) End() int64 {
	return h.BodyOffset + h.BodyLen
}

// Pool sizes above this threshold are grown incrementally instead of being
// preallocated, so a corrupt count cannot trigger a giant allocation.
const maxPoolPrealloc = 4096

// readPool decodes one interning pool: a varint count followed by that many
// length-prefixed strings.
func readPool(r *numio.Reader, segment int, base int64, what string) (*StringPool, error) {
	count, err := r.Uvarint()
	if err != nil {
		return nil, translateError(err, segment, base+r.Offset(), what+" count")
	}

	prealloc := count
	if prealloc > maxPoolPrealloc {
		prealloc = maxPoolPrealloc
	}
	entries := make([]string, 0, prealloc)
	for i := uint64(0); i < count; i++ {
		s, err := r.String()
		if err != nil {
			return nil, translateError(err, segment, base+r.Offset(), what)
		}
		entries = append(entries, s)
	}
	return &StringPool{entries: entries}, nil
}

// decodeHeader parses one segment header from r, which must be positioned on
// the segment's magic token. base is the absolute file offset r started at.
func decodeHeader(r *numio.Reader, segment int, base int64) (*Header, error) {
	magic, err := r.Bytes(len(Magic))
	if err != nil {
		return nil, translateError(err, segment, base+r.Offset(), "magic")
	}
	if !bytes.Equal(magic, Magic[:]) {
		return nil, formatErr(segment, base, ErrBadMagic, "got %q, want %q", magic, Magic[:])
	}

	version, err := r.Uvarint()
	if err != nil {
		return nil, translateError(err, segment, base+r.Offset(), "format version")
	}
	if version != FormatVersion {
		return nil, formatErr(segment, base+r.Offset(), ErrUnsupportedVersion, "version %d, supported %d", version, FormatVersion)
	}

	h := &Header{
		Version: uint32(version),
		Segment: segment,
	}

	if h.Licenses, err = readPool(r, segment, base, "license pool"); err != nil {
		return nil, err
	}
	if h.Keywords, err = readPool(r, segment, base, "keyword pool"); err != nil {
		return nil, err
	}
	if h.UseFlags, err = readPool(r, segment, base, "useflag pool"); err != nil {
		return nil, err
	}
	if h.Slots, err = readPool(r, segment, base, "slot pool"); err != nil {
		return nil, err
	}

	if h.Overlay, err = r.String(); err != nil {
		return nil, translateError(err, segment, base+r.Offset(), "overlay path")
	}

	bodyLen, err := r.Uvarint()
	if err != nil {
		return nil, translateError(err, segment, base+r.Offset(), "body length")
	}
	if bodyLen > math.MaxInt64 {
		return nil, formatErr(segment, base+r.Offset(), ErrTruncatedRecord, "body length %d overflows", bodyLen)
	}

	h.BodyOffset = base + r.Offset()
	h.BodyLen = int64(bodyLen)
	return h, nil
}
