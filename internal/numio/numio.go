package numio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrInvalidVarint is returned when a varint has no terminating byte
	// within MaxVarintLen bytes, overflows 64 bits, or is cut off by EOF.
	ErrInvalidVarint = errors.New("invalid varint")

	// ErrTruncated is returned when fewer bytes remain than a declared
	// length demands.
	ErrTruncated = errors.New("truncated data")

	// ErrStringTooLong is returned when a declared string length exceeds
	// the reader's configured cap.
	ErrStringTooLong = errors.New("string length exceeds cap")
)

// MaxVarintLen is the largest number of bytes a 64-bit varint may occupy.
const MaxVarintLen = binary.MaxVarintLen64

// Reader decodes primitive wire types from an underlying stream and counts
// the bytes it consumes. It is not safe for concurrent use.
type Reader struct {
	br     *bufio.Reader
	off    int64
	maxStr int
}

// NewReader wraps r. maxStr caps declared string lengths; zero or negative
// disables the cap.
func NewReader(r io.Reader, maxStr int) *Reader {
	return &Reader{
		br:     bufio.NewReader(r),
		maxStr: maxStr,
	}
}

// Offset returns the number of bytes consumed since construction.
func (r *Reader) Offset() int64 {
	return r.off
}

// Byte reads a single byte. A clean EOF is returned as io.EOF.
func (r *Reader) Byte() (byte, error) {
	b, err := r.br.ReadByte()
	if err != nil {
		return 0, err
	}
	r.off++
	return b, nil
}

// Uvarint decodes one LEB128 unsigned varint: 7-bit groups, least
// significant first, high bit marking continuation.
//
// io.EOF is returned untouched only when no byte was available at all, so
// callers can detect clean record boundaries. EOF after a continuation byte,
// a missing terminator within MaxVarintLen bytes, and 64-bit overflow all
// return ErrInvalidVarint.
func (r *Reader) Uvarint() (uint64, error) {
	var x uint64
	var s uint
	for i := 0; i < MaxVarintLen; i++ {
		b, err := r.br.ReadByte()
		if err != nil {
			if i == 0 && err == io.EOF {
				return 0, io.EOF
			}
			if err == io.EOF {
				return 0, fmt.Errorf("%w: input ends after %d continuation bytes", ErrInvalidVarint, i)
			}
			return 0, err
		}
		r.off++
		if b < 0x80 {
			if i == MaxVarintLen-1 && b > 1 {
				return 0, fmt.Errorf("%w: value overflows 64 bits", ErrInvalidVarint)
			}
			return x | uint64(b)<<s, nil
		}
		x |= uint64(b&0x7f) << s
		s += 7
	}
	return 0, fmt.Errorf("%w: no terminating byte within %d bytes", ErrInvalidVarint, MaxVarintLen)
}

// Bytes reads exactly n bytes. EOF before n bytes arrive is ErrTruncated.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: want %d bytes", ErrTruncated, n)
		}
		return nil, err
	}
	r.off += int64(n)
	return buf, nil
}

// String reads a varint length followed by that many bytes. The bytes are
// preserved as-is; UTF-8 validity is not enforced.
func (r *Reader) String() (string, error) {
	n, err := r.Uvarint()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	if r.maxStr > 0 && n > uint64(r.maxStr) {
		return "", fmt.Errorf("%w: %d > %d", ErrStringTooLong, n, r.maxStr)
	}
	buf, err := r.Bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// SkipString reads a varint length and discards that many bytes without
// allocating. The same cap as String applies.
func (r *Reader) SkipString() error {
	n, err := r.Uvarint()
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	if r.maxStr > 0 && n > uint64(r.maxStr) {
		return fmt.Errorf("%w: %d > %d", ErrStringTooLong, n, r.maxStr)
	}
	return r.Skip(int(n))
}

// Skip discards exactly n bytes. EOF before n bytes arrive is ErrTruncated.
func (r *Reader) Skip(n int) error {
	if n == 0 {
		return nil
	}
	d, err := r.br.Discard(n)
	r.off += int64(d)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("%w: want %d bytes, skipped %d", ErrTruncated, n, d)
		}
		return err
	}
	return nil
}

// PlaneSize returns the number of bytes of a bit plane covering n bits.
func PlaneSize(n int) int {
	return (n + 7) / 8
}

// Plane reads the fixed-width bit plane covering bits many bits and returns
// its raw bytes, least significant bit first within each byte.
func (r *Reader) Plane(bits int) ([]byte, error) {
	return r.Bytes(PlaneSize(bits))
}

// AppendUvarint appends the LEB128 encoding of v to dst. Used by fixture
// builders and round-trip tests.
func AppendUvarint(dst []byte, v uint64) []byte {
	return binary.AppendUvarint(dst, v)
}

// AppendString appends a varint length prefix followed by the bytes of s.
func AppendString(dst []byte, s string) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(s)))
	return append(dst, s...)
}

// AppendPlane appends a bit plane of size PlaneSize(bits) with the given bit
// indices set. Indices at or beyond bits are ignored.
func AppendPlane(dst []byte, bits int, set []int) []byte {
	plane := make([]byte, PlaneSize(bits))
	for _, i := range set {
		if i < 0 || i >= bits {
			continue
		}
		plane[i/8] |= 1 << (i % 8)
	}
	return append(dst, plane...)
}
