package eixgo

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"

	"github.com/hupe1980/eixgo/internal/numio"
)

// Database is a read-only handle on a package-metadata cache file. It owns
// the file exclusively from OpenRead until Close and is immutable once
// opened: all decoding goes through independent per-reader cursors, so any
// number of headers and readers may be in flight at once.
type Database struct {
	mu sync.Mutex
	f  *os.File // nil for memory-backed (decompressed) caches and after Close

	ra   io.ReaderAt
	size int64
	path string

	logger       *Logger
	metrics      MetricsCollector
	maxStringLen int
}

// OpenRead opens the cache file at path for reading.
//
// Compressed caches (gzip, zstd, lz4, xz) are detected by their leading
// bytes and decompressed fully into memory unless CompressionNone is
// configured; uncompressed caches are read incrementally from disk and never
// loaded whole.
//
// I/O failures are returned as-is (wrapped, reachable via errors.Is/As);
// the file's content is not validated until ReadHeader.
func OpenRead(path string, optFns ...Option) (*Database, error) {
	opts := applyOptions(optFns)

	f, err := os.Open(path)
	if err != nil {
		opts.logger.LogOpen(context.Background(), path, "", err)
		return nil, fmt.Errorf("open cache: %w", err)
	}

	db := &Database{
		f:            f,
		ra:           f,
		path:         path,
		logger:       opts.logger,
		metrics:      opts.metricsCollector,
		maxStringLen: opts.maxStringLen,
	}

	compression := "none"
	if opts.compression == CompressionAuto {
		var hdr [6]byte
		n, err := f.ReadAt(hdr[:], 0)
		if err != nil && err != io.EOF {
			_ = f.Close()
			return nil, fmt.Errorf("sniff cache: %w", err)
		}
		if format := sniffCompression(hdr[:n]); format != "" {
			data, err := decompress(bufio.NewReaderSize(f, 1<<20), format)
			cerr := f.Close()
			if err != nil {
				return nil, fmt.Errorf("decompress %s cache: %w", format, err)
			}
			if cerr != nil {
				return nil, fmt.Errorf("close cache: %w", cerr)
			}
			db.f = nil
			db.ra = bytes.NewReader(data)
			db.size = int64(len(data))
			compression = format
		}
	}

	if db.f != nil {
		st, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("stat cache: %w", err)
		}
		db.size = st.Size()
	}

	db.logger.LogOpen(context.Background(), path, compression, nil)
	return db, nil
}

// Path returns the path the Database was opened with.
func (db *Database) Path() string {
	return db.path
}

// Size returns the byte size of the (decompressed) cache image.
func (db *Database) Size() int64 {
	return db.size
}

// ReadHeader parses the header of segment index. Segments are concatenated
// back-to-back; locating index i skips the declared body lengths of segments
// 0..i-1, so the cost is proportional to the index, not to the body sizes.
//
// An index at or beyond the number of segments in the file fails with
// ErrHeaderNotFound. The returned Header is independent of the Database
// cursor state; calling ReadHeader again for the same index re-parses from
// the file.
func (db *Database) ReadHeader(index int) (*Header, error) {
	start := time.Now()
	h, err := db.readHeader(index)
	db.metrics.RecordHeaderRead(time.Since(start), err)

	overlay := ""
	if h != nil {
		overlay = h.Overlay
	}
	db.logger.LogHeaderRead(context.Background(), index, overlay, err)
	return h, err
}

func (db *Database) readHeader(index int) (*Header, error) {
	if index < 0 {
		return nil, formatErr(-1, 0, ErrHeaderNotFound, "negative segment index %d", index)
	}

	var off int64
	for seg := 0; ; seg++ {
		switch {
		case off == db.size:
			return nil, formatErr(seg, off, ErrHeaderNotFound, "segment index %d, file has %d segments", index, seg)
		case off > db.size:
			return nil, formatErr(seg-1, off, ErrTruncatedRecord, "segment body extends %d bytes past end of file", off-db.size)
		}

		r := numio.NewReader(io.NewSectionReader(db.ra, off, db.size-off), db.maxStringLen)
		h, err := decodeHeader(r, seg, off)
		if err != nil {
			return nil, err
		}
		if seg == index {
			return h, nil
		}
		off = h.End()
	}
}

// Headers walks the file and decodes every segment header in order. On a
// malformed header it returns the headers decoded so far along with the
// error, so intact leading segments stay usable.
func (db *Database) Headers() ([]*Header, error) {
	var out []*Header
	var off int64
	for n := 0; ; n++ {
		switch {
		case off == db.size:
			return out, nil
		case off > db.size:
			return out, formatErr(n-1, off, ErrTruncatedRecord, "segment body extends %d bytes past end of file", off-db.size)
		}

		r := numio.NewReader(io.NewSectionReader(db.ra, off, db.size-off), db.maxStringLen)
		h, err := decodeHeader(r, n, off)
		if err != nil {
			return out, err
		}
		out = append(out, h)
		off = h.End()
	}
}

// Segments walks all headers and returns how many segments the file holds.
// The walk stops at the first malformed header.
func (db *Database) Segments() (int, error) {
	hs, err := db.Headers()
	return len(hs), err
}

// section returns a reader over [off, off+n) of the cache image.
func (db *Database) section(off, n int64) *io.SectionReader {
	return io.NewSectionReader(db.ra, off, n)
}

func sniffCompression(hdr []byte) string {
	switch {
	case len(hdr) >= 2 && hdr[0] == 0x1f && hdr[1] == 0x8b:
		return "gzip"
	case len(hdr) >= 4 && binary.LittleEndian.Uint32(hdr) == 0xFD2FB528:
		return "zstd"
	case len(hdr) >= 4 && binary.LittleEndian.Uint32(hdr) == 0x184D2204:
		return "lz4"
	case len(hdr) >= 6 && bytes.Equal(hdr[:6], []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}):
		return "xz"
	default:
		return ""
	}
}

func decompress(r io.Reader, format string) ([]byte, error) {
	switch format {
	case "gzip":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case "zstd":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case "lz4":
		return io.ReadAll(lz4.NewReader(r))
	case "xz":
		zr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.ReadAll(zr)
	default:
		return nil, fmt.Errorf("unknown compression format %q", format)
	}
}
