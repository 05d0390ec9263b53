package eixgo

import (
	"fmt"

	"github.com/hupe1980/eixgo/internal/numio"
)

// ScanStats summarizes one traversal of a segment body.
type ScanStats struct {
	// Categories, Packages and Versions count the records the cursor has
	// passed so far, whether they were decoded or skipped.
	Categories int `json:"categories"`
	Packages   int `json:"packages"`
	Versions   int `json:"versions"`

	// Bytes is the number of body bytes consumed so far.
	Bytes int64 `json:"bytes"`
}

// add accumulates other into s.
func (s *ScanStats) add(other ScanStats) {
	s.Categories += other.Categories
	s.Packages += other.Packages
	s.Versions += other.Versions
	s.Bytes += other.Bytes
}

// PackageReader is a pull-based cursor over the package records of one
// segment. Records are returned in on-disk order. The cursor starts before
// the first category; call NextCategory to enter one, then ReadPackage until
// it returns (nil, nil), then NextCategory again.
//
// Once a call fails, the cursor position is unknown and every subsequent
// call returns the same error; discard the reader. Other readers on the same
// Database are unaffected. A PackageReader is not safe for concurrent use.
type PackageReader struct {
	h    *Header
	r    *numio.Reader
	base int64

	catsLeft uint64
	pkgsLeft uint64
	cur      Category

	err error

	stats ScanStats
}

// NewPackageReader positions a new cursor at the start of the segment body
// described by h and reads the declared category count.
func NewPackageReader(db *Database, h *Header) (*PackageReader, error) {
	if db == nil || h == nil {
		return nil, fmt.Errorf("new package reader: nil database or header")
	}

	r := numio.NewReader(db.section(h.BodyOffset, h.BodyLen), db.maxStringLen)
	count, err := r.Uvarint()
	if err != nil {
		return nil, translateError(err, h.Segment, h.BodyOffset+r.Offset(), "category count")
	}

	return &PackageReader{
		h:        h,
		r:        r,
		base:     h.BodyOffset,
		catsLeft: count,
	}, nil
}

// NextCategory advances the cursor to the next category, skipping any
// packages not yet read in the current one. It returns false once every
// declared category has been visited.
func (pr *PackageReader) NextCategory() (bool, error) {
	if pr.err != nil {
		return false, pr.err
	}

	for pr.pkgsLeft > 0 {
		nv, err := skipPackage(pr.r, pr.h, pr.base)
		if err != nil {
			return false, pr.fail(err)
		}
		pr.pkgsLeft--
		pr.stats.Packages++
		pr.stats.Versions += nv
	}

	if pr.catsLeft == 0 {
		pr.cur = Category{}
		return false, nil
	}

	name, err := pr.r.String()
	if err != nil {
		return false, pr.fail(translateError(err, pr.h.Segment, pr.pos(), "category name"))
	}
	count, err := pr.r.Uvarint()
	if err != nil {
		return false, pr.fail(translateError(err, pr.h.Segment, pr.pos(), "category package count"))
	}

	pr.catsLeft--
	pr.pkgsLeft = count
	pr.cur = Category{Name: name, PackageCount: int(count)}
	pr.stats.Categories++
	return true, nil
}

// Category returns the name of the category the cursor is inside. It is
// empty before the first NextCategory call and after the last category.
func (pr *PackageReader) Category() string {
	return pr.cur.Name
}

// Remaining returns how many packages of the current category have not been
// read yet. Before the first NextCategory call it is zero.
func (pr *PackageReader) Remaining() int {
	return int(pr.pkgsLeft)
}

// ReadPackage decodes the next package of the current category, including
// all of its versions. It returns (nil, nil) when the current category is
// exhausted, and also before the first NextCategory call.
func (pr *PackageReader) ReadPackage() (*Package, error) {
	if pr.err != nil {
		return nil, pr.err
	}
	if pr.pkgsLeft == 0 {
		return nil, nil
	}

	p, err := decodePackage(pr.r, pr.h, pr.base, pr.cur.Name)
	if err != nil {
		return nil, pr.fail(err)
	}

	pr.pkgsLeft--
	pr.stats.Packages++
	pr.stats.Versions += len(p.Versions)
	return p, nil
}

// Categories drains the reader and returns every remaining category record
// with its declared package count. Package bodies are skipped, not decoded.
func (pr *PackageReader) Categories() ([]Category, error) {
	var out []Category
	for {
		ok, err := pr.NextCategory()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, pr.cur)
	}
}

// Stats returns the traversal counters accumulated so far.
func (pr *PackageReader) Stats() ScanStats {
	s := pr.stats
	s.Bytes = pr.r.Offset()
	return s
}

// Err returns the latched error, if any.
func (pr *PackageReader) Err() error {
	return pr.err
}

// fail latches err so every later call reports the same failure.
func (pr *PackageReader) fail(err error) error {
	pr.err = err
	return err
}

// pos returns the absolute file offset of the cursor.
func (pr *PackageReader) pos() int64 {
	return pr.base + pr.r.Offset()
}

// scanEntries walks every remaining package record, calling fn with the
// owning category, the package name and the absolute file offset of the
// record start. Package bodies are skipped, not decoded; fn returning an
// error aborts the walk.
func (pr *PackageReader) scanEntries(fn func(category, name string, off int64) error) error {
	for {
		ok, err := pr.NextCategory()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		for pr.pkgsLeft > 0 {
			off := pr.pos()
			name, err := pr.r.String()
			if err != nil {
				return pr.fail(translateError(err, pr.h.Segment, pr.pos(), "package name"))
			}
			nv, err := skipPackageBody(pr.r, pr.h, pr.base)
			if err != nil {
				return pr.fail(err)
			}
			pr.pkgsLeft--
			pr.stats.Packages++
			pr.stats.Versions += nv
			if err := fn(pr.cur.Name, name, off); err != nil {
				return err
			}
		}
	}
}

// Package record wire layout, in order: name string, description string,
// homepage string, license reference list (varint count, then that many
// license pool indices), version list (varint count, then that many version
// records).
func decodePackage(r *numio.Reader, h *Header, base int64, category string) (*Package, error) {
	p := &Package{Category: category}

	var err error
	if p.Name, err = r.String(); err != nil {
		return nil, translateError(err, h.Segment, base+r.Offset(), "package name")
	}
	if p.Description, err = r.String(); err != nil {
		return nil, translateError(err, h.Segment, base+r.Offset(), "package description")
	}
	if p.Homepage, err = r.String(); err != nil {
		return nil, translateError(err, h.Segment, base+r.Offset(), "package homepage")
	}

	nlic, err := r.Uvarint()
	if err != nil {
		return nil, translateError(err, h.Segment, base+r.Offset(), "license count")
	}
	if nlic > 0 {
		prealloc := nlic
		if prealloc > maxPoolPrealloc {
			prealloc = maxPoolPrealloc
		}
		p.Licenses = make([]string, 0, prealloc)
		for i := uint64(0); i < nlic; i++ {
			ref, err := r.Uvarint()
			if err != nil {
				return nil, translateError(err, h.Segment, base+r.Offset(), "license reference")
			}
			s, err := h.Licenses.Lookup(ref)
			if err != nil {
				return nil, translateError(err, h.Segment, base+r.Offset(), "license reference")
			}
			p.Licenses = append(p.Licenses, s)
		}
	}

	nver, err := r.Uvarint()
	if err != nil {
		return nil, translateError(err, h.Segment, base+r.Offset(), "version count")
	}
	if nver > 0 {
		prealloc := nver
		if prealloc > maxPoolPrealloc {
			prealloc = maxPoolPrealloc
		}
		p.Versions = make([]*Version, 0, prealloc)
		for i := uint64(0); i < nver; i++ {
			v, err := decodeVersion(r, h, base)
			if err != nil {
				return nil, err
			}
			p.Versions = append(p.Versions, v)
		}
	}

	return p, nil
}

// decodePackageAt decodes the package record starting at absolute file
// offset off inside the segment described by h.
func decodePackageAt(db *Database, h *Header, off int64, category string) (*Package, error) {
	r := numio.NewReader(db.section(off, h.End()-off), db.maxStringLen)
	return decodePackage(r, h, off, category)
}

// skipPackage discards one whole package record and reports how many version
// records it skipped.
func skipPackage(r *numio.Reader, h *Header, base int64) (int, error) {
	if err := r.SkipString(); err != nil {
		return 0, translateError(err, h.Segment, base+r.Offset(), "package name")
	}
	return skipPackageBody(r, h, base)
}

// skipPackageBody discards everything after the package name. Pool
// references are not resolved here; a later full decode of the same record
// still performs every bounds check.
func skipPackageBody(r *numio.Reader, h *Header, base int64) (int, error) {
	for _, what := range []string{"package description", "package homepage"} {
		if err := r.SkipString(); err != nil {
			return 0, translateError(err, h.Segment, base+r.Offset(), what)
		}
	}

	nlic, err := r.Uvarint()
	if err != nil {
		return 0, translateError(err, h.Segment, base+r.Offset(), "license count")
	}
	for i := uint64(0); i < nlic; i++ {
		if _, err := r.Uvarint(); err != nil {
			return 0, translateError(err, h.Segment, base+r.Offset(), "license reference")
		}
	}

	nver, err := r.Uvarint()
	if err != nil {
		return 0, translateError(err, h.Segment, base+r.Offset(), "version count")
	}
	for i := uint64(0); i < nver; i++ {
		if err := skipVersion(r, h, base); err != nil {
			return 0, err
		}
	}
	return int(nver), nil
}
