package eixgo

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Match is one hit of a package lookup. Hits are reported in ascending
// segment order and are never deduplicated: the same category/name appearing
// in several overlays yields one Match per segment.
type Match struct {
	// Segment is the index of the segment the hit came from; Overlay is
	// that segment's overlay path.
	Segment int    `json:"segment"`
	Overlay string `json:"overlay"`

	Package *Package `json:"package"`
}

// Scan decodes every package in the file in on-disk order and passes each to
// fn. An error returned by fn aborts the scan and is returned verbatim.
func (db *Database) Scan(ctx context.Context, fn func(*Package) error) error {
	start := time.Now()
	stats, err := db.scan(ctx, fn)
	db.metrics.RecordScan(stats.Packages, time.Since(start), err)
	return err
}

func (db *Database) scan(ctx context.Context, fn func(*Package) error) (ScanStats, error) {
	var total ScanStats

	headers, err := db.Headers()
	if err != nil {
		return total, err
	}
	for _, h := range headers {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		st, err := db.scanSegment(h, fn)
		total.add(st)
		db.logger.LogScan(ctx, h.Segment, st, err)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (db *Database) scanSegment(h *Header, fn func(*Package) error) (ScanStats, error) {
	pr, err := NewPackageReader(db, h)
	if err != nil {
		return ScanStats{}, err
	}
	for {
		ok, err := pr.NextCategory()
		if err != nil {
			return pr.Stats(), err
		}
		if !ok {
			return pr.Stats(), nil
		}
		for {
			p, err := pr.ReadPackage()
			if err != nil {
				return pr.Stats(), err
			}
			if p == nil {
				break
			}
			if err := fn(p); err != nil {
				return pr.Stats(), err
			}
		}
	}
}

// Find scans the whole file for packages named category/name. It is the
// one-shot lookup mode: cheap setup, one full pass per call. For repeated
// queries over the same Database build a SearchIndex instead.
//
// A missing package is not an error; Find returns an empty result.
func (db *Database) Find(ctx context.Context, category, name string) ([]Match, error) {
	start := time.Now()
	matches, err := db.find(ctx, category, name)
	db.metrics.RecordFind(len(matches), time.Since(start), err)
	db.logger.LogFind(ctx, category, name, len(matches), err)
	return matches, err
}

func (db *Database) find(ctx context.Context, category, name string) ([]Match, error) {
	headers, err := db.Headers()
	if err != nil {
		return nil, err
	}

	var out []Match
	for _, h := range headers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pr, err := NewPackageReader(db, h)
		if err != nil {
			return nil, err
		}
		err = pr.scanEntries(func(cat, pkg string, off int64) error {
			if cat != category || pkg != name {
				return nil
			}
			p, err := decodePackageAt(db, h, off, cat)
			if err != nil {
				return err
			}
			out = append(out, Match{Segment: h.Segment, Overlay: h.Overlay, Package: p})
			return nil
		})
		db.logger.LogScan(ctx, h.Segment, pr.Stats(), err)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// packageLoc locates one package record inside the file.
type packageLoc struct {
	segment int
	off     int64
}

// SearchIndexOptions configures a SearchIndex.
type SearchIndexOptions struct {
	// BuildConcurrency bounds how many segments are scanned at once while
	// building the index. Values below 1 select the number of CPUs.
	BuildConcurrency int
}

// SearchIndex is the amortized lookup mode: one pass over the file builds an
// in-memory map from category/name to record locations, after which lookups
// cost a map probe plus decoding the matched records.
//
// The index holds offsets, not decoded packages, so it stays small even for
// large caches. It is safe for concurrent use; Build and Find may race
// freely, the first caller pays the build cost.
type SearchIndex struct {
	db *Database

	mu      sync.RWMutex
	built   bool
	index   map[string][]packageLoc
	headers []*Header

	concurrency int
}

// NewSearchIndex creates an index over db. The index is built lazily on
// first use; call Build to pay the cost up front.
func NewSearchIndex(db *Database, optFns ...func(o *SearchIndexOptions)) *SearchIndex {
	opts := SearchIndexOptions{
		BuildConcurrency: runtime.GOMAXPROCS(0),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.BuildConcurrency < 1 {
		opts.BuildConcurrency = runtime.GOMAXPROCS(0)
	}

	return &SearchIndex{
		db:          db,
		concurrency: opts.BuildConcurrency,
	}
}

// WithBuildConcurrency bounds how many segments are scanned in parallel
// while building the index.
func WithBuildConcurrency(n int) func(o *SearchIndexOptions) {
	return func(o *SearchIndexOptions) {
		o.BuildConcurrency = n
	}
}

// Build scans every segment and populates the index. It is idempotent; a
// failed build leaves the index unbuilt so a later call can retry.
func (si *SearchIndex) Build(ctx context.Context) error {
	si.mu.Lock()
	defer si.mu.Unlock()
	if si.built {
		return nil
	}

	start := time.Now()
	stats, err := si.buildLocked(ctx)
	si.db.metrics.RecordScan(stats.Packages, time.Since(start), err)
	if err != nil {
		return err
	}
	si.built = true
	return nil
}

func (si *SearchIndex) buildLocked(ctx context.Context) (ScanStats, error) {
	var total ScanStats

	headers, err := si.db.Headers()
	if err != nil {
		return total, err
	}

	// Each segment is scanned into its own shard so segments can be indexed
	// in parallel without locking.
	shards := make([]map[string][]packageLoc, len(headers))
	segStats := make([]ScanStats, len(headers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(si.concurrency)
	for i, h := range headers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pr, err := NewPackageReader(si.db, h)
			if err != nil {
				return err
			}
			shard := make(map[string][]packageLoc)
			err = pr.scanEntries(func(category, name string, off int64) error {
				key := category + "/" + name
				shard[key] = append(shard[key], packageLoc{segment: h.Segment, off: off})
				return nil
			})
			segStats[i] = pr.Stats()
			si.db.logger.LogScan(gctx, h.Segment, segStats[i], err)
			if err != nil {
				return err
			}
			shards[i] = shard
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, st := range segStats {
			total.add(st)
		}
		return total, err
	}

	// Merge shards in ascending segment order so multi-segment hits come
	// out ordered without sorting at query time.
	index := make(map[string][]packageLoc)
	for i, shard := range shards {
		total.add(segStats[i])
		for key, locs := range shard {
			index[key] = append(index[key], locs...)
		}
	}

	si.index = index
	si.headers = headers
	return total, nil
}

// Find returns every package record named category/name, decoded, in
// ascending segment order. The index is built on first use.
//
// A missing package is not an error; Find returns an empty result.
func (si *SearchIndex) Find(ctx context.Context, category, name string) ([]Match, error) {
	start := time.Now()
	matches, err := si.find(ctx, category, name)
	si.db.metrics.RecordFind(len(matches), time.Since(start), err)
	si.db.logger.LogFind(ctx, category, name, len(matches), err)
	return matches, err
}

func (si *SearchIndex) find(ctx context.Context, category, name string) ([]Match, error) {
	if err := si.Build(ctx); err != nil {
		return nil, err
	}

	si.mu.RLock()
	locs := si.index[category+"/"+name]
	headers := si.headers
	si.mu.RUnlock()

	if len(locs) == 0 {
		return nil, nil
	}
	matches := make([]Match, 0, len(locs))
	for _, loc := range locs {
		h := headers[loc.segment]
		p, err := decodePackageAt(si.db, h, loc.off, category)
		if err != nil {
			return nil, err
		}
		matches = append(matches, Match{Segment: h.Segment, Overlay: h.Overlay, Package: p})
	}
	return matches, nil
}

// Exists reports whether at least one record of category/name is present,
// without decoding any package. The index is built on first use.
func (si *SearchIndex) Exists(ctx context.Context, category, name string) (bool, error) {
	if err := si.Build(ctx); err != nil {
		return false, err
	}

	si.mu.RLock()
	defer si.mu.RUnlock()
	_, ok := si.index[category+"/"+name]
	return ok, nil
}

// Len returns the number of distinct category/name atoms indexed. It is
// zero until the index has been built.
func (si *SearchIndex) Len() int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return len(si.index)
}
