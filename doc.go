// Package eixgo reads and searches binary package-metadata caches in the
// eix format.
//
// A cache file is a sequence of segments, one per overlay (package
// repository). Each segment starts with a header holding the format
// version, four interning pools (licenses, keywords, use flags, slots),
// the overlay path and the byte length of the body that follows. Bodies
// hold category records, which hold package records, which embed version
// records. Headers are cheap to decode; bodies are only read on demand.
//
// # Quick Start
//
//	db, err := eixgo.OpenRead("/var/cache/eix/portage.eix")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	h, _ := db.ReadHeader(0)
//	pr, _ := eixgo.NewPackageReader(db, h)
//	for {
//	    ok, err := pr.NextCategory()
//	    if err != nil || !ok {
//	        break
//	    }
//	    for {
//	        p, err := pr.ReadPackage()
//	        if err != nil || p == nil {
//	            break
//	        }
//	        fmt.Println(p.Atom(), len(p.Versions))
//	    }
//	}
//
// # Searching
//
// Two lookup modes cover the two common access patterns:
//
//	// One-shot: no setup, one full pass per query.
//	matches, _ := db.Find(ctx, "app-editors", "vim")
//
//	// Amortized: one pass builds an in-memory index, queries are cheap.
//	idx := eixgo.NewSearchIndex(db)
//	matches, _ = idx.Find(ctx, "app-editors", "vim")
//
// Both modes report hits in ascending segment order and never deduplicate,
// so a package present in several overlays yields one Match per overlay.
//
// # Compressed Caches
//
// OpenRead sniffs the first bytes of the file and transparently inflates
// gzip, zstd, lz4 and xz caches into memory. Pass
// WithCompression(CompressionNone) to skip detection and read the file
// as-is.
//
// # Error Handling
//
// Malformed input never panics. Structural failures are reported as a
// *FormatError wrapping one of the sentinel errors (ErrBadMagic,
// ErrUnsupportedVersion, ErrHeaderNotFound, ErrTruncatedRecord,
// ErrInvalidVarint, ErrIndexOutOfRange) together with the segment index and
// file offset of the failure:
//
//	if errors.Is(err, eixgo.ErrTruncatedRecord) { ... }
//
//	var fe *eixgo.FormatError
//	if errors.As(err, &fe) {
//	    log.Printf("corrupt segment %d at offset %d", fe.Segment, fe.Offset)
//	}
//
// I/O errors from the underlying file pass through unchanged. After a
// FormatError the affected reader must be discarded; other readers on the
// same Database keep working, including readers over other segments of the
// same file.
package eixgo
