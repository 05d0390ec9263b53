package eixgo_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hupe1980/eixgo"
	"github.com/hupe1980/eixgo/internal/eixtest"
)

// writeExampleCache renders a small two-overlay cache for the examples.
func writeExampleCache() (string, func()) {
	dir, err := os.MkdirTemp("", "eixgo-example")
	if err != nil {
		log.Fatal(err)
	}

	path := filepath.Join(dir, "portage.eix")
	if err := os.WriteFile(path, eixtest.Build(eixtest.TwoOverlayFixture()...), 0o644); err != nil {
		log.Fatal(err)
	}
	return path, func() { os.RemoveAll(dir) }
}

// Example_headers demonstrates walking the per-overlay segment headers.
func Example_headers() {
	path, cleanup := writeExampleCache()
	defer cleanup()

	db, err := eixgo.OpenRead(path)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	headers, err := db.Headers()
	if err != nil {
		log.Fatal(err)
	}
	for _, h := range headers {
		fmt.Printf("segment %d: %s\n", h.Segment, h.Overlay)
	}
	// Output:
	// segment 0: /var/db/repos/gentoo
	// segment 1: /var/db/repos/guru
}

// Example_packageReader demonstrates the pull-based cursor over one segment.
func Example_packageReader() {
	path, cleanup := writeExampleCache()
	defer cleanup()

	db, err := eixgo.OpenRead(path)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	h, err := db.ReadHeader(1)
	if err != nil {
		log.Fatal(err)
	}

	pr, err := eixgo.NewPackageReader(db, h)
	if err != nil {
		log.Fatal(err)
	}
	for {
		ok, err := pr.NextCategory()
		if err != nil {
			log.Fatal(err)
		}
		if !ok {
			break
		}
		fmt.Printf("%s (%d packages)\n", pr.Category(), pr.Remaining())
		for {
			p, err := pr.ReadPackage()
			if err != nil {
				log.Fatal(err)
			}
			if p == nil {
				break
			}
			fmt.Printf("  %s %s\n", p.Atom(), p.Versions[0].ID)
		}
	}
	// Output:
	// app-misc (2 packages)
	//   app-misc/bar 0.1
	//   app-misc/foo 1.1
}

// Example_scan demonstrates a full scan across every segment.
func Example_scan() {
	path, cleanup := writeExampleCache()
	defer cleanup()

	db, err := eixgo.OpenRead(path)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	err = db.Scan(context.Background(), func(p *eixgo.Package) error {
		fmt.Printf("%s: %d version(s)\n", p.Atom(), len(p.Versions))
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}
	// Output:
	// app-misc/foo: 1 version(s)
	// app-misc/bar: 1 version(s)
	// app-misc/foo: 1 version(s)
}

// Example_searchIndex demonstrates repeated lookups through the amortized
// in-memory index.
func Example_searchIndex() {
	path, cleanup := writeExampleCache()
	defer cleanup()

	db, err := eixgo.OpenRead(path)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	idx := eixgo.NewSearchIndex(db)

	matches, err := idx.Find(context.Background(), "app-misc", "foo")
	if err != nil {
		log.Fatal(err)
	}
	for _, m := range matches {
		fmt.Printf("%s in %s: %s\n", m.Package.Atom(), m.Overlay, m.Package.Versions[0].ID)
	}
	// Output:
	// app-misc/foo in /var/db/repos/gentoo: 1.0
	// app-misc/foo in /var/db/repos/guru: 1.1
}
