package benchmark_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/eixgo/internal/eixtest"
)

// synthSegment renders a deterministic segment of the given shape. Version
// data is spread round-robin over the pools so planes, slot references and
// license references exercise every pool entry.
func synthSegment(overlay string, categories, pkgsPerCat, versionsPerPkg int) eixtest.Segment {
	licenses := []string{"GPL-2", "GPL-3", "MIT", "BSD", "Apache-2.0"}
	keywords := []string{"amd64", "~amd64", "arm64", "~arm64", "x86", "~x86"}
	useFlags := []string{"X", "acl", "debug", "doc", "nls", "python", "ssl", "systemd"}
	slots := []string{"1", "2", "3"}

	seg := eixtest.Segment{
		Overlay:  overlay,
		Licenses: licenses,
		Keywords: keywords,
		UseFlags: useFlags,
		Slots:    slots,
	}

	for c := 0; c < categories; c++ {
		cat := eixtest.Category{Name: fmt.Sprintf("cat-%03d", c)}

		for p := 0; p < pkgsPerCat; p++ {
			pkg := eixtest.Package{
				Name:        fmt.Sprintf("pkg-%04d", p),
				Description: "synthetic package for throughput measurements",
				Homepage:    "https://example.org",
				Licenses:    []string{licenses[(c+p)%len(licenses)]},
			}

			for v := 0; v < versionsPerPkg; v++ {
				slot := ""
				if v%2 == 1 {
					slot = slots[v%len(slots)]
				}
				avail := 1 + (p+v)%len(useFlags)
				enabled := 1 + (p+v)%3
				if enabled > avail {
					enabled = avail
				}
				pkg.Versions = append(pkg.Versions, eixtest.Version{
					ID:        fmt.Sprintf("%d.%d.%d", v+1, p%10, c%10),
					Slot:      slot,
					Keywords:  keywords[:2+(p+v)%4],
					Available: useFlags[:avail],
					Enabled:   useFlags[:enabled],
					Depend:    ">=dev-libs/base-1.0",
					RDepend:   ">=dev-libs/base-1.0",
				})
			}

			cat.Packages = append(cat.Packages, pkg)
		}

		seg.Categories = append(seg.Categories, cat)
	}

	return seg
}

// writeSynthCache writes a cache with the given shape and returns its path.
func writeSynthCache(b *testing.B, segments, categories, pkgsPerCat, versionsPerPkg int) string {
	b.Helper()

	segs := make([]eixtest.Segment, 0, segments)
	for s := 0; s < segments; s++ {
		overlay := fmt.Sprintf("/var/db/repos/overlay-%d", s)
		segs = append(segs, synthSegment(overlay, categories, pkgsPerCat, versionsPerPkg))
	}

	path := filepath.Join(b.TempDir(), "bench.eix")
	if err := os.WriteFile(path, eixtest.Build(segs...), 0o644); err != nil {
		b.Fatalf("write fixture: %v", err)
	}
	return path
}
