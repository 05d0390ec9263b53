// Package eixtest builds cache images for tests. Fixtures are declared as
// plain structs with pool entries referenced by name; Encode resolves the
// names to pool indices and renders the wire bytes.
//
// There is deliberately no production encode path; this package is the only
// writer and lives under internal so it cannot leak into the public API.
package eixtest

import (
	"fmt"

	"github.com/hupe1980/eixgo/internal/numio"
)

var magic = []byte("eix\n")

// FormatVersion is the version stamp Encode writes unless the segment
// overrides it.
const FormatVersion = 1

// Version declares one version record. Keywords, Available and Enabled
// reference the segment pools by name; Slot is either empty / "0" for the
// unslotted default or a name from the slot pool.
type Version struct {
	ID        string
	Slot      string
	Keywords  []string
	Masks     byte
	Available []string
	Enabled   []string
	Depend    string
	RDepend   string
	PDepend   string
}

// Package declares one package record. Licenses reference the license pool
// by name.
type Package struct {
	Name        string
	Description string
	Homepage    string
	Licenses    []string
	Versions    []Version
}

// Category declares one category record.
type Category struct {
	Name     string
	Packages []Package
}

// Segment declares one segment: its four interning pools, the overlay it
// describes and the category tree of its body.
type Segment struct {
	// Version overrides the format version stamp when non-zero.
	Version uint64

	Overlay  string
	Licenses []string
	Keywords []string
	UseFlags []string
	Slots    []string

	Categories []Category
}

// Encode renders the segment to wire bytes: magic, version, the four pools,
// the overlay, the body length and the body.
func (s Segment) Encode() []byte {
	version := s.Version
	if version == 0 {
		version = FormatVersion
	}

	var out []byte
	out = append(out, magic...)
	out = numio.AppendUvarint(out, version)
	for _, pool := range [][]string{s.Licenses, s.Keywords, s.UseFlags, s.Slots} {
		out = appendPool(out, pool)
	}
	out = numio.AppendString(out, s.Overlay)

	body := s.encodeBody()
	out = numio.AppendUvarint(out, uint64(len(body)))
	return append(out, body...)
}

// Build concatenates the segments into one cache image.
func Build(segments ...Segment) []byte {
	var out []byte
	for _, s := range segments {
		out = append(out, s.Encode()...)
	}
	return out
}

func (s Segment) encodeBody() []byte {
	var body []byte
	body = numio.AppendUvarint(body, uint64(len(s.Categories)))
	for _, c := range s.Categories {
		body = numio.AppendString(body, c.Name)
		body = numio.AppendUvarint(body, uint64(len(c.Packages)))
		for _, p := range c.Packages {
			body = s.appendPackage(body, p)
		}
	}
	return body
}

func (s Segment) appendPackage(dst []byte, p Package) []byte {
	dst = numio.AppendString(dst, p.Name)
	dst = numio.AppendString(dst, p.Description)
	dst = numio.AppendString(dst, p.Homepage)

	dst = numio.AppendUvarint(dst, uint64(len(p.Licenses)))
	for _, lic := range p.Licenses {
		dst = numio.AppendUvarint(dst, uint64(poolIndex(s.Licenses, lic, "license")))
	}

	dst = numio.AppendUvarint(dst, uint64(len(p.Versions)))
	for _, v := range p.Versions {
		dst = s.appendVersion(dst, v)
	}
	return dst
}

func (s Segment) appendVersion(dst []byte, v Version) []byte {
	dst = numio.AppendString(dst, v.ID)

	switch v.Slot {
	case "", "0":
		dst = numio.AppendUvarint(dst, 0)
	default:
		dst = numio.AppendUvarint(dst, uint64(poolIndex(s.Slots, v.Slot, "slot"))+1)
	}

	dst = numio.AppendPlane(dst, len(s.Keywords), poolIndices(s.Keywords, v.Keywords, "keyword"))
	dst = append(dst, v.Masks)
	dst = numio.AppendPlane(dst, len(s.UseFlags), poolIndices(s.UseFlags, v.Available, "useflag"))
	dst = numio.AppendPlane(dst, len(s.UseFlags), poolIndices(s.UseFlags, v.Enabled, "useflag"))

	dst = numio.AppendString(dst, v.Depend)
	dst = numio.AppendString(dst, v.RDepend)
	dst = numio.AppendString(dst, v.PDepend)
	return dst
}

func appendPool(dst []byte, pool []string) []byte {
	dst = numio.AppendUvarint(dst, uint64(len(pool)))
	for _, s := range pool {
		dst = numio.AppendString(dst, s)
	}
	return dst
}

func poolIndex(pool []string, entry, what string) int {
	for i, e := range pool {
		if e == entry {
			return i
		}
	}
	panic(fmt.Sprintf("eixtest: %s %q not in pool %v", what, entry, pool))
}

func poolIndices(pool, entries []string, what string) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = poolIndex(pool, e, what)
	}
	return out
}

// BasicFixture returns one main-tree segment holding app-editors/vim with
// versions 8.2 and 9.0 and dev-lang/rust with version 1.70.0, in that
// on-disk order.
func BasicFixture() Segment {
	return Segment{
		Overlay:  "/var/db/repos/gentoo",
		Licenses: []string{"GPL-2", "MIT", "Apache-2.0", "vim"},
		Keywords: []string{"amd64", "~amd64", "arm64", "~arm64", "x86"},
		UseFlags: []string{"X", "acl", "nls", "python", "lua"},
		Slots:    []string{"1.70"},
		Categories: []Category{
			{
				Name: "app-editors",
				Packages: []Package{
					{
						Name:        "vim",
						Description: "Vim, an improved vi-style text editor",
						Homepage:    "https://www.vim.org",
						Licenses:    []string{"vim"},
						Versions: []Version{
							{
								ID:        "8.2",
								Keywords:  []string{"amd64", "arm64", "x86"},
								Available: []string{"X", "acl", "nls", "python", "lua"},
								Enabled:   []string{"acl", "nls"},
								Depend:    ">=sys-libs/ncurses-5.2-r2:0=",
								RDepend:   ">=sys-libs/ncurses-5.2-r2:0=",
							},
							{
								ID:        "9.0",
								Keywords:  []string{"amd64", "~arm64"},
								Available: []string{"X", "acl", "nls", "python", "lua"},
								Enabled:   []string{"acl"},
								Depend:    ">=sys-libs/ncurses-5.2-r2:0=",
								RDepend:   ">=sys-libs/ncurses-5.2-r2:0=",
								PDepend:   "app-vim/gentoo-syntax",
							},
						},
					},
				},
			},
			{
				Name: "dev-lang",
				Packages: []Package{
					{
						Name:        "rust",
						Description: "Systems programming language",
						Homepage:    "https://www.rust-lang.org",
						Licenses:    []string{"MIT", "Apache-2.0"},
						Versions: []Version{
							{
								ID:        "1.70.0",
								Slot:      "1.70",
								Keywords:  []string{"amd64", "~arm64"},
								Available: []string{"nls"},
								Enabled:   []string{"nls"},
								Depend:    ">=dev-lang/llvm-16",
								RDepend:   ">=app-eselect/eselect-rust-20190311",
							},
						},
					},
				},
			},
		},
	}
}

// TwoOverlayFixture returns two segments that both carry app-misc/foo, the
// first from the main tree, the second from an overlay with a newer version.
func TwoOverlayFixture() []Segment {
	return []Segment{
		{
			Overlay:  "/var/db/repos/gentoo",
			Licenses: []string{"GPL-2"},
			Keywords: []string{"amd64", "~amd64"},
			UseFlags: []string{"doc"},
			Categories: []Category{
				{
					Name: "app-misc",
					Packages: []Package{
						{
							Name:        "foo",
							Description: "Example utility",
							Licenses:    []string{"GPL-2"},
							Versions: []Version{
								{ID: "1.0", Keywords: []string{"amd64"}},
							},
						},
					},
				},
			},
		},
		{
			Overlay:  "/var/db/repos/guru",
			Licenses: []string{"GPL-2"},
			Keywords: []string{"amd64", "~amd64"},
			UseFlags: []string{"doc"},
			Categories: []Category{
				{
					Name: "app-misc",
					Packages: []Package{
						{
							Name:        "bar",
							Description: "Unrelated package",
							Licenses:    []string{"GPL-2"},
							Versions: []Version{
								{ID: "0.1", Keywords: []string{"~amd64"}},
							},
						},
						{
							Name:        "foo",
							Description: "Example utility, overlay build",
							Licenses:    []string{"GPL-2"},
							Versions: []Version{
								{ID: "1.1", Keywords: []string{"~amd64"}, Available: []string{"doc"}},
							},
						},
					},
				},
			},
		},
	}
}
