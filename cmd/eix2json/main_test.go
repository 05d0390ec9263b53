package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/eixgo"
	"github.com/hupe1980/eixgo/codec"
	"github.com/hupe1980/eixgo/internal/eixtest"
)

// jsonPackage mirrors the marshaled shape of eixgo.Package so dumps can be
// parsed back without an unmarshaler on the read-side types.
type jsonPackage struct {
	Category    string        `json:"category"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Homepage    string        `json:"homepage"`
	Licenses    []string      `json:"licenses"`
	Versions    []jsonVersion `json:"versions"`
}

type jsonVersion struct {
	Version  string   `json:"version"`
	Slot     string   `json:"slot"`
	Keywords []string `json:"keywords"`
	Masks    []string `json:"masks"`
	Use      struct {
		Available []string `json:"available"`
		Default   []string `json:"default"`
	} `json:"use"`
	Depend  string `json:"depend"`
	RDepend string `json:"rdepend"`
	PDepend string `json:"pdepend"`
	Overlay string `json:"overlay"`
	Segment int    `json:"segment"`
}

func openFixture(t *testing.T, segments ...eixtest.Segment) *eixgo.Database {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cache.eix")
	require.NoError(t, os.WriteFile(path, eixtest.Build(segments...), 0o644))

	db, err := eixgo.OpenRead(path)
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestCollectPackages(t *testing.T) {
	db := openFixture(t, eixtest.TwoOverlayFixture()...)

	t.Run("AllSegments", func(t *testing.T) {
		pkgs, err := collectPackages(context.Background(), db, -1)
		require.NoError(t, err)

		atoms := make([]string, 0, len(pkgs))
		for _, pkg := range pkgs {
			atoms = append(atoms, pkg.Atom())
		}
		assert.Equal(t, []string{"app-misc/foo", "app-misc/bar", "app-misc/foo"}, atoms)
	})

	t.Run("SingleSegment", func(t *testing.T) {
		pkgs, err := collectPackages(context.Background(), db, 1)
		require.NoError(t, err)

		require.Len(t, pkgs, 2)
		assert.Equal(t, "bar", pkgs[0].Name)
		assert.Equal(t, "foo", pkgs[1].Name)
		for _, pkg := range pkgs {
			for _, v := range pkg.Versions {
				assert.Equal(t, 1, v.Segment)
			}
		}
	})

	t.Run("SegmentOutOfRange", func(t *testing.T) {
		_, err := collectPackages(context.Background(), db, 7)
		require.ErrorIs(t, err, eixgo.ErrHeaderNotFound)
	})
}

// TestDumpConsistency decodes a cache, dumps it, re-parses the JSON, and
// compares the round-tripped fields against the decoded packages.
func TestDumpConsistency(t *testing.T) {
	db := openFixture(t, eixtest.BasicFixture())

	pkgs, err := collectPackages(context.Background(), db, -1)
	require.NoError(t, err)
	require.NotEmpty(t, pkgs)

	data, err := encodePackages(codec.Default, pkgs, false)
	require.NoError(t, err)

	var parsed []jsonPackage
	require.NoError(t, json.Unmarshal(data, &parsed))

	require.Len(t, parsed, len(pkgs), "number of packages differs")

	for i, pkg := range pkgs {
		ref := parsed[i]
		assert.Equal(t, pkg.Name, ref.Name, "package name mismatch at index %d", i)
		assert.Equal(t, pkg.Category, ref.Category, "category mismatch for %s", pkg.Name)
		assert.Equal(t, pkg.Description, ref.Description)
		assert.Equal(t, pkg.Licenses, ref.Licenses)
		require.Len(t, ref.Versions, len(pkg.Versions), "version count mismatch for %s", pkg.Name)

		for j, v := range pkg.Versions {
			refV := ref.Versions[j]
			assert.Equal(t, v.ID, refV.Version, "version string mismatch for %s index %d", pkg.Name, j)
			assert.Equal(t, v.Slot, refV.Slot, "slot mismatch for %s %s", pkg.Name, v.ID)
			assert.Equal(t, v.Overlay, refV.Overlay, "overlay mismatch for %s %s", pkg.Name, v.ID)
			assert.Equal(t, v.Keywords.Slice(), refV.Keywords)
			assert.ElementsMatch(t, v.Masks.Names(), refV.Masks)
			assert.Equal(t, v.Depend, refV.Depend)
			assert.Equal(t, v.RDepend, refV.RDepend)
			assert.Equal(t, v.PDepend, refV.PDepend)
		}
	}
}

func TestEncodePackages(t *testing.T) {
	t.Run("BothCodecs", func(t *testing.T) {
		db := openFixture(t, eixtest.BasicFixture())

		pkgs, err := collectPackages(context.Background(), db, -1)
		require.NoError(t, err)

		std, ok := codec.ByName("json")
		require.True(t, ok)
		fast, ok := codec.ByName("go-json")
		require.True(t, ok)

		a, err := encodePackages(std, pkgs, true)
		require.NoError(t, err)
		b, err := encodePackages(fast, pkgs, true)
		require.NoError(t, err)

		assert.JSONEq(t, string(a), string(b))
	})

	t.Run("Pretty", func(t *testing.T) {
		db := openFixture(t, eixtest.BasicFixture())

		pkgs, err := collectPackages(context.Background(), db, -1)
		require.NoError(t, err)

		data, err := encodePackages(codec.Default, pkgs, true)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(string(data), "[\n  {"))
		assert.True(t, strings.HasSuffix(string(data), "]\n"))
	})

	t.Run("Empty", func(t *testing.T) {
		data, err := encodePackages(codec.Default, nil, false)
		require.NoError(t, err)
		assert.Equal(t, "[]\n", string(data))
	})
}
