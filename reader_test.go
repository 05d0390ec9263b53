package eixgo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/eixgo/internal/eixtest"
)

// readAll drains one segment through a fresh reader, failing the test on any
// decode error.
func readAll(t *testing.T, db *Database, h *Header) []*Package {
	t.Helper()

	pr, err := NewPackageReader(db, h)
	require.NoError(t, err)

	var out []*Package
	for {
		ok, err := pr.NextCategory()
		require.NoError(t, err)
		if !ok {
			return out
		}
		for {
			p, err := pr.ReadPackage()
			require.NoError(t, err)
			if p == nil {
				break
			}
			out = append(out, p)
		}
	}
}

func TestPackageReader_OnDiskOrder(t *testing.T) {
	db := openFixture(t, eixtest.BasicFixture())
	h, err := db.ReadHeader(0)
	require.NoError(t, err)

	pkgs := readAll(t, db, h)
	require.Len(t, pkgs, 2)

	vim := pkgs[0]
	assert.Equal(t, "app-editors", vim.Category)
	assert.Equal(t, "vim", vim.Name)
	assert.Equal(t, "app-editors/vim", vim.Atom())
	assert.Equal(t, "Vim, an improved vi-style text editor", vim.Description)
	assert.Equal(t, "https://www.vim.org", vim.Homepage)
	assert.Equal(t, []string{"vim"}, vim.Licenses)
	require.Len(t, vim.Versions, 2)
	assert.Equal(t, "8.2", vim.Versions[0].ID)
	assert.Equal(t, "9.0", vim.Versions[1].ID)

	rust := pkgs[1]
	assert.Equal(t, "dev-lang/rust", rust.Atom())
	assert.Equal(t, []string{"MIT", "Apache-2.0"}, rust.Licenses)
	require.Len(t, rust.Versions, 1)
	assert.Equal(t, "1.70.0", rust.Versions[0].ID)
}

func TestPackageReader_DeclaredCounts(t *testing.T) {
	db := openFixture(t, eixtest.TwoOverlayFixture()...)

	headers, err := db.Headers()
	require.NoError(t, err)

	wantCats := []int{1, 1}
	wantPkgs := []int{1, 2}
	for i, h := range headers {
		pr, err := NewPackageReader(db, h)
		require.NoError(t, err)

		var cats, pkgs int
		for {
			ok, err := pr.NextCategory()
			require.NoError(t, err)
			if !ok {
				break
			}
			cats++
			declared := pr.Remaining()
			var read int
			for {
				p, err := pr.ReadPackage()
				require.NoError(t, err)
				if p == nil {
					break
				}
				read++
			}
			assert.Equal(t, declared, read)
			pkgs += read
		}
		assert.Equal(t, wantCats[i], cats)
		assert.Equal(t, wantPkgs[i], pkgs)

		// The declared counters are exhausted exactly at the end of the
		// body.
		st := pr.Stats()
		assert.Equal(t, h.BodyLen, st.Bytes)
	}
}

func TestPackageReader_BeforeFirstCategory(t *testing.T) {
	db := openFixture(t, eixtest.BasicFixture())
	h, err := db.ReadHeader(0)
	require.NoError(t, err)

	pr, err := NewPackageReader(db, h)
	require.NoError(t, err)

	// No category entered yet, so there is no package to read.
	p, err := pr.ReadPackage()
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Empty(t, pr.Category())
	assert.Zero(t, pr.Remaining())
}

func TestPackageReader_CategoryEnd(t *testing.T) {
	db := openFixture(t, eixtest.BasicFixture())
	h, err := db.ReadHeader(0)
	require.NoError(t, err)

	pr, err := NewPackageReader(db, h)
	require.NoError(t, err)

	ok, err := pr.NextCategory()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "app-editors", pr.Category())

	p, err := pr.ReadPackage()
	require.NoError(t, err)
	require.NotNil(t, p)

	// Category exhausted: nil sentinel, repeatable.
	for range 3 {
		p, err = pr.ReadPackage()
		require.NoError(t, err)
		assert.Nil(t, p)
	}
}

func TestPackageReader_SkipCategory(t *testing.T) {
	db := openFixture(t, eixtest.BasicFixture())
	h, err := db.ReadHeader(0)
	require.NoError(t, err)

	pr, err := NewPackageReader(db, h)
	require.NoError(t, err)

	// Enter the first category and leave without reading its package.
	ok, err := pr.NextCategory()
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = pr.NextCategory()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "dev-lang", pr.Category())

	p, err := pr.ReadPackage()
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "dev-lang/rust", p.Atom())

	ok, err = pr.NextCategory()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, pr.Category())

	// Skipped packages still show up in the traversal counters.
	st := pr.Stats()
	assert.Equal(t, 2, st.Categories)
	assert.Equal(t, 2, st.Packages)
	assert.Equal(t, 3, st.Versions)
}

func TestPackageReader_Categories(t *testing.T) {
	db := openFixture(t, eixtest.BasicFixture())
	h, err := db.ReadHeader(0)
	require.NoError(t, err)

	pr, err := NewPackageReader(db, h)
	require.NoError(t, err)

	cats, err := pr.Categories()
	require.NoError(t, err)
	assert.Equal(t, []Category{
		{Name: "app-editors", PackageCount: 1},
		{Name: "dev-lang", PackageCount: 1},
	}, cats)
}

func TestPackageReader_StickyError(t *testing.T) {
	img := eixtest.Build(eixtest.BasicFixture())
	img = img[:len(img)-3]

	path := filepath.Join(t.TempDir(), "cache.eix")
	require.NoError(t, os.WriteFile(path, img, 0o644))

	db, err := OpenRead(path)
	require.NoError(t, err)
	defer db.Close()

	h, err := db.ReadHeader(0)
	require.NoError(t, err)

	pr, err := NewPackageReader(db, h)
	require.NoError(t, err)

	var firstErr error
	for firstErr == nil {
		ok, err := pr.NextCategory()
		if err != nil {
			firstErr = err
			break
		}
		if !ok {
			break
		}
		for {
			p, err := pr.ReadPackage()
			if err != nil {
				firstErr = err
				break
			}
			if p == nil {
				break
			}
		}
	}
	require.ErrorIs(t, firstErr, ErrTruncatedRecord)

	// The cursor is poisoned: every further call reports the same failure.
	_, err = pr.ReadPackage()
	assert.Equal(t, firstErr, err)
	_, err = pr.NextCategory()
	assert.Equal(t, firstErr, err)
	assert.Equal(t, firstErr, pr.Err())
}

func TestNewPackageReader_NilArgs(t *testing.T) {
	db := openFixture(t, eixtest.BasicFixture())

	_, err := NewPackageReader(db, nil)
	assert.Error(t, err)

	_, err = NewPackageReader(nil, &Header{})
	assert.Error(t, err)
}
