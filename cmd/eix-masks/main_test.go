package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/eixgo"
	"github.com/hupe1980/eixgo/internal/eixtest"
)

func openFixture(t *testing.T, segments ...eixtest.Segment) *eixgo.Database {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cache.eix")
	require.NoError(t, os.WriteFile(path, eixtest.Build(segments...), 0o644))

	db, err := eixgo.OpenRead(path)
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return db
}

func maskFixture() eixtest.Segment {
	return eixtest.Segment{
		Overlay:  "/var/db/repos/gentoo",
		Keywords: []string{"amd64"},
		Slots:    []string{"2"},
		Categories: []eixtest.Category{{
			Name: "sys-apps",
			Packages: []eixtest.Package{{
				Name: "tool",
				Versions: []eixtest.Version{
					{ID: "1.0", Keywords: []string{"amd64"}},
					{ID: "2.0", Slot: "2", Keywords: []string{"amd64"}, Masks: byte(eixgo.MaskPackage)},
					{ID: "3.0", Slot: "2", Keywords: []string{"amd64"}, Masks: byte(eixgo.MaskPackage | eixgo.MaskProfile)},
				},
			}},
		}},
	}
}

func TestListVersions(t *testing.T) {
	db := openFixture(t, maskFixture())

	t.Run("All", func(t *testing.T) {
		var buf bytes.Buffer

		n, err := listVersions(context.Background(), db, &buf, false)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		want := "sys-apps/tool 1.0 - 0 /var/db/repos/gentoo\n" +
			"sys-apps/tool 2.0 package 2 /var/db/repos/gentoo\n" +
			"sys-apps/tool 3.0 package,profile 2 /var/db/repos/gentoo\n"
		assert.Equal(t, want, buf.String())
	})

	t.Run("MaskedOnly", func(t *testing.T) {
		var buf bytes.Buffer

		n, err := listVersions(context.Background(), db, &buf, true)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		want := "sys-apps/tool 2.0 package 2 /var/db/repos/gentoo\n" +
			"sys-apps/tool 3.0 package,profile 2 /var/db/repos/gentoo\n"
		assert.Equal(t, want, buf.String())
	})
}

func TestListVersions_MultiSegment(t *testing.T) {
	db := openFixture(t, eixtest.TwoOverlayFixture()...)

	var buf bytes.Buffer

	n, err := listVersions(context.Background(), db, &buf, false)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	want := "app-misc/foo 1.0 - 0 /var/db/repos/gentoo\n" +
		"app-misc/bar 0.1 - 0 /var/db/repos/guru\n" +
		"app-misc/foo 1.1 - 0 /var/db/repos/guru\n"
	assert.Equal(t, want, buf.String())
}
