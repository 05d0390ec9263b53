// Command eix2sqlite exports a package cache into a SQLite database so the
// contents can be queried with plain SQL.
//
// The pure Go driver (modernc.org/sqlite) is used by default; build with
// -tags cgo_sqlite to link against mattn/go-sqlite3 instead.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/hupe1980/eixgo"
)

var cli struct {
	Path    string `arg:"" help:"Cache file to read (plain or gzip/zstd/lz4/xz)." type:"existingfile"`
	Out     string `short:"o" required:"" help:"SQLite database file to create." type:"path"`
	Force   bool   `short:"f" help:"Overwrite the output file if it exists."`
	Verbose bool   `short:"v" help:"Log export progress to stderr."`
}

const schema = `
CREATE TABLE segments (
	id      INTEGER PRIMARY KEY,
	overlay TEXT NOT NULL
);

CREATE TABLE packages (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	category    TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	homepage    TEXT NOT NULL DEFAULT '',
	licenses    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE versions (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	package_id    INTEGER NOT NULL REFERENCES packages(id),
	segment       INTEGER NOT NULL REFERENCES segments(id),
	version       TEXT NOT NULL,
	slot          TEXT NOT NULL,
	keywords      TEXT NOT NULL DEFAULT '',
	masks         TEXT NOT NULL DEFAULT '',
	use_available TEXT NOT NULL DEFAULT '',
	use_default   TEXT NOT NULL DEFAULT '',
	depend        TEXT NOT NULL DEFAULT '',
	rdepend       TEXT NOT NULL DEFAULT '',
	pdepend       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX idx_packages_atom ON packages(category, name);
CREATE INDEX idx_versions_package ON versions(package_id);
`

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("eix2sqlite"),
		kong.Description("Export an eix package cache into a SQLite database."),
		kong.UsageOnError(),
	)
	kctx.FatalIfErrorf(run())
}

func run() error {
	logger := eixgo.NoopLogger()
	if cli.Verbose {
		logger = eixgo.NewTextLogger(slog.LevelDebug)
	}

	if _, err := os.Stat(cli.Out); err == nil {
		if !cli.Force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cli.Out)
		}
		if err := os.Remove(cli.Out); err != nil {
			return err
		}
	}

	src, err := eixgo.OpenRead(cli.Path, eixgo.WithLogger(logger))
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := sql.Open(sqliteDriver, cli.Out)
	if err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	defer dst.Close()

	n, err := export(context.Background(), src, dst)
	if err != nil {
		return err
	}

	fmt.Printf("Exported %d packages to %s\n", n, cli.Out)
	return nil
}

// export copies every segment, package and version from src into dst and
// returns the number of packages written. All rows are inserted in one
// transaction so a failed export leaves no partial data behind.
func export(ctx context.Context, src *eixgo.Database, dst *sql.DB) (int, error) {
	if _, err := dst.ExecContext(ctx, schema); err != nil {
		return 0, fmt.Errorf("create schema: %w", err)
	}

	headers, err := src.Headers()
	if err != nil {
		return 0, err
	}

	tx, err := dst.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, h := range headers {
		if _, err := tx.ExecContext(ctx, "INSERT INTO segments (id, overlay) VALUES (?, ?)", h.Segment, h.Overlay); err != nil {
			return 0, err
		}
	}

	insertPkg, err := tx.PrepareContext(ctx,
		"INSERT INTO packages (category, name, description, homepage, licenses) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer insertPkg.Close()

	insertVer, err := tx.PrepareContext(ctx, `INSERT INTO versions
		(package_id, segment, version, slot, keywords, masks, use_available, use_default, depend, rdepend, pdepend)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer insertVer.Close()

	packages := 0

	err = src.Scan(ctx, func(pkg *eixgo.Package) error {
		res, err := insertPkg.ExecContext(ctx,
			pkg.Category, pkg.Name, pkg.Description, pkg.Homepage, strings.Join(pkg.Licenses, " "))
		if err != nil {
			return err
		}
		pkgID, err := res.LastInsertId()
		if err != nil {
			return err
		}

		for _, v := range pkg.Versions {
			_, err := insertVer.ExecContext(ctx,
				pkgID, v.Segment, v.ID, v.Slot,
				strings.Join(v.Keywords.Slice(), " "),
				strings.Join(v.Masks.Names(), ","),
				strings.Join(v.UseFlags.Available(), " "),
				strings.Join(v.UseFlags.EnabledByDefault(), " "),
				v.Depend, v.RDepend, v.PDepend)
			if err != nil {
				return err
			}
		}

		packages++
		return nil
	})
	if err != nil {
		return 0, err
	}

	return packages, tx.Commit()
}
