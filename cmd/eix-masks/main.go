// Command eix-masks lists the mask state of every version in a package
// cache, one line per version. The masks column names the set flags
// (comma-joined) or "-" when the version is unmasked.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/hupe1980/eixgo"
)

var cli struct {
	Path       string `arg:"" help:"Cache file to read (plain or gzip/zstd/lz4/xz)." type:"existingfile"`
	MaskedOnly bool   `name:"masked-only" help:"List only hard-masked or profile-masked versions."`
	NoHeader   bool   `name:"no-header" help:"Suppress the column header line."`
	Verbose    bool   `short:"v" help:"Log decode progress to stderr."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("eix-masks"),
		kong.Description("List per-version mask flags from an eix package cache."),
		kong.UsageOnError(),
	)
	kctx.FatalIfErrorf(run())
}

func run() error {
	logger := eixgo.NoopLogger()
	if cli.Verbose {
		logger = eixgo.NewTextLogger(slog.LevelDebug)
	}

	db, err := eixgo.OpenRead(cli.Path, eixgo.WithLogger(logger))
	if err != nil {
		return err
	}
	defer db.Close()

	w := bufio.NewWriter(os.Stdout)
	if !cli.NoHeader {
		if _, err := fmt.Fprintln(w, "atom version masks slot overlay"); err != nil {
			return err
		}
	}

	if _, err := listVersions(context.Background(), db, w, cli.MaskedOnly); err != nil {
		return err
	}

	return w.Flush()
}

// listVersions writes one line per version and returns the number of lines
// written. With maskedOnly set, versions with neither mask bit are skipped.
func listVersions(ctx context.Context, db *eixgo.Database, w io.Writer, maskedOnly bool) (int, error) {
	lines := 0

	err := db.Scan(ctx, func(pkg *eixgo.Package) error {
		for _, v := range pkg.Versions {
			if maskedOnly && !v.Masks.Masked() {
				continue
			}
			if _, err := fmt.Fprintf(w, "%s %s %s %s %s\n", pkg.Atom(), v.ID, v.Masks, v.Slot, v.Overlay); err != nil {
				return err
			}
			lines++
		}
		return nil
	})

	return lines, err
}
