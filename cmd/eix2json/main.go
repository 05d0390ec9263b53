// Command eix2json dumps a package cache as JSON.
//
// By default every segment is decoded in on-disk order and written as one
// JSON array. --segment restricts the dump to a single segment. Output goes
// to stdout unless -o names a file.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"golang.org/x/time/rate"

	"github.com/hupe1980/eixgo"
	"github.com/hupe1980/eixgo/codec"
)

var cli struct {
	Path    string `arg:"" help:"Cache file to read (plain or gzip/zstd/lz4/xz)." type:"existingfile"`
	Segment int    `help:"Dump only this segment (0-based). Negative means all segments." default:"-1"`
	Out     string `short:"o" help:"Write JSON to this file instead of stdout." type:"path"`
	Pretty  bool   `help:"Indent the output."`
	Codec   string `help:"Output codec (json, go-json)." default:"go-json"`
	Verbose bool   `short:"v" help:"Log decode progress to stderr."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("eix2json"),
		kong.Description("Dump an eix package cache as JSON."),
		kong.UsageOnError(),
	)
	kctx.FatalIfErrorf(run())
}

func run() error {
	c, ok := codec.ByName(cli.Codec)
	if !ok {
		return fmt.Errorf("unknown codec %q (want json or go-json)", cli.Codec)
	}

	logger := eixgo.NoopLogger()
	if cli.Verbose {
		logger = eixgo.NewTextLogger(slog.LevelDebug)
	}

	db, err := eixgo.OpenRead(cli.Path, eixgo.WithLogger(logger))
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()

	pkgs, err := collectPackages(ctx, db, cli.Segment)
	if err != nil {
		return err
	}

	data, err := encodePackages(c, pkgs, cli.Pretty)
	if err != nil {
		return err
	}

	if cli.Out != "" {
		return os.WriteFile(cli.Out, data, 0644)
	}
	_, err = os.Stdout.Write(data)
	return err
}

// collectPackages decodes the requested segments into memory. A negative
// segment index selects the whole cache.
func collectPackages(ctx context.Context, db *eixgo.Database, segment int) ([]*eixgo.Package, error) {
	if segment >= 0 {
		return collectSegment(db, segment)
	}

	progress := rate.Sometimes{Interval: time.Second}
	var pkgs []*eixgo.Package

	err := db.Scan(ctx, func(pkg *eixgo.Package) error {
		pkgs = append(pkgs, pkg)
		if cli.Verbose {
			progress.Do(func() {
				fmt.Fprintf(os.Stderr, "eix2json: decoded %d packages\n", len(pkgs))
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return pkgs, nil
}

func collectSegment(db *eixgo.Database, segment int) ([]*eixgo.Package, error) {
	h, err := db.ReadHeader(segment)
	if err != nil {
		return nil, err
	}

	pr, err := eixgo.NewPackageReader(db, h)
	if err != nil {
		return nil, err
	}

	var pkgs []*eixgo.Package
	for {
		ok, err := pr.NextCategory()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		for {
			pkg, err := pr.ReadPackage()
			if err != nil {
				return nil, err
			}
			if pkg == nil {
				break
			}
			pkgs = append(pkgs, pkg)
		}
	}

	return pkgs, nil
}

// encodePackages marshals via the selected codec. Indentation is applied as
// a post-pass so both codecs produce identical pretty output.
func encodePackages(c codec.Codec, pkgs []*eixgo.Package, pretty bool) ([]byte, error) {
	if pkgs == nil {
		pkgs = []*eixgo.Package{}
	}

	data, err := c.Marshal(pkgs)
	if err != nil {
		return nil, fmt.Errorf("marshal packages: %w", err)
	}

	if pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return nil, fmt.Errorf("indent output: %w", err)
		}
		data = buf.Bytes()
	}

	return append(data, '\n'), nil
}
