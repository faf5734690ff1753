// Command beamdxf converts a beam coordinate file into a DXF drawing.
//
//	beamdxf [-o out.dxf] [-sheet name] [-format name] [-markers] [-v] input
//
// The input format is chosen by extension (.xlsx, .csv, .yaml, .json) unless
// -format is given. With -o - the drawing is written to stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/beam-label/backend/internal/dxf"
	"github.com/beam-label/backend/internal/logging"
	"github.com/beam-label/backend/internal/source"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "beamdxf: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	input   string
	output  string
	sheet   string
	format  string
	markers bool
	verbose bool
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("beamdxf", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.output, "o", "", "output file (default: input name with .dxf, - for stdout)")
	fs.StringVar(&opts.sheet, "sheet", "", "read only this Excel sheet")
	fs.StringVar(&opts.format, "format", "", "input format: xlsx, csv, yaml or json")
	fs.BoolVar(&opts.markers, "markers", false, "draw a marker circle at every label")
	fs.BoolVar(&opts.verbose, "v", false, "log progress to stderr")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, errors.New("expected exactly one input file")
	}
	opts.input = fs.Arg(0)
	if opts.output == "" {
		opts.output = strings.TrimSuffix(opts.input, filepath.Ext(opts.input)) + ".dxf"
	}
	return opts, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	logging.SetLogger(logging.New(level, "text", stderr))
	log := logging.Logger()

	rd, err := pickReader(opts)
	if err != nil {
		return err
	}

	log.Info("reading", "file", opts.input, "format", rd.Name())
	res, err := rd.Read(context.Background(), opts.input)
	if err != nil {
		return err
	}
	for _, rowErr := range res.Errors {
		log.Warn("row skipped", "sheet", rowErr.Sheet, "row", rowErr.Row, "column", rowErr.Column, "value", rowErr.Value, "reason", rowErr.Reason)
	}

	records := res.Records
	if opts.markers {
		for i := range records {
			records[i].ShowMarker = true
		}
	}

	b := dxf.NewBuilder()
	b.ExportBeamLabels(records)

	if err := writeOutput(b, opts.output, stdout); err != nil {
		return err
	}

	counts := b.LayerCounts()
	layers := make([]string, 0, len(counts))
	for name := range counts {
		layers = append(layers, name)
	}
	sort.Strings(layers)
	for _, name := range layers {
		log.Info("layer", "name", name, "entities", counts[name])
	}
	log.Info("done", "labels", len(records), "skipped", len(res.Errors), "output", opts.output)
	return nil
}

func pickReader(opts *options) (source.Reader, error) {
	reg := source.GetGlobalRegistry()

	var rd source.Reader
	var err error
	if opts.format != "" {
		rd, err = reg.ReaderByName(opts.format)
	} else {
		rd, err = reg.FindReader(opts.input)
	}
	if err != nil {
		return nil, err
	}

	if opts.sheet != "" {
		if _, ok := rd.(*source.XLSXReader); !ok {
			return nil, fmt.Errorf("-sheet only applies to Excel input, not %s", rd.Name())
		}
		rd = &source.XLSXReader{Sheet: opts.sheet}
	}
	return rd, nil
}

func writeOutput(b *dxf.Builder, path string, stdout io.Writer) error {
	if path == "-" {
		_, err := b.WriteTo(stdout)
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := b.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
