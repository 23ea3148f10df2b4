package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/Doomsbay/BactCore/internal/engine"
)

func runShape(args []string) {
	fs := flag.NewFlagSet("shape", flag.ContinueOnError)
	input := fs.String("input", "", "Input FASTA alignment (- for stdin)")
	run := addRunFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: bactcore shape [options] <in.fa>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(exitUsage)
	}
	var unused string
	if err := positional(fs.Args(), input, &unused); err != nil || unused != "" {
		usagef(fs, "shape takes a single input")
	}
	if *input == "" {
		usagef(fs, "input is required (use - for stdin)")
	}

	settings := run.settings()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	_, err := printShape(ctx, *input, settings, os.Stdout)
	exitOnError("shape", err)
}

// printShape writes "columns<TAB>records<TAB>duplicate ids" for the alignment
// at input.
func printShape(ctx context.Context, input string, settings runSettings, w io.Writer) (engine.Shape, error) {
	src, cleanup, err := openSource(input, settings.Mmap)
	defer cleanup()
	if err != nil {
		return engine.Shape{}, err
	}
	shape, err := engine.ScanShape(ctx, src, settings.options())
	if err != nil {
		return shape, err
	}
	if _, err := fmt.Fprintf(w, "%d\t%d\t%d\n", shape.Columns, shape.Records, shape.DuplicateIDs); err != nil {
		return shape, err
	}
	return shape, nil
}
