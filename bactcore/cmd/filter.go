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
	"github.com/Doomsbay/BactCore/internal/report"
)

type filterConfig struct {
	Input      string
	Output     string
	ReportPath string
	Fconst     bool
	Policy     engine.Config
	Run        runSettings
}

func newFilterFlags(name string) (*flag.FlagSet, func() (filterConfig, []string, error)) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	input := fs.String("input", "", "Input FASTA alignment (plain, gzip, zstd or lz4; - for stdin)")
	output := fs.String("output", "", "Output FASTA path (empty or - for stdout; .gz/.zst/.lz4 compress)")
	elide := fs.Bool("elide-invalid", false, "Write only A/C/G/T from kept columns, dropping gaps and ambiguity codes")
	fconst := fs.Bool("fconst", false, "Print constant site counts and fractions (A,T,C,G) to stdout; requires -strict and -snps")
	reportPath := fs.String("report", "", "Optional JSON report output path")
	policy := addPolicyFlags(fs)
	run := addRunFlags(fs)

	build := func() (filterConfig, []string, error) {
		cfg := filterConfig{
			Input:      *input,
			Output:     *output,
			ReportPath: *reportPath,
			Fconst:     *fconst,
			Run:        run.settings(),
		}
		if err := positional(fs.Args(), &cfg.Input, &cfg.Output); err != nil {
			return cfg, nil, err
		}
		var warnings []string
		cfg.Policy, warnings = policy.config()
		cfg.Policy.ElideInvalid = *elide
		if cfg.Input == "" {
			return cfg, warnings, errors.New("input is required (use - for stdin)")
		}
		if err := cfg.Policy.Validate(); err != nil {
			return cfg, warnings, err
		}
		if cfg.Fconst {
			if !cfg.Policy.Strict || !cfg.Policy.SNPsOnly {
				return cfg, warnings, errors.New("-fconst requires both -strict and -snps")
			}
			if isStdio(cfg.Output) {
				return cfg, warnings, errors.New("-fconst prints to stdout; give an -output path")
			}
		}
		return cfg, warnings, nil
	}
	return fs, build
}

func parseFilterArgs(args []string) (filterConfig, []string, error) {
	fs, build := newFilterFlags("filter")
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return filterConfig{}, nil, err
	}
	return build()
}

func runFilter(args []string) {
	fs, build := newFilterFlags("filter")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: bactcore filter [options] <in.fa> [out.fa]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(exitUsage)
	}
	cfg, warnings, err := build()
	if err != nil {
		usagef(fs, "%v", err)
	}

	opts := cfg.Run.options()
	for _, w := range warnings {
		warnf("%s", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	_, err = filterAlignment(ctx, cfg, opts, os.Stdout)
	exitOnError("filter", err)
}

// filterAlignment runs the engine from cfg.Input to cfg.Output and writes the
// optional report and constant-site lines.
func filterAlignment(ctx context.Context, cfg filterConfig, opts engine.Options, stdout io.Writer) (engine.Result, error) {
	src, cleanup, err := openSource(cfg.Input, cfg.Run.Mmap)
	defer cleanup()
	if err != nil {
		return engine.Result{}, err
	}

	out, err := openOutput(cfg.Output, cfg.Run.Workers)
	if err != nil {
		return engine.Result{}, err
	}
	res, err := engine.Run(ctx, src, out, cfg.Policy, opts)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = &engine.IOError{Op: "close output", Path: cfg.Output, Err: cerr}
	}
	if err != nil {
		return res, err
	}

	outName := cfg.Output
	if isStdio(outName) {
		outName = "-"
	}
	if cfg.ReportPath != "" {
		if err := report.WriteJSON(cfg.ReportPath, report.NewSummary(src.Name(), outName, cfg.Policy, res)); err != nil {
			return res, err
		}
	}
	if cfg.Fconst {
		if err := writeFconst(stdout, res.Constant); err != nil {
			return res, err
		}
	}
	logf("filter: records=%d columns=%d kept=%d drop threshold=%d monomorphic=%d",
		res.Shape.Records, res.Mask.Columns, res.Mask.Kept, res.Mask.BelowThreshold, res.Mask.Monomorphic)
	return res, nil
}

// writeFconst prints constant-site counts then fractions, A,T,C,G order.
func writeFconst(w io.Writer, c engine.ConstantSites) error {
	n := c.ATCG()
	f := c.Fractions()
	if _, err := fmt.Fprintf(w, "%d,%d,%d,%d\n", n[0], n[1], n[2], n[3]); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%.6f,%.6f,%.6f,%.6f\n", f[0], f[1], f[2], f[3])
	return err
}
