package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/Doomsbay/BactCore/internal/engine"
	"github.com/Doomsbay/BactCore/internal/report"
)

type sitesConfig struct {
	Input      string
	TablePath  string
	ReportPath string
	Policy     engine.Config
	Run        runSettings
}

func parseSitesArgs(args []string, fs *flag.FlagSet) (sitesConfig, []string, error) {
	input := fs.String("input", "", "Input FASTA alignment (- for stdin)")
	table := fs.String("table", "", "Write the per-column table as an Arrow IPC file")
	reportPath := fs.String("report", "", "Write the JSON summary to this path")
	policy := addPolicyFlags(fs)
	run := addRunFlags(fs)
	if err := fs.Parse(args); err != nil {
		return sitesConfig{}, nil, err
	}
	cfg := sitesConfig{
		Input:      *input,
		TablePath:  *table,
		ReportPath: *reportPath,
		Run:        run.settings(),
	}
	var unused string
	if err := positional(fs.Args(), &cfg.Input, &unused); err != nil || unused != "" {
		return cfg, nil, errors.New("sites takes a single input")
	}
	var warnings []string
	cfg.Policy, warnings = policy.config()
	if cfg.Input == "" {
		return cfg, warnings, errors.New("input is required (use - for stdin)")
	}
	if err := cfg.Policy.Validate(); err != nil {
		return cfg, warnings, err
	}
	return cfg, warnings, nil
}

func runSites(args []string) {
	fs := flag.NewFlagSet("sites", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: bactcore sites [options] <in.fa>")
		fs.PrintDefaults()
	}
	cfg, warnings, err := parseSitesArgs(args, fs)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		usagef(fs, "%v", err)
	}
	opts := cfg.Run.options()
	for _, w := range warnings {
		warnf("%s", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	_, err = summariseSites(ctx, cfg, opts, os.Stdout)
	exitOnError("sites", err)
}

// summariseSites classifies every column without writing an alignment.
// It prints one line per outcome and optionally the Arrow table and JSON
// summary.
func summariseSites(ctx context.Context, cfg sitesConfig, opts engine.Options, w io.Writer) (engine.Result, error) {
	var res engine.Result
	src, cleanup, err := openSource(cfg.Input, cfg.Run.Mmap)
	defer cleanup()
	if err != nil {
		return res, err
	}

	start := time.Now()
	res.Shape, err = engine.ScanShape(ctx, src, opts)
	if err != nil {
		return res, err
	}
	res.Timings.Scan = time.Since(start)

	start = time.Now()
	counts, err := engine.Accumulate(ctx, src, res.Shape.Columns, opts)
	if err != nil {
		return res, err
	}
	res.Timings.Accumulate = time.Since(start)

	start = time.Now()
	mask, stats := engine.BuildMask(counts, cfg.Policy, res.Shape.Records)
	res.Mask = stats
	res.Constant = engine.CountConstant(counts, res.Shape.Records)
	res.Timings.Mask = time.Since(start)

	if cfg.TablePath != "" {
		logf("Write column table -> %s", cfg.TablePath)
		if err := report.WriteColumnsFile(cfg.TablePath, counts, mask, res.Shape.Records); err != nil {
			return res, err
		}
	}
	if cfg.ReportPath != "" {
		logf("Write report -> %s", cfg.ReportPath)
		if err := report.WriteJSON(cfg.ReportPath, report.NewSummary(src.Name(), "", cfg.Policy, res)); err != nil {
			return res, err
		}
	}

	_, err = fmt.Fprintf(w, "records\t%d\ncolumns\t%d\nneeded\t%d\nkept\t%d\nbelow_threshold\t%d\nmonomorphic\t%d\nconstant\t%d\n",
		res.Shape.Records, stats.Columns, stats.Needed, stats.Kept, stats.BelowThreshold, stats.Monomorphic, res.Constant.Total())
	return res, err
}
