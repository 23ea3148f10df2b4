package cmd

import (
	"flag"
	"fmt"
	"runtime"

	"github.com/Doomsbay/BactCore/internal/engine"
)

// policyFlags are the column retention flags shared by filter and sites.
type policyFlags struct {
	strict    *bool
	snps      *bool
	threshold *float64
}

func addPolicyFlags(fs *flag.FlagSet) policyFlags {
	return policyFlags{
		strict:    fs.Bool("strict", false, "Retain only columns with 0% invalid gaps and ambiguous characters (equiv -threshold=1.0)"),
		snps:      fs.Bool("snps", false, "With -strict, retain only polymorphic A/C/G/T sites"),
		threshold: fs.Float64("threshold", engine.DefaultThreshold, "Proportion of valid chars (ACGT) required per column"),
	}
}

// config builds the engine policy. -snps is only honoured together with
// -strict; the returned warnings say when a flag was ignored.
func (p policyFlags) config() (engine.Config, []string) {
	cfg := engine.Config{
		Strict:    *p.strict,
		SNPsOnly:  *p.strict && *p.snps,
		Threshold: *p.threshold,
	}
	var warnings []string
	if *p.snps && !*p.strict {
		warnings = append(warnings, "-snps has no effect without -strict")
	}
	if cfg.Strict {
		cfg.Threshold = 1
	}
	return cfg, warnings
}

// runSettings are the execution flags shared by every subcommand.
type runSettings struct {
	Workers  int
	Mmap     bool
	Progress bool
	Quiet    bool
	LogJSON  bool
}

type runFlags struct {
	workers  *int
	mmap     *bool
	progress *bool
	quiet    *bool
	logJSON  *bool
}

func addRunFlags(fs *flag.FlagSet) runFlags {
	return runFlags{
		workers:  fs.Int("workers", runtime.GOMAXPROCS(0), "Accumulate workers on uncompressed input (<=1 runs sequentially)"),
		mmap:     fs.Bool("mmap", false, "Memory-map the input instead of reading it"),
		progress: fs.Bool("progress", true, "Show a progress bar per pass"),
		quiet:    fs.Bool("quiet", false, "Only log warnings and errors"),
		logJSON:  fs.Bool("log-json", false, "Log as JSON lines"),
	}
}

func (r runFlags) settings() runSettings {
	return runSettings{
		Workers:  *r.workers,
		Mmap:     *r.mmap,
		Progress: *r.progress,
		Quiet:    *r.quiet,
		LogJSON:  *r.logJSON,
	}
}

// options configures logging and returns the engine options for s.
func (s runSettings) options() engine.Options {
	setupLogging(s.Quiet, s.LogJSON)
	opts := engine.DefaultOptions()
	opts.Workers = s.Workers
	opts.Logger = logger
	opts.Progress = newProgress(s.Progress)
	return opts
}

// positional fills input and output from trailing "<in.fa> [out.fa]"
// arguments when the flags left them empty.
func positional(rest []string, input, output *string) error {
	for _, arg := range rest {
		switch {
		case *input == "":
			*input = arg
		case *output == "":
			*output = arg
		default:
			return fmt.Errorf("unexpected argument %q", arg)
		}
	}
	return nil
}
