// Package engine filters alignment columns in bounded memory. A run makes
// three sequential passes over a reopenable source: shape discovery, column
// accumulation, and masked re-emission. Only O(columns) state is kept.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime"
	"time"

	"github.com/Doomsbay/BactCore/internal/fasta"
)

const (
	defaultMaxColumns = math.MaxInt32
	passScan          = "scan"
	passAccumulate    = "accumulate"
	passWrite         = "write"
)

// Config is the column retention policy.
type Config struct {
	// Strict keeps only columns where every record holds A/C/G/T.
	// It overrides Threshold.
	Strict bool
	// SNPsOnly additionally requires at least two distinct nucleotides.
	SNPsOnly bool
	// Threshold is the fraction of records that must hold A/C/G/T.
	Threshold float64
	// ElideInvalid writes only A/C/G/T bytes from kept columns; other
	// bytes in a kept column are dropped instead of written as '-' or a
	// capital letter.
	ElideInvalid bool
}

// DefaultThreshold allows 5% invalid characters per column.
const DefaultThreshold = 0.95

// Validate rejects thresholds outside [0, 1].
func (c Config) Validate() error {
	if math.IsNaN(c.Threshold) || c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %v", c.Threshold)
	}
	return nil
}

// Progress observes the bytes consumed by each pass. Add may be called from
// several goroutines during a parallel accumulate.
type Progress interface {
	Start(pass string, total int64)
	Add(n int)
	Finish()
}

type nopProgress struct{}

func (nopProgress) Start(string, int64) {}
func (nopProgress) Add(int)             {}
func (nopProgress) Finish()             {}

// Options tunes how passes are executed without changing their result.
type Options struct {
	// Workers > 1 enables the partitioned accumulate on random-access sources.
	Workers int
	// BufferSize is the read chunk per pass.
	BufferSize int
	// MaxColumns bounds the per-column buffers.
	MaxColumns int
	Logger     *slog.Logger
	Progress   Progress
}

// DefaultOptions returns options sized for large alignments.
func DefaultOptions() Options {
	return Options{
		Workers:    runtime.GOMAXPROCS(0),
		BufferSize: fasta.DefaultBufferSize,
		MaxColumns: defaultMaxColumns,
	}
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.BufferSize <= 0 {
		o.BufferSize = fasta.DefaultBufferSize
	}
	if o.MaxColumns <= 0 {
		o.MaxColumns = defaultMaxColumns
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.Progress == nil {
		o.Progress = nopProgress{}
	}
	return o
}

// Timings records wall time per pass.
type Timings struct {
	Scan       time.Duration
	Accumulate time.Duration
	Mask       time.Duration
	Write      time.Duration
}

// Result summarises a completed run.
type Result struct {
	Shape    Shape
	Mask     MaskStats
	Constant ConstantSites
	Written  WriteStats
	Timings  Timings
}

// Run filters src into w: Scan, Accumulate, BuildMask, WriteMasked.
// On error the output may be partially written.
func Run(ctx context.Context, src fasta.Source, w io.Writer, cfg Config, opts Options) (Result, error) {
	var res Result
	if err := cfg.Validate(); err != nil {
		return res, err
	}
	opts = opts.withDefaults()

	start := time.Now()
	shape, err := ScanShape(ctx, src, opts)
	if err != nil {
		return res, err
	}
	res.Shape = shape
	res.Timings.Scan = time.Since(start)

	start = time.Now()
	counts, err := Accumulate(ctx, src, shape.Columns, opts)
	if err != nil {
		return res, err
	}
	res.Timings.Accumulate = time.Since(start)

	start = time.Now()
	mask, stats := BuildMask(counts, cfg, shape.Records)
	res.Mask = stats
	res.Constant = CountConstant(counts, shape.Records)
	res.Timings.Mask = time.Since(start)
	opts.Logger.Info("mask built",
		"columns", mask.Len(),
		"needed", stats.Needed,
		"kept", stats.Kept,
		"below_threshold", stats.BelowThreshold,
		"monomorphic", stats.Monomorphic)

	start = time.Now()
	written, err := WriteMasked(ctx, src, mask, cfg, w, opts)
	res.Written = written
	res.Timings.Write = time.Since(start)
	return res, err
}

// passWalker opens src once and feeds it through w, reporting progress.
func passWalker(ctx context.Context, name string, src fasta.Source, w *fasta.Walker, opts Options) error {
	rc, err := src.Open()
	if err != nil {
		return &IOError{Op: "open", Path: src.Name(), Err: err}
	}
	defer func() {
		_ = rc.Close()
	}()
	opts.Progress.Start(name, src.Size())
	defer opts.Progress.Finish()
	return walk(ctx, src.Name(), &countingReader{r: rc, p: opts.Progress}, w, opts.BufferSize)
}

func walk(ctx context.Context, name string, r io.Reader, w *fasta.Walker, bufSize int) error {
	err := w.Run(ctx, r, bufSize)
	if err == nil {
		return nil
	}
	var fe *FormatError
	if errors.As(err, &fe) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrIO) {
		return err
	}
	return &IOError{Op: "read", Path: name, Err: err}
}

type countingReader struct {
	r io.Reader
	p Progress
}

func (c *countingReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	if n > 0 {
		c.p.Add(n)
	}
	return n, err
}
