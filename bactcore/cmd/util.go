package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/pierrec/lz4/v4"

	"github.com/Doomsbay/BactCore/internal/engine"
	"github.com/Doomsbay/BactCore/internal/fasta"
)

const (
	exitFailure = 1
	exitFormat  = 2
	exitEmpty   = 3
	exitAlloc   = 10
	exitUsage   = 64
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func setupLogging(quiet, asJSON bool) {
	level := slog.LevelInfo
	if quiet {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if asJSON {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, opts))
		return
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func logf(format string, args ...any) {
	logger.Info(fmt.Sprintf(format, args...))
}

func warnf(format string, args ...any) {
	logger.Warn(fmt.Sprintf(format, args...))
}

func usagef(fs *flag.FlagSet, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	fs.Usage()
	os.Exit(exitUsage)
}

// exitCode maps a run error onto the process exit status.
func exitCode(err error) int {
	var fe *engine.FormatError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &fe) && fe.Empty:
		return exitEmpty
	case errors.Is(err, engine.ErrFormat):
		return exitFormat
	case errors.Is(err, engine.ErrAllocation):
		return exitAlloc
	}
	return exitFailure
}

func exitOnError(what string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s failed: %v\n", what, err)
	os.Exit(exitCode(err))
}

func isStdio(path string) bool {
	return path == "" || path == "-"
}

// openSource returns a reopenable source for path. Stdin is spooled to a
// temporary file because every pass reads the input from the start.
func openSource(path string, useMmap bool) (fasta.Source, func(), error) {
	if isStdio(path) {
		src, cleanup, err := fasta.Spool(os.Stdin, "")
		if err != nil {
			return nil, cleanup, &engine.IOError{Op: "read", Path: "stdin", Err: err}
		}
		return src, cleanup, nil
	}
	if useMmap {
		src, err := fasta.NewMmapSource(path)
		if err != nil {
			return nil, func() {}, &engine.IOError{Op: "open input", Path: path, Err: err}
		}
		return src, func() {}, nil
	}
	src, err := fasta.NewFileSource(path)
	if err != nil {
		return nil, func() {}, &engine.IOError{Op: "open input", Path: path, Err: err}
	}
	return src, func() {}, nil
}

type writeCloser struct {
	writer io.Writer
	close  func() error
}

func (w writeCloser) Write(p []byte) (int, error) {
	return w.writer.Write(p)
}

func (w writeCloser) Close() error {
	return w.close()
}

// openOutput creates path, compressing by suffix (.gz, .zst, .lz4).
// An empty path or "-" writes to stdout.
func openOutput(path string, workers int) (io.WriteCloser, error) {
	if isStdio(path) {
		return writeCloser{writer: os.Stdout, close: func() error { return nil }}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, &engine.IOError{Op: "create output", Path: path, Err: err}
	}
	closeBoth := func(c io.Closer) func() error {
		return func() error {
			cerr := c.Close()
			if ferr := f.Close(); cerr == nil {
				cerr = ferr
			}
			return cerr
		}
	}
	switch fasta.CodecForPath(path) {
	case fasta.Gzip:
		if workers <= 0 {
			workers = runtime.GOMAXPROCS(0)
		}
		pw, err := pgzip.NewWriterLevel(f, pgzip.DefaultCompression)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("create gzip writer: %w", err)
		}
		if err := pw.SetConcurrency(1<<20, workers); err != nil {
			_ = pw.Close()
			_ = f.Close()
			return nil, fmt.Errorf("set gzip concurrency: %w", err)
		}
		return writeCloser{writer: pw, close: closeBoth(pw)}, nil
	case fasta.Zstd:
		zw, err := zstd.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("create zstd writer: %w", err)
		}
		return writeCloser{writer: zw, close: closeBoth(zw)}, nil
	case fasta.LZ4:
		lw := lz4.NewWriter(f)
		return writeCloser{writer: lw, close: closeBoth(lw)}, nil
	}
	return writeCloser{writer: f, close: f.Close}, nil
}
