package cmd

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Doomsbay/BactCore/internal/engine"
	"github.com/Doomsbay/BactCore/internal/fasta"
)

const sampleAlignment = ">a desc\nACGTA\n>b\nACTTG\n>c\nTCGTA\n>d\nACGT-\n"

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aln.fa")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testRun(workers int) (runSettings, engine.Options) {
	s := runSettings{Workers: workers, Quiet: true}
	opts := engine.DefaultOptions()
	opts.Workers = workers
	opts.Logger = logger
	opts.Progress = newProgress(false)
	return s, opts
}

func TestParseFilterArgsDefaults(t *testing.T) {
	cfg, warnings, err := parseFilterArgs([]string{"in.fa"})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "in.fa", cfg.Input)
	assert.Equal(t, "", cfg.Output)
	assert.Equal(t, engine.Config{Threshold: engine.DefaultThreshold}, cfg.Policy)
}

func TestParseFilterArgsPositional(t *testing.T) {
	cfg, _, err := parseFilterArgs([]string{"-strict", "-snps", "-elide-invalid", "in.fa", "out.fa.gz"})
	require.NoError(t, err)
	assert.Equal(t, "in.fa", cfg.Input)
	assert.Equal(t, "out.fa.gz", cfg.Output)
	assert.Equal(t, engine.Config{Strict: true, SNPsOnly: true, Threshold: 1, ElideInvalid: true}, cfg.Policy)

	_, _, err = parseFilterArgs([]string{"in.fa", "out.fa", "extra"})
	require.Error(t, err)
}

func TestParseFilterArgsErrors(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{"missing input", nil},
		{"threshold above one", []string{"-threshold", "1.5", "in.fa"}},
		{"negative threshold", []string{"-threshold=-0.1", "in.fa"}},
		{"fconst without snps", []string{"-strict", "-fconst", "in.fa", "out.fa"}},
		{"fconst without strict", []string{"-snps", "-fconst", "in.fa", "out.fa"}},
		{"fconst to stdout", []string{"-strict", "-snps", "-fconst", "in.fa"}},
		{"unknown flag", []string{"-nope", "in.fa"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := parseFilterArgs(tc.args)
			require.Error(t, err)
		})
	}
}

func TestParseFilterArgsSNPsWithoutStrict(t *testing.T) {
	cfg, warnings, err := parseFilterArgs([]string{"-snps", "-threshold", "0.5", "in.fa"})
	require.NoError(t, err)
	assert.False(t, cfg.Policy.SNPsOnly)
	assert.Equal(t, 0.5, cfg.Policy.Threshold)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "-snps")
}

func TestParseSitesArgs(t *testing.T) {
	fs := flag.NewFlagSet("sites", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg, _, err := parseSitesArgs([]string{"-table", "cols.arrow", "-strict", "in.fa"}, fs)
	require.NoError(t, err)
	assert.Equal(t, "in.fa", cfg.Input)
	assert.Equal(t, "cols.arrow", cfg.TablePath)
	assert.True(t, cfg.Policy.Strict)

	fs = flag.NewFlagSet("sites", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	_, _, err = parseSitesArgs([]string{"a.fa", "b.fa"}, fs)
	require.Error(t, err)

	fs = flag.NewFlagSet("sites", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	_, _, err = parseSitesArgs([]string{"-h"}, fs)
	require.ErrorIs(t, err, flag.ErrHelp)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, exitEmpty, exitCode(&engine.FormatError{Record: -1, Empty: true}))
	assert.Equal(t, exitFormat, exitCode(&engine.FormatError{Record: 2, Want: 5, Got: 4}))
	assert.Equal(t, exitAlloc, exitCode(&engine.AllocationError{Columns: 10, Limit: 5}))
	assert.Equal(t, exitFailure, exitCode(&engine.IOError{Op: "read", Err: io.ErrUnexpectedEOF}))
	assert.Equal(t, exitFailure, exitCode(errors.New("other")))
}

func TestFilterAlignmentStrict(t *testing.T) {
	in := writeInput(t, sampleAlignment)
	out := filepath.Join(t.TempDir(), "core.fa")
	settings, opts := testRun(1)
	cfg := filterConfig{Input: in, Output: out, Policy: engine.Config{Strict: true, Threshold: 1}, Run: settings}

	var stdout bytes.Buffer
	res, err := filterAlignment(context.Background(), cfg, opts, &stdout)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Mask.Kept)
	assert.Zero(t, stdout.Len())

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, ">a desc\nACGT\n>b\nACTT\n>c\nTCGT\n>d\nACGT\n", string(got))
}

func TestFilterAlignmentGzipOutputAndReport(t *testing.T) {
	in := writeInput(t, sampleAlignment)
	dir := t.TempDir()
	out := filepath.Join(dir, "core.fa.gz")
	reportPath := filepath.Join(dir, "run.json")
	settings, opts := testRun(3)
	cfg := filterConfig{
		Input:      in,
		Output:     out,
		ReportPath: reportPath,
		Fconst:     true,
		Policy:     engine.Config{Strict: true, SNPsOnly: true, Threshold: 1},
		Run:        settings,
	}

	var stdout bytes.Buffer
	_, err := filterAlignment(context.Background(), cfg, opts, &stdout)
	require.NoError(t, err)
	assert.Equal(t, "0,1,1,0\n0.000000,0.200000,0.200000,0.000000\n", stdout.String())

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	got, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, ">a desc\nAG\n>b\nAT\n>c\nTG\n>d\nAG\n", string(got))

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.EqualValues(t, 4, doc["records"])
	assert.Equal(t, out, doc["output"])
}

func TestFilterAlignmentCompressedInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aln.fa.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(sampleAlignment))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	out := filepath.Join(t.TempDir(), "core.fa")
	settings, opts := testRun(4)
	cfg := filterConfig{Input: path, Output: out, Policy: engine.Config{Threshold: 0.75}, Run: settings}
	_, err = filterAlignment(context.Background(), cfg, opts, io.Discard)
	require.NoError(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, ">a desc\nACGTA\n>b\nACTTG\n>c\nTCGTA\n>d\nACGT-\n", string(got))
}

func TestFilterAlignmentErrors(t *testing.T) {
	settings, opts := testRun(1)

	cfg := filterConfig{Input: filepath.Join(t.TempDir(), "missing.fa"), Output: filepath.Join(t.TempDir(), "o.fa"), Policy: engine.Config{Threshold: 0.9}, Run: settings}
	_, err := filterAlignment(context.Background(), cfg, opts, io.Discard)
	require.ErrorIs(t, err, engine.ErrIO)
	assert.Equal(t, exitFailure, exitCode(err))

	cfg.Input = writeInput(t, ">a\nACGT\n>b\nACG\n")
	_, err = filterAlignment(context.Background(), cfg, opts, io.Discard)
	assert.Equal(t, exitFormat, exitCode(err))

	cfg.Input = writeInput(t, "no records here\n")
	_, err = filterAlignment(context.Background(), cfg, opts, io.Discard)
	assert.Equal(t, exitEmpty, exitCode(err))
}

func TestPrintShape(t *testing.T) {
	in := writeInput(t, sampleAlignment)
	settings, _ := testRun(1)
	for _, mmap := range []bool{false, true} {
		settings.Mmap = mmap
		var buf bytes.Buffer
		shape, err := printShape(context.Background(), in, settings, &buf)
		require.NoError(t, err)
		assert.Equal(t, 5, shape.Columns)
		assert.Equal(t, "5\t4\t0\n", buf.String())
	}
}

func TestSummariseSites(t *testing.T) {
	in := writeInput(t, sampleAlignment)
	dir := t.TempDir()
	settings, opts := testRun(2)
	cfg := sitesConfig{
		Input:      in,
		TablePath:  filepath.Join(dir, "cols.arrow"),
		ReportPath: filepath.Join(dir, "sites.json"),
		Policy:     engine.Config{Strict: true, SNPsOnly: true, Threshold: 1},
		Run:        settings,
	}

	var buf bytes.Buffer
	res, err := summariseSites(context.Background(), cfg, opts, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Mask.Kept)
	assert.Equal(t, "records\t4\ncolumns\t5\nneeded\t4\nkept\t2\nbelow_threshold\t1\nmonomorphic\t2\nconstant\t2\n", buf.String())
	assert.FileExists(t, cfg.TablePath)
	assert.FileExists(t, cfg.ReportPath)
}

func TestOpenOutputCodecs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"o.fa", "o.fa.gz", "o.fa.zst", "o.fa.lz4"} {
		path := filepath.Join(dir, "nested", name)
		w, err := openOutput(path, 2)
		require.NoError(t, err, name)
		_, err = io.WriteString(w, sampleAlignment)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		src, err := fasta.NewFileSource(path)
		require.NoError(t, err)
		assert.Equal(t, fasta.CodecForPath(path), src.Codec(), name)
		rc, err := src.Open()
		require.NoError(t, err)
		got, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, sampleAlignment, string(got), name)
	}
}
