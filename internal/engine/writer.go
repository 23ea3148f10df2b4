package engine

import (
	"bufio"
	"context"
	"io"

	"github.com/Doomsbay/BactCore/internal/alphabet"
	"github.com/Doomsbay/BactCore/internal/fasta"
)

const (
	writerBufferSize = 1 << 20

	// recordFlushSize is the buffered amount at which a record boundary
	// triggers a flush.
	recordFlushSize = 64 << 10
)

// WriteStats counts what the output pass emitted.
type WriteStats struct {
	Records int   `json:"records"`
	Bases   int64 `json:"bases"`
	Bytes   int64 `json:"bytes"`
}

type maskedWriter struct {
	bw      *bufio.Writer
	mask    *Mask
	out     func(byte) byte
	id      []byte
	scratch []byte
	stats   WriteStats
}

// WriteMasked re-reads src and writes every record with only the kept
// columns: headers verbatim, then a single unwrapped sequence line. Output is
// flushed at record boundaries once recordFlushSize bytes are buffered, and
// when the buffer fills.
func WriteMasked(ctx context.Context, src fasta.Source, mask *Mask, cfg Config, w io.Writer, opts Options) (WriteStats, error) {
	opts = opts.withDefaults()
	mw := &maskedWriter{
		bw:      bufio.NewWriterSize(w, writerBufferSize),
		mask:    mask,
		out:     alphabet.Canonical,
		scratch: make([]byte, 0, 64<<10),
	}
	if cfg.ElideInvalid {
		mw.out = alphabet.CanonicalBase
	}
	err := passWalker(ctx, passWrite, src, fasta.NewWalker(mw), opts)
	if ferr := mw.bw.Flush(); err == nil && ferr != nil {
		err = &IOError{Op: "write", Err: ferr}
	}
	if err != nil {
		return mw.stats, err
	}
	opts.Logger.Info("alignment written", "source", src.Name(), "records", mw.stats.Records, "bases", mw.stats.Bases)
	return mw.stats, nil
}

func (m *maskedWriter) Record(_ int, header []byte) error {
	m.id = append(m.id[:0], RecordID(header)...)
	if _, err := m.bw.Write(header); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	m.stats.Bytes += int64(len(header))
	if len(header) == 0 || header[len(header)-1] != '\n' {
		if err := m.bw.WriteByte('\n'); err != nil {
			return &IOError{Op: "write", Err: err}
		}
		m.stats.Bytes++
	}
	return nil
}

func (m *maskedWriter) Bases(col int, run []byte) error {
	buf := m.scratch[:0]
	for k, c := range run {
		if !m.mask.Keep(col + k) {
			continue
		}
		if o := m.out(c); o != 0 {
			buf = append(buf, o)
		}
	}
	if len(buf) == 0 {
		return nil
	}
	m.scratch = buf[:0]
	if _, err := m.bw.Write(buf); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	m.stats.Bases += int64(len(buf))
	m.stats.Bytes += int64(len(buf))
	return nil
}

func (m *maskedWriter) End(index, length int) error {
	if length != m.mask.Len() {
		return &FormatError{Record: index, ID: string(m.id), Want: m.mask.Len(), Got: length}
	}
	if err := m.bw.WriteByte('\n'); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	m.stats.Bytes++
	m.stats.Records++
	if m.bw.Buffered() >= recordFlushSize {
		if err := m.bw.Flush(); err != nil {
			return &IOError{Op: "write", Err: err}
		}
	}
	return nil
}
