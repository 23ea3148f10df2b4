package engine

import (
	"bytes"
	"context"
	"errors"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/Doomsbay/BactCore/internal/alphabet"
	"github.com/Doomsbay/BactCore/internal/fasta"
)

// Counts is the per-column accumulator state.
type Counts struct {
	// Valid[k] is the number of records holding A/C/G/T at column k.
	Valid []uint32
	// Seen[k] is the set of nucleotides observed at column k.
	Seen []uint8
}

// NewCounts allocates zeroed buffers for n columns.
func NewCounts(n int) *Counts {
	return &Counts{Valid: make([]uint32, n), Seen: make([]uint8, n)}
}

// Len returns the number of columns.
func (c *Counts) Len() int { return len(c.Valid) }

// Merge folds o into c. Both must have the same length.
func (c *Counts) Merge(o *Counts) {
	for k, v := range o.Valid {
		c.Valid[k] += v
	}
	for k, s := range o.Seen {
		c.Seen[k] |= s
	}
}

type accumulator struct {
	counts  *Counts
	columns int
	id      []byte
}

func (a *accumulator) Record(_ int, header []byte) error {
	a.id = append(a.id[:0], RecordID(header)...)
	return nil
}

func (a *accumulator) Bases(col int, run []byte) error {
	if col >= a.columns {
		return nil
	}
	if over := col + len(run) - a.columns; over > 0 {
		run = run[:len(run)-over]
	}
	valid := a.counts.Valid[col : col+len(run)]
	seen := a.counts.Seen[col : col+len(run)]
	for k, c := range run {
		if bit := alphabet.ValidBit(c); bit != 0 {
			valid[k]++
			seen[k] |= bit
		}
	}
	return nil
}

func (a *accumulator) End(index, length int) error {
	if length != a.columns {
		return &FormatError{Record: index, ID: string(a.id), Want: a.columns, Got: length}
	}
	return nil
}

// Accumulate makes one pass over src and counts valid nucleotides per column.
// With opts.Workers > 1 and a random-access source the pass is split at
// record boundaries and the partial counts are merged; the result is the
// same as the sequential pass.
func Accumulate(ctx context.Context, src fasta.Source, columns int, opts Options) (*Counts, error) {
	opts = opts.withDefaults()
	if columns <= 0 || columns > opts.MaxColumns {
		return nil, &AllocationError{Columns: columns, Limit: opts.MaxColumns}
	}
	if ra, ok := src.(fasta.RandomAccess); ok && opts.Workers > 1 {
		counts, err := accumulateParallel(ctx, ra, columns, opts)
		if !errors.Is(err, fasta.ErrNoRandomAccess) {
			return counts, err
		}
	}
	counts := NewCounts(columns)
	acc := &accumulator{counts: counts, columns: columns}
	if err := passWalker(ctx, passAccumulate, src, fasta.NewWalker(acc), opts); err != nil {
		return nil, err
	}
	opts.Logger.Info("columns accumulated", "source", src.Name(), "columns", columns, "workers", 1)
	return counts, nil
}

func accumulateParallel(ctx context.Context, src fasta.RandomAccess, columns int, opts Options) (*Counts, error) {
	ra, size, err := src.OpenAt()
	if err != nil {
		if errors.Is(err, fasta.ErrNoRandomAccess) {
			return nil, err
		}
		return nil, &IOError{Op: "open", Path: src.Name(), Err: err}
	}
	defer func() {
		_ = ra.Close()
	}()

	bounds, err := splitRecords(ra, size, opts.Workers)
	if err != nil {
		return nil, &IOError{Op: "read", Path: src.Name(), Err: err}
	}
	opts.Progress.Start(passAccumulate, size)
	defer opts.Progress.Finish()

	parts := make([]*Counts, len(bounds)-1)
	g, gctx := errgroup.WithContext(ctx)
	for i := range parts {
		start, end := bounds[i], bounds[i+1]
		g.Go(func() error {
			part := NewCounts(columns)
			acc := &accumulator{counts: part, columns: columns}
			r := &countingReader{r: io.NewSectionReader(ra, start, end-start), p: opts.Progress}
			bufSize := min(opts.BufferSize, int(end-start)+1)
			if err := walk(gctx, src.Name(), r, fasta.NewWalker(acc), bufSize); err != nil {
				var fe *FormatError
				if errors.As(err, &fe) {
					// Section-local index; the identifier still names the record.
					fe.Record = -1
				}
				return err
			}
			parts[i] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	counts := parts[0]
	for _, p := range parts[1:] {
		counts.Merge(p)
	}
	opts.Logger.Info("columns accumulated", "source", src.Name(), "columns", columns, "workers", len(parts))
	return counts, nil
}

// splitRecords cuts [0,size) into at most n ranges, each starting at a '>'
// that begins a line (the first range starts at 0).
func splitRecords(ra io.ReaderAt, size int64, n int) ([]int64, error) {
	bounds := []int64{0}
	for i := 1; i < n; i++ {
		target := size * int64(i) / int64(n)
		prev := bounds[len(bounds)-1]
		if target <= prev {
			continue
		}
		next, err := nextRecordStart(ra, target-1, size)
		if err != nil {
			return nil, err
		}
		if next >= size {
			break
		}
		if next > prev {
			bounds = append(bounds, next)
		}
	}
	return append(bounds, size), nil
}

var recordMarker = []byte("\n>")

// nextRecordStart returns the offset of the first "\n>" at or after from,
// pointing at the '>', or size when there is none.
func nextRecordStart(ra io.ReaderAt, from, size int64) (int64, error) {
	buf := make([]byte, 64<<10)
	for off := from; off < size; {
		n, err := ra.ReadAt(buf, off)
		if j := bytes.Index(buf[:n], recordMarker); j >= 0 {
			return off + int64(j) + 1, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		if n < len(recordMarker) || off+int64(n) >= size {
			break
		}
		off += int64(n) - 1
	}
	return size, nil
}
