package engine

import (
	"bytes"
	"context"

	"github.com/zeebo/xxh3"

	"github.com/Doomsbay/BactCore/internal/fasta"
)

// Shape is the geometry of an alignment.
type Shape struct {
	Columns int
	Records int
	// DuplicateIDs counts records whose identifier was already seen.
	DuplicateIDs int
}

type shapeScanner struct {
	columns int
	fixed   bool
	id      []byte
	ids     map[uint64]struct{}
	dupes   int
}

// ScanShape makes one pass over src and returns its column and record counts.
// Every record must have the same number of non-whitespace sequence bytes.
func ScanShape(ctx context.Context, src fasta.Source, opts Options) (Shape, error) {
	opts = opts.withDefaults()
	s := &shapeScanner{ids: make(map[uint64]struct{})}
	w := fasta.NewWalker(s)
	if err := passWalker(ctx, passScan, src, w, opts); err != nil {
		return Shape{}, err
	}
	shape := Shape{Columns: s.columns, Records: w.Records(), DuplicateIDs: s.dupes}
	if shape.Columns == 0 || shape.Records == 0 {
		return shape, &FormatError{Record: -1, Empty: true}
	}
	if shape.Columns > opts.MaxColumns {
		return shape, &AllocationError{Columns: shape.Columns, Limit: opts.MaxColumns}
	}
	if shape.DuplicateIDs > 0 {
		opts.Logger.Warn("duplicate record identifiers", "source", src.Name(), "count", shape.DuplicateIDs)
	}
	opts.Logger.Info("shape scanned", "source", src.Name(), "columns", shape.Columns, "records", shape.Records)
	return shape, nil
}

func (s *shapeScanner) Record(_ int, header []byte) error {
	s.id = append(s.id[:0], RecordID(header)...)
	key := xxh3.Hash(s.id)
	if _, ok := s.ids[key]; ok {
		s.dupes++
	} else {
		s.ids[key] = struct{}{}
	}
	return nil
}

func (s *shapeScanner) Bases(int, []byte) error { return nil }

func (s *shapeScanner) End(index, length int) error {
	if !s.fixed {
		s.columns = length
		s.fixed = true
		return nil
	}
	if length != s.columns {
		return &FormatError{Record: index, ID: string(s.id), Want: s.columns, Got: length}
	}
	return nil
}

// RecordID returns the first word of a raw header line, without the '>'.
func RecordID(header []byte) []byte {
	header = bytes.TrimPrefix(header, []byte{'>'})
	header = bytes.TrimSpace(header)
	if i := bytes.IndexAny(header, " \t"); i >= 0 {
		return header[:i]
	}
	return header
}
