// Package fasta turns FASTA bytes into a stream of classified events and
// provides reopenable inputs for multi-pass readers.
package fasta

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/Doomsbay/BactCore/internal/alphabet"
)

// DefaultBufferSize is the read chunk used by Walk.
const DefaultBufferSize = 4 << 20

// Visitor receives the events of one pass over a FASTA stream.
//
// Record is called when a record opens; header holds the raw header line
// including the leading '>' and its line terminator (absent only when the
// input ends inside the header). Bases is called with runs of non-whitespace
// sequence bytes; col is the column of run[0] within the current record.
// End is called once per record with the number of columns it held.
//
// Slices passed to a Visitor are only valid for the duration of the call.
type Visitor interface {
	Record(index int, header []byte) error
	Bases(col int, run []byte) error
	End(index int, length int) error
}

type walkState uint8

const (
	statePreamble walkState = iota
	stateHeader
	stateSeq
)

// Walker holds the state machine for a single pass.
type Walker struct {
	v         Visitor
	state     walkState
	lineStart bool
	index     int
	col       int
	header    []byte
}

// Walk reads r to EOF and reports events to v. Bytes before the first record
// are ignored. A '>' opens a record only as the first byte of a line.
func Walk(ctx context.Context, r io.Reader, v Visitor, bufSize int) error {
	return NewWalker(v).Run(ctx, r, bufSize)
}

// NewWalker returns a Walker positioned at the start of a stream.
func NewWalker(v Visitor) *Walker {
	return &Walker{v: v, lineStart: true, index: -1}
}

// Run reads r to EOF through a buffer of bufSize bytes, then closes the
// walker. The context is checked between reads.
func (w *Walker) Run(ctx context.Context, r io.Reader, bufSize int) error {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	buf := make([]byte, bufSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			if ferr := w.Feed(buf[:n]); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
	}
	return w.Close()
}

// Records returns the number of records opened so far.
func (w *Walker) Records() int { return w.index + 1 }

// Feed consumes the next chunk of the stream.
func (w *Walker) Feed(p []byte) error {
	i := 0
	for i < len(p) {
		switch w.state {
		case statePreamble:
			if w.lineStart && p[i] == '>' {
				w.openHeader()
				i++
				continue
			}
			j := bytes.IndexByte(p[i:], '\n')
			if j < 0 {
				w.lineStart = false
				return nil
			}
			i += j + 1
			w.lineStart = true

		case stateHeader:
			j := bytes.IndexByte(p[i:], '\n')
			if j < 0 {
				w.header = append(w.header, p[i:]...)
				return nil
			}
			w.header = append(w.header, p[i:i+j+1]...)
			i += j + 1
			w.state = stateSeq
			w.lineStart = true
			if err := w.v.Record(w.index, w.header); err != nil {
				return err
			}

		case stateSeq:
			c := p[i]
			if w.lineStart && c == '>' {
				if err := w.v.End(w.index, w.col); err != nil {
					return err
				}
				w.openHeader()
				i++
				continue
			}
			if alphabet.IsSpace(c) {
				w.lineStart = c == '\n'
				i++
				continue
			}
			j := i + 1
			for j < len(p) && !alphabet.IsSpace(p[j]) {
				j++
			}
			if err := w.v.Bases(w.col, p[i:j]); err != nil {
				return err
			}
			w.col += j - i
			w.lineStart = false
			i = j
		}
	}
	return nil
}

// Close flushes the final record. It must be called once after the last Feed.
func (w *Walker) Close() error {
	switch w.state {
	case stateHeader:
		if err := w.v.Record(w.index, w.header); err != nil {
			return err
		}
		return w.v.End(w.index, 0)
	case stateSeq:
		return w.v.End(w.index, w.col)
	}
	return nil
}

func (w *Walker) openHeader() {
	w.index++
	w.col = 0
	w.state = stateHeader
	w.lineStart = false
	w.header = append(w.header[:0], '>')
}
