package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat matches every *FormatError.
	ErrFormat = errors.New("malformed alignment")
	// ErrIO matches every *IOError.
	ErrIO = errors.New("alignment i/o failed")
	// ErrAllocation matches every *AllocationError.
	ErrAllocation = errors.New("cannot allocate column buffers")
)

// FormatError reports an alignment that breaks the equal-length rule or
// holds no sequence data.
type FormatError struct {
	// Record is the 0-based index of the offending record, -1 when the
	// error concerns the whole alignment.
	Record int
	ID     string
	Want   int
	Got    int
	Empty  bool
}

func (e *FormatError) Error() string {
	if e.Empty {
		return "empty FASTA or parse error: no sequence columns found"
	}
	msg := fmt.Sprintf("unequal sequence lengths (%d vs %d)", e.Got, e.Want)
	if e.Record >= 0 {
		msg += fmt.Sprintf(" at record %d", e.Record+1)
	}
	if e.ID != "" {
		msg += " (" + e.ID + ")"
	}
	return msg
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// IOError wraps a failure to open, read, or write a stream.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

// AllocationError reports column buffers that cannot be sized.
type AllocationError struct {
	Columns int
	Limit   int
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("cannot allocate buffers for %d columns (limit %d)", e.Columns, e.Limit)
}

func (e *AllocationError) Is(target error) bool { return target == ErrAllocation }
