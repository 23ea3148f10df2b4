package engine

import (
	"math"

	"github.com/bits-and-blooms/bitset"

	"github.com/Doomsbay/BactCore/internal/alphabet"
)

// Mask is the immutable keep/drop decision for every column.
type Mask struct {
	bits *bitset.BitSet
	n    int
}

// NewMask returns a mask of n columns with the given columns kept.
func NewMask(n int, keep ...int) *Mask {
	m := &Mask{bits: bitset.New(uint(n)), n: n}
	for _, k := range keep {
		if k >= 0 && k < n {
			m.bits.Set(uint(k))
		}
	}
	return m
}

// Len returns the number of columns the mask covers.
func (m *Mask) Len() int { return m.n }

// Keep reports whether column k is retained.
func (m *Mask) Keep(k int) bool {
	return k >= 0 && k < m.n && m.bits.Test(uint(k))
}

// Kept returns the number of retained columns.
func (m *Mask) Kept() int { return int(m.bits.Count()) }

// Columns lists the retained column indices in ascending order.
func (m *Mask) Columns() []int {
	out := make([]int, 0, m.Kept())
	for i, ok := m.bits.NextSet(0); ok; i, ok = m.bits.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

// MaskStats tallies why columns were dropped.
type MaskStats struct {
	Columns int `json:"columns"`
	Needed  int `json:"needed_valid"`
	Kept    int `json:"kept"`
	// BelowThreshold columns had too few A/C/G/T.
	BelowThreshold int `json:"dropped_below_threshold"`
	// Monomorphic columns passed the threshold but showed fewer than two
	// distinct nucleotides (SNPsOnly only).
	Monomorphic int `json:"dropped_monomorphic"`
}

// NeededValid is the minimum valid count for a column to be kept:
// all records in strict mode, otherwise ceil(threshold * records).
func NeededValid(cfg Config, records int) int {
	if cfg.Strict {
		return records
	}
	return ceilMul(cfg.Threshold, records)
}

// ceilMul rounds up only when the product is not already integral.
func ceilMul(f float64, m int) int {
	x := f * float64(m)
	if x <= 0 {
		return 0
	}
	t := math.Trunc(x)
	if t == x {
		return int(t)
	}
	return int(t) + 1
}

// BuildMask decides every column from its counts. It has no side effects.
func BuildMask(c *Counts, cfg Config, records int) (*Mask, MaskStats) {
	n := c.Len()
	needed := NeededValid(cfg, records)
	m := &Mask{bits: bitset.New(uint(n)), n: n}
	stats := MaskStats{Columns: n, Needed: needed}
	for k := 0; k < n; k++ {
		if int(c.Valid[k]) < needed {
			stats.BelowThreshold++
			continue
		}
		if cfg.SNPsOnly && alphabet.Count(c.Seen[k]) < 2 {
			stats.Monomorphic++
			continue
		}
		m.bits.Set(uint(k))
		stats.Kept++
	}
	return m, stats
}
