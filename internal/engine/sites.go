package engine

import "github.com/Doomsbay/BactCore/internal/alphabet"

// ConstantSites counts columns where every record holds the same nucleotide.
type ConstantSites struct {
	A       int `json:"a"`
	C       int `json:"c"`
	G       int `json:"g"`
	T       int `json:"t"`
	Columns int `json:"columns"`
}

// CountConstant finds columns with no invalid characters and exactly one
// observed nucleotide.
func CountConstant(c *Counts, records int) ConstantSites {
	s := ConstantSites{Columns: c.Len()}
	for k, v := range c.Valid {
		if int(v) != records {
			continue
		}
		switch c.Seen[k] {
		case alphabet.BitA:
			s.A++
		case alphabet.BitC:
			s.C++
		case alphabet.BitG:
			s.G++
		case alphabet.BitT:
			s.T++
		}
	}
	return s
}

// Total is the number of constant columns.
func (s ConstantSites) Total() int { return s.A + s.C + s.G + s.T }

// ATCG returns the counts in the A, T, C, G order of the fconst report.
func (s ConstantSites) ATCG() [4]int { return [4]int{s.A, s.T, s.C, s.G} }

// Fractions returns ATCG divided by the column count.
func (s ConstantSites) Fractions() [4]float64 {
	var out [4]float64
	if s.Columns == 0 {
		return out
	}
	for i, n := range s.ATCG() {
		out[i] = float64(n) / float64(s.Columns)
	}
	return out
}
