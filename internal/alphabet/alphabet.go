// Package alphabet holds the byte classification tables shared by every pass
// over an alignment. The tables are filled once at package init and never
// written again.
package alphabet

// Class is the role a byte plays inside a sequence line.
type Class uint8

const (
	// Space bytes carry no column weight.
	Space Class = iota
	// Base is one of A, C, G, T in either case.
	Base
	// Other occupies a column but is not a valid nucleotide
	// (gap, N, IUPAC ambiguity codes, anything else).
	Other
)

// Bit codes OR-ed into a column's observed-base set.
const (
	BitA uint8 = 1 << iota
	BitC
	BitG
	BitT
)

// AllBases is the set with every nucleotide bit present.
const AllBases = BitA | BitC | BitG | BitT

var (
	classes [256]Class
	bits    [256]uint8
	out     [256]byte
	strict  [256]byte
)

func init() {
	for i := 0; i < 256; i++ {
		classes[i] = Other
		out[i] = 'N'
	}
	for _, c := range []byte{' ', '\t', '\r', '\n', '\f', '\v'} {
		classes[c] = Space
		out[c] = 0
	}
	for c := 'a'; c <= 'z'; c++ {
		out[c] = byte(c) - 'a' + 'A'
		out[c-'a'+'A'] = byte(c) - 'a' + 'A'
	}
	out['-'] = '-'
	out['.'] = '-'

	for _, b := range []struct {
		c   byte
		bit uint8
	}{{'A', BitA}, {'C', BitC}, {'G', BitG}, {'T', BitT}} {
		lower := b.c + 'a' - 'A'
		classes[b.c], classes[lower] = Base, Base
		bits[b.c], bits[lower] = b.bit, b.bit
		strict[b.c], strict[lower] = b.c, b.c
	}
}

// Classify returns the class of c.
func Classify(c byte) Class { return classes[c] }

// IsSpace reports whether c is skipped without advancing the column.
func IsSpace(c byte) bool { return classes[c] == Space }

// ValidBit returns the nucleotide bit for c, or 0 when c is not A/C/G/T.
func ValidBit(c byte) uint8 { return bits[c] }

// Canonical returns the byte written for c inside a kept column: the
// uppercase letter for letters, '-' for gaps ('-' and '.'), 'N' for anything
// else. Whitespace maps to 0.
func Canonical(c byte) byte { return out[c] }

// CanonicalBase returns the uppercase nucleotide for A/C/G/T and 0 otherwise.
func CanonicalBase(c byte) byte { return strict[c] }

// Count returns the number of distinct nucleotides in a bit set.
func Count(set uint8) int {
	set &= AllBases
	n := 0
	for set != 0 {
		set &= set - 1
		n++
	}
	return n
}

// Letters renders a bit set as its nucleotides in A, C, G, T order.
func Letters(set uint8) string {
	var buf [4]byte
	n := 0
	for i, c := range [...]byte{'A', 'C', 'G', 'T'} {
		if set&(1<<i) != 0 {
			buf[n] = c
			n++
		}
	}
	return string(buf[:n])
}
