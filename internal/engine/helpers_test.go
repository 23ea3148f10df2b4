package engine

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Doomsbay/BactCore/internal/fasta"
)

func memSource(in string) fasta.Source {
	return fasta.NewBytesSource("mem.fa", []byte(in))
}

func testOptions(workers int) Options {
	opts := DefaultOptions()
	opts.Workers = workers
	return opts
}

// genAlignment builds a deterministic alignment with random wrapping, case,
// gaps and ambiguity codes.
func genAlignment(t *testing.T, seed int64, records, columns int) string {
	t.Helper()
	require.Positive(t, columns)
	r := rand.New(rand.NewSource(seed))
	const chars = "ACGTACGTacgtN-nRY"
	var b strings.Builder
	if seed%2 == 0 {
		b.WriteString("preamble text is ignored\n")
	}
	for i := 0; i < records; i++ {
		fmt.Fprintf(&b, ">rec%d sample %d\n", i, r.Intn(100))
		wrap := 1 + r.Intn(columns+3)
		for k := 0; k < columns; k++ {
			b.WriteByte(chars[r.Intn(len(chars))])
			if (k+1)%wrap == 0 {
				if r.Intn(4) == 0 {
					b.WriteString(" \t")
				}
				b.WriteString("\n")
			}
		}
		if r.Intn(3) == 0 {
			b.WriteString("\r\n")
		} else {
			b.WriteString("\n")
		}
	}
	return b.String()
}
