package engine

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Doomsbay/BactCore/internal/alphabet"
	"github.com/Doomsbay/BactCore/internal/fasta"
)

func TestAccumulateCounts(t *testing.T) {
	in := ">a\nAc-N\n>b\nA cGt\n>c\nar\nGt\n"
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers%d", workers), func(t *testing.T) {
			counts, err := Accumulate(context.Background(), memSource(in), 4, testOptions(workers))
			require.NoError(t, err)
			assert.Equal(t, []uint32{3, 2, 2, 2}, counts.Valid)
			assert.Equal(t, []uint8{
				alphabet.BitA,
				alphabet.BitC,
				alphabet.BitG,
				alphabet.BitT,
			}, counts.Seen)
		})
	}
}

func TestAccumulateParallelMatchesSequential(t *testing.T) {
	for seed := int64(0); seed < 8; seed++ {
		records, columns := 5+int(seed)*3, 17+int(seed)*9
		in := genAlignment(t, seed, records, columns)
		seq, err := Accumulate(context.Background(), memSource(in), columns, testOptions(1))
		require.NoError(t, err)
		for _, workers := range []int{2, 3, 8, 64} {
			opts := testOptions(workers)
			opts.BufferSize = 7
			par, err := Accumulate(context.Background(), memSource(in), columns, opts)
			require.NoError(t, err, "seed %d workers %d", seed, workers)
			assert.Equal(t, seq.Valid, par.Valid, "seed %d workers %d", seed, workers)
			assert.Equal(t, seq.Seen, par.Seen, "seed %d workers %d", seed, workers)
		}
	}
}

func TestAccumulateRecordTooLong(t *testing.T) {
	for _, workers := range []int{1, 2} {
		_, err := Accumulate(context.Background(), memSource(">a\nACG\n>b\nACGT\n"), 3, testOptions(workers))
		var fe *FormatError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, 3, fe.Want)
		assert.Equal(t, 4, fe.Got)
		assert.Equal(t, "b", fe.ID)
	}
}

func TestAccumulateRejectsBadColumns(t *testing.T) {
	_, err := Accumulate(context.Background(), memSource(">a\nA\n"), 0, Options{})
	require.ErrorIs(t, err, ErrAllocation)
}

// streamOnly hides the random-access methods of a source.
type streamOnly struct{ fasta.Source }

func TestAccumulateStreamOnlySource(t *testing.T) {
	in := genAlignment(t, 3, 9, 40)
	want, err := Accumulate(context.Background(), memSource(in), 40, testOptions(1))
	require.NoError(t, err)
	got, err := Accumulate(context.Background(), streamOnly{memSource(in)}, 40, testOptions(8))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCountsMerge(t *testing.T) {
	a := &Counts{Valid: []uint32{1, 0, 2}, Seen: []uint8{alphabet.BitA, 0, alphabet.BitC}}
	b := &Counts{Valid: []uint32{1, 3, 0}, Seen: []uint8{alphabet.BitG, alphabet.BitT, 0}}
	a.Merge(b)
	assert.Equal(t, []uint32{2, 3, 2}, a.Valid)
	assert.Equal(t, []uint8{alphabet.BitA | alphabet.BitG, alphabet.BitT, alphabet.BitC}, a.Seen)
}

func TestSplitRecords(t *testing.T) {
	in := []byte(genAlignment(t, 5, 20, 50))
	size := int64(len(in))
	for _, n := range []int{1, 2, 5, 19, 100} {
		bounds, err := splitRecords(bytes.NewReader(in), size, n)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(bounds), 2)
		assert.LessOrEqual(t, len(bounds)-1, n)
		assert.Equal(t, int64(0), bounds[0])
		assert.Equal(t, size, bounds[len(bounds)-1])
		for i := 1; i < len(bounds)-1; i++ {
			assert.Greater(t, bounds[i], bounds[i-1])
			assert.Equal(t, byte('>'), in[bounds[i]])
			assert.Equal(t, byte('\n'), in[bounds[i]-1])
		}
	}
}

func TestNextRecordStartAcrossWindows(t *testing.T) {
	in := append(bytes.Repeat([]byte("A"), 64<<10-1), []byte("\n>b\nA\n")...)
	next, err := nextRecordStart(bytes.NewReader(in), 0, int64(len(in)))
	require.NoError(t, err)
	assert.Equal(t, int64(64<<10), next)

	none, err := nextRecordStart(bytes.NewReader([]byte("ACGT\nACGT\n")), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), none)
}
