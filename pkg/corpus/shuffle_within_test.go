package corpus

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synthacorpus/pkg/rng"
)

func ranksOf(occ []Posting) []uint32 {
	ranks := make([]uint32, len(occ))
	for i, p := range occ {
		ranks[i] = p.Rank()
	}
	return ranks
}

func TestShuffleWithinDocsPreservesNgramsAndFinal(t *testing.T) {
	// Two one-word docs followed by a doc holding the n-gram (3,4) and
	// three plain postings: 1000 shuffles keep 3 immediately before 4 and keep
	// exactly one final flag per document.
	src := rng.New(31)
	base := []Posting{
		NewPosting(1) | FinalPosting,
		NewPosting(2) | FinalPosting,
		NewPosting(3) | StartOfNgram,
		NewPosting(4) | ContinuationOfNgram,
		NewPosting(5),
		NewPosting(6),
		NewPosting(7) | FinalPosting,
	}

	for trial := 0; trial < 1000; trial++ {
		occ := append([]Posting(nil), base...)
		ShuffleWithinDocs(src, occ)

		// One-word documents are untouched.
		assert.Equal(t, base[0], occ[0])
		assert.Equal(t, base[1], occ[1])

		// The third document keeps its rank multiset.
		doc := occ[2:]
		got := ranksOf(doc)
		sorted := append([]uint32(nil), got...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		assert.Equal(t, []uint32{3, 4, 5, 6, 7}, sorted)

		// The n-gram stays contiguous and ordered.
		startAt := -1
		for i, p := range doc {
			if p.IsStart() {
				require.Equal(t, -1, startAt, "exactly one n-gram start")
				startAt = i
			}
		}
		require.GreaterOrEqual(t, startAt, 0)
		require.Less(t, startAt+1, len(doc))
		assert.Equal(t, uint32(3), doc[startAt].Rank())
		assert.Equal(t, uint32(4), doc[startAt+1].Rank())
		assert.True(t, doc[startAt+1].IsContinuation())

		// FINAL sits on the last posting of the document, and only there.
		finals := 0
		for _, p := range doc {
			if p.IsFinal() {
				finals++
			}
		}
		assert.Equal(t, 1, finals)
		assert.True(t, doc[len(doc)-1].IsFinal())
	}
}

func TestShuffleWithinDocsMovesThings(t *testing.T) {
	src := rng.New(5)
	occ := make([]Posting, 100)
	for i := range occ {
		occ[i] = NewPosting(uint32(i + 1))
	}
	occ[99] |= FinalPosting

	ShuffleWithinDocs(src, occ)

	moved := 0
	for i, p := range occ {
		if p.Rank() != uint32(i+1) {
			moved++
		}
	}
	assert.Greater(t, moved, 50)
	assert.True(t, occ[99].IsFinal())
}

func TestShuffleWithinDocsShortRunsUntouched(t *testing.T) {
	src := rng.New(5)
	occ := []Posting{
		NewPosting(1), NewPosting(2), NewPosting(3) | FinalPosting,
	}
	want := append([]Posting(nil), occ...)
	ShuffleWithinDocs(src, occ)
	assert.Equal(t, want, occ)
}
