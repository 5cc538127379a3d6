package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synthacorpus/pkg/rng"
)

func TestPostingFlags(t *testing.T) {
	p := NewPosting(12345)
	assert.Equal(t, uint32(12345), p.Rank())
	assert.False(t, p.IsFinal())
	assert.False(t, p.InNgram())

	p |= FinalPosting
	assert.True(t, p.IsFinal())
	assert.Equal(t, uint32(12345), p.Rank())

	s := NewPosting(1) | StartOfNgram
	c := NewPosting(2) | ContinuationOfNgram
	assert.True(t, s.IsStart())
	assert.False(t, s.IsContinuation())
	assert.True(t, c.IsContinuation())
	assert.False(t, c.IsStart())
	assert.True(t, s.InNgram())
	assert.True(t, c.InNgram())
}

func newTestPlacer(t *testing.T, lengths []uint32) *Placer {
	t.Helper()
	doctable := make([]DocEntry, len(lengths))
	var budget int64
	for i, l := range lengths {
		doctable[i] = NewDocEntry(0, l)
		budget += int64(l)
	}
	PlugInPointers(doctable)
	return NewPlacer(rng.New(77), doctable, budget)
}

func TestPlaceSingleInstance(t *testing.T) {
	p := newTestPlacer(t, []uint32{1})
	outcome, err := p.PlaceInstance([]uint32{1}, false)
	require.NoError(t, err)
	assert.Equal(t, Placed, outcome)

	occ := p.Occurrences()
	require.Len(t, occ, 1)
	assert.Equal(t, uint32(1), occ[0].Rank())
	assert.True(t, occ[0].IsFinal())
	assert.Equal(t, int64(0), p.NonFull())
}

func TestPlaceFillsEverySlotExactlyOnce(t *testing.T) {
	p := newTestPlacer(t, []uint32{4, 6, 2, 8})
	tofs := []uint64{7, 6, 4, 3}
	placed, err := p.PlaceUnigrams(tofs)
	require.NoError(t, err)
	assert.Equal(t, int64(20), placed)

	require.NoError(t, CheckOccurrences(p.Occurrences(), 4))
	assert.Equal(t, int64(0), p.NonFull())

	// The multiset of ranks is conserved.
	counts := map[uint32]int{}
	for _, posting := range p.Occurrences() {
		counts[posting.Rank()]++
	}
	assert.Equal(t, map[uint32]int{1: 7, 2: 6, 3: 4, 4: 3}, counts)
}

func TestAllLengthOneDocsEveryPostingFinal(t *testing.T) {
	lengths := make([]uint32, 20)
	for i := range lengths {
		lengths[i] = 1
	}
	p := newTestPlacer(t, lengths)
	tofs := make([]uint64, 20)
	for i := range tofs {
		tofs[i] = 1
	}
	_, err := p.PlaceUnigrams(tofs)
	require.NoError(t, err)

	for i, posting := range p.Occurrences() {
		assert.True(t, posting.IsFinal(), "posting %d", i)
	}
	require.NoError(t, CheckOccurrences(p.Occurrences(), 20))
}

func TestPlaceWhenAllFull(t *testing.T) {
	p := newTestPlacer(t, []uint32{1})
	_, err := p.PlaceInstance([]uint32{1}, false)
	require.NoError(t, err)

	outcome, err := p.PlaceInstance([]uint32{2}, false)
	require.NoError(t, err)
	assert.Equal(t, AllDocsFull, outcome)
}

func TestNgramPlacementSetsFlags(t *testing.T) {
	p := newTestPlacer(t, []uint32{5})
	outcome, err := p.PlaceInstance([]uint32{3, 5}, true)
	require.NoError(t, err)
	require.Equal(t, Placed, outcome)

	occ := p.Occurrences()
	assert.Equal(t, uint32(3), occ[0].Rank())
	assert.True(t, occ[0].IsStart())
	assert.Equal(t, uint32(5), occ[1].Rank())
	assert.True(t, occ[1].IsContinuation())
}

func TestGenerateEndToEnd(t *testing.T) {
	cfg := &Config{
		Postings:  1000,
		VocabSize: 100,
		Seed:      42,
		DocLength: 10,
		ZipfAlpha: -0.9,
	}
	require.NoError(t, ValidateConfig(cfg))
	result, err := Generate(rng.New(cfg.Seed), cfg)
	require.NoError(t, err)

	assert.Len(t, result.Occurrences, 1000)
	require.NoError(t, CheckOccurrences(result.Occurrences, result.NumDocs))
}

func TestGenerateSingleTermSinglePosting(t *testing.T) {
	cfg := &Config{
		Postings:  1,
		VocabSize: 1,
		Seed:      7,
		DocLength: 1,
		TailPerc:  100,
		ZipfAlpha: -0.9,
	}
	require.NoError(t, ValidateConfig(cfg))
	result, err := Generate(rng.New(cfg.Seed), cfg)
	require.NoError(t, err)

	require.Len(t, result.Occurrences, 1)
	assert.Equal(t, int64(1), result.NumDocs)
	assert.Equal(t, uint32(1), result.Occurrences[0].Rank())
	assert.True(t, result.Occurrences[0].IsFinal())
}

func TestValidateConfig(t *testing.T) {
	base := Config{Postings: 100, VocabSize: 10, DocLength: 10, ZipfAlpha: -0.9}

	cfg := base
	require.NoError(t, ValidateConfig(&cfg))

	cfg = base
	cfg.VocabSize = 200
	assert.Error(t, ValidateConfig(&cfg))

	cfg = base
	cfg.ZipfAlpha = -1.0
	assert.Error(t, ValidateConfig(&cfg))

	cfg = base
	cfg.TailPerc = 150
	assert.Error(t, ValidateConfig(&cfg))

	cfg = base
	cfg.DocLength = 0
	assert.Error(t, ValidateConfig(&cfg))
}
