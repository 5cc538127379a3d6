package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synthacorpus/pkg/rng"
)

func TestDocEntryPacking(t *testing.T) {
	e := NewDocEntry(123456789, 4242)
	assert.Equal(t, uint64(123456789), e.Pointer())
	assert.Equal(t, uint32(4242), e.Remaining())

	// The 24-bit length field holds documents up to 16M words.
	e = NewDocEntry(0, 0xFFFFFF)
	assert.Equal(t, uint32(0xFFFFFF), e.Remaining())
	assert.Equal(t, uint64(0), e.Pointer())
}

func fixedHisto(length int, count int64) *LengthHistogram {
	h := &LengthHistogram{}
	h.add(length, count)
	return h
}

func TestBuildDoctableFixedLengths(t *testing.T) {
	// 1000 postings at a fixed length of 10 gives exactly 100 documents.
	doctable := BuildDoctable(fixedHisto(10, 100), 1000)
	require.Len(t, doctable, 100)
	for _, e := range doctable {
		assert.Equal(t, uint32(10), e.Remaining())
	}
	assert.Equal(t, int64(1000), SumRemaining(doctable))
	require.NoError(t, CheckDoctableBudget(doctable, 1000))
}

func TestBuildDoctableTruncatesFinalDoc(t *testing.T) {
	// 95 postings from docs of length 10: the last document shrinks to 5.
	doctable := BuildDoctable(fixedHisto(10, 100), 95)
	require.Len(t, doctable, 10)
	assert.Equal(t, uint32(5), doctable[9].Remaining())
	assert.Equal(t, int64(95), SumRemaining(doctable))
}

func TestBuildDoctableExactBudgetNoTruncation(t *testing.T) {
	h := &LengthHistogram{}
	h.add(3, 2)
	h.add(7, 2)
	doctable := BuildDoctable(h, 20)
	require.Len(t, doctable, 4)
	lengths := []uint32{}
	for _, e := range doctable {
		lengths = append(lengths, e.Remaining())
	}
	assert.Equal(t, []uint32{3, 3, 7, 7}, lengths)
}

func TestPlugInPointers(t *testing.T) {
	doctable := []DocEntry{
		NewDocEntry(0, 5),
		NewDocEntry(0, 3),
		NewDocEntry(0, 7),
	}
	PlugInPointers(doctable)
	assert.Equal(t, uint64(0), doctable[0].Pointer())
	assert.Equal(t, uint64(5), doctable[1].Pointer())
	assert.Equal(t, uint64(8), doctable[2].Pointer())
	assert.Equal(t, uint32(5), doctable[0].Remaining())
	assert.Equal(t, uint32(7), doctable[2].Remaining())
}

func TestShuffleDoctablePreservesLengths(t *testing.T) {
	h := &LengthHistogram{}
	for l := 1; l <= 50; l++ {
		h.add(l, 1)
	}
	doctable := BuildDoctable(h, 1275)
	ShuffleDoctable(rng.New(17), doctable)
	assert.Equal(t, int64(1275), SumRemaining(doctable))
}

func TestGenerateLengthHistogramNoVariance(t *testing.T) {
	src := rng.New(23)
	h, err := GenerateLengthHistogram(src, &LengthModel{Mean: 10, Stdev: 0}, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(100), h.Docs())
	assert.Equal(t, int64(100), h.Count(10))
}

func TestGenerateLengthHistogramGamma(t *testing.T) {
	src := rng.New(23)
	h, err := GenerateLengthHistogram(src, &LengthModel{GammaShape: 5, GammaScale: 2}, 10000)
	require.NoError(t, err)
	assert.Greater(t, h.Docs(), int64(0))
	var total int64
	for l := 1; l <= h.MaxLength(); l++ {
		total += h.Count(l) * int64(l)
	}
	assert.GreaterOrEqual(t, total, int64(10000))
}

func TestParseLengthSegments(t *testing.T) {
	lengths, cumprobs, err := ParseLengthSegments("4:1,0.333333;10,0.500000;200,0.666667;5000,1.000000")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 10, 200, 5000}, lengths)
	assert.InDelta(t, 1.0, cumprobs[3], 1e-9)

	_, _, err = ParseLengthSegments("2:10,0.5;5,1.0")
	assert.Error(t, err, "descending lengths must be rejected")

	_, _, err = ParseLengthSegments("2:1,0.5;10,0.9")
	assert.Error(t, err, "cumprob short of 1.0 must be rejected")
}

func TestReadLengthHistogram(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.doclenhist")
	content := "# comment\n0\t5\n10\t100\n20\t50\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	// 10*100 + 20*50 = 2000 postings represented; budget matches, so no
	// scaling distortion.
	h, err := ReadLengthHistogram(path, 2000)
	require.NoError(t, err)
	assert.Equal(t, int64(100), h.Count(10))
	assert.Equal(t, int64(50), h.Count(20))
	assert.Equal(t, int64(0), h.Count(5), "zero lengths are ignored")

	// Half the budget halves the counts.
	h, err = ReadLengthHistogram(path, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(50), h.Count(10))
	assert.Equal(t, int64(25), h.Count(20))
}
