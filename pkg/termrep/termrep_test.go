package termrep

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synthacorpus/pkg/rng"
)

func TestTableSlots(t *testing.T) {
	table := NewTable(3)
	table.SetWord(1, "alpha")
	table.SetWord(2, "be")
	table.SetWord(3, "a")

	assert.Equal(t, "alpha", table.Word(1))
	assert.Equal(t, "be", table.Word(2))
	assert.Equal(t, 5, table.Len(1))
	assert.Equal(t, 1, table.Len(3))

	// Out-of-range ranks map to the reserved entry.
	assert.Equal(t, Unknown, table.Word(0))
	assert.Equal(t, Unknown, table.Word(99))

	// Overlong words are truncated to the slot width.
	table.SetWord(1, "aaaaaaaaaaaaaaaaaaaaaaaa")
	assert.Equal(t, MaxTermLen, table.Len(1))
}

func TestFillTnum(t *testing.T) {
	src := rng.New(1)
	table, n, err := Build(src, 12, Options{Method: "tnum"})
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Equal(t, "t0", table.Word(1))
	assert.Equal(t, "t9", table.Word(10))
	// The decimal digits are emitted least significant first.
	assert.Equal(t, "t01", table.Word(11))
}

func TestFillBase26(t *testing.T) {
	src := rng.New(1)
	table, _, err := Build(src, 30, Options{Method: "base26"})
	require.NoError(t, err)
	assert.Equal(t, "a", table.Word(1))
	assert.Equal(t, "z", table.Word(26))
	assert.Equal(t, "ab", table.Word(27))

	// All representations are distinct.
	seen := map[string]bool{}
	for r := 1; r <= 30; r++ {
		w := table.Word(r)
		assert.False(t, seen[w])
		seen[w] = true
	}
}

func TestFillBubbleBabble(t *testing.T) {
	src := rng.New(1)
	table, _, err := Build(src, 100, Options{Method: "bubble_babble"})
	require.NoError(t, err)
	seen := map[string]bool{}
	for r := 1; r <= 100; r++ {
		w := table.Word(r)
		assert.NotEmpty(t, w)
		assert.False(t, seen[w], "duplicate %q at rank %d", w, r)
		seen[w] = true
		// Bubble babble alternates vowels and consonants, so every word
		// is pronounceable.
		assert.Greater(t, Pronounceability(w), 0)
	}
}

func TestFillSimpleWords(t *testing.T) {
	src := rng.New(1)
	table, _, err := Build(src, 500, Options{Method: "simpleWords"})
	require.NoError(t, err)
	for r := 1; r <= 500; r++ {
		assert.NotEmpty(t, table.Word(r))
		assert.LessOrEqual(t, table.Len(r), MaxTermLen)
	}
}

func TestFillFromTSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.tsv")
	require.NoError(t, os.WriteFile(path, []byte("the\t10\nof\t5\nand\t2\n"), 0644))

	src := rng.New(1)
	table, n, err := Build(src, 3, Options{Method: "from_tsv", InputVocab: path})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "the", table.Word(1))
	assert.Equal(t, "and", table.Word(3))

	// A short file shrinks the vocabulary rather than failing.
	table, n, err = Build(src, 10, Options{Method: "from_tsv", InputVocab: path})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, Unknown, table.Word(4))
}

func TestUnrecognizedMethod(t *testing.T) {
	_, _, err := Build(rng.New(1), 10, Options{Method: "hieroglyphs"})
	assert.Error(t, err)
}

func TestFillMarkov(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.tsv")
	tsv := "the\t100\nof\t80\nand\t60\nto\t50\nin\t40\nis\t30\nit\t20\non\t10\nat\t5\nhat\t2\n"
	require.NoError(t, os.WriteFile(path, []byte(tsv), 0644))

	table, n, err := Build(rng.New(5), 50, Options{
		Method:        "markov-1",
		InputVocab:    path,
		FullBackoff:   true,
		UseVocabProbs: true,
		AssignByRank:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, 50, n)
	seen := map[string]bool{}
	for r := 1; r <= 50; r++ {
		w := table.Word(r)
		assert.NotEmpty(t, w)
		assert.False(t, seen[w])
		seen[w] = true
	}
}

func TestFillMarkovEOWAssignsLengthsByRank(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.tsv")
	tsv := "an\t100\nto\t90\nof\t80\nin\t70\nis\t60\nseventeen\t3\nfourteens\t2\nelephants\t1\n"
	require.NoError(t, os.WriteFile(path, []byte(tsv), 0644))

	table, n, err := Build(rng.New(5), 40, Options{
		Method:        "markov-2e",
		InputVocab:    path,
		FullBackoff:   true,
		UseVocabProbs: true,
		AssignByRank:  true,
		ModelWordLens: true,
	})
	require.NoError(t, err)
	require.Equal(t, 40, n)

	// Rank-length correlation: the first ranks should on average be
	// shorter than the last ranks.
	headLen, tailLen := 0, 0
	for r := 1; r <= 10; r++ {
		headLen += len(table.Word(r))
	}
	for r := 31; r <= 40; r++ {
		tailLen += len(table.Word(r))
	}
	assert.LessOrEqual(t, headLen, tailLen)
}

func TestPronounceability(t *testing.T) {
	assert.Equal(t, 0, Pronounceability("dxq"))
	assert.Equal(t, 0, Pronounceability("x"))
	assert.Equal(t, 2, Pronounceability("axe"))
	assert.Equal(t, 2, Pronounceability("aardvark"))
	assert.Equal(t, 2, Pronounceability("do"))
	assert.Equal(t, 2, Pronounceability("odd"))
}

func TestSortByLength(t *testing.T) {
	table := NewTable(4)
	table.SetWord(1, "elephant")
	table.SetWord(2, "a")
	table.SetWord(3, "bee")
	table.SetWord(4, "ox")

	table.sortByLength(false)
	assert.Equal(t, "a", table.Word(1))
	assert.Equal(t, "ox", table.Word(2))
	assert.Equal(t, "bee", table.Word(3))
	assert.Equal(t, "elephant", table.Word(4))
}

func TestBuildLengthBuckets(t *testing.T) {
	table := NewTable(4)
	table.SetWord(1, "a")
	table.SetWord(2, "ox")
	table.SetWord(3, "up")
	table.SetWord(4, "bee")

	buckets, err := buildLengthBuckets(table, false)
	require.NoError(t, err)
	assert.Equal(t, 1, buckets[0].nextRank)
	assert.Equal(t, 1, buckets[0].maxRank)
	assert.Equal(t, 2, buckets[1].nextRank)
	assert.Equal(t, 3, buckets[1].maxRank)
	assert.Equal(t, 4, buckets[2].nextRank)

	// An unsorted table is rejected.
	table.SetWord(1, "zebra")
	_, err = buildLengthBuckets(table, false)
	assert.Error(t, err)
}
