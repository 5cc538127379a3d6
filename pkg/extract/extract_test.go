package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/text/cases"
)

func TestTokenize(t *testing.T) {
	folder := cases.Fold()
	words := tokenize(folder, []byte("The cat, the CAT; 42 cats!"))
	assert.Equal(t, []string{"the", "cat", "the", "cat", "cats"}, words)

	words = tokenize(folder, []byte("   "))
	assert.Empty(t, words)

	words = tokenize(folder, []byte("supercalifragilisticexpialidocious"))
	require.Len(t, words, 1)
	assert.Len(t, words[0], maxWordBytes)
}

func TestExtractorOutputs(t *testing.T) {
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "corpus.tsv")
	content := "the cat sat\nthe cat ran\nthe dog sat on the mat\n"
	require.NoError(t, os.WriteFile(corpusPath, []byte(content), 0644))

	stem := filepath.Join(dir, "props")
	require.NoError(t, New(corpusPath, stem).Run())

	vocab, err := os.ReadFile(stem + "_vocab.tsv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(vocab)), "\n")
	// cat, dog, mat, on, ran, sat, the -- alphabetic order.
	require.Len(t, lines, 7)
	assert.True(t, strings.HasPrefix(lines[0], "cat\t2\t2\t"))
	assert.True(t, strings.HasPrefix(lines[6], "the\t4\t3\t1"), "the is rank 1: %q", lines[6])

	byFreq, err := os.ReadFile(stem + "_vocab_by_freq.tsv")
	require.NoError(t, err)
	freqLines := strings.Split(strings.TrimSpace(string(byFreq)), "\n")
	assert.Equal(t, "the\t4", freqLines[0])

	histo, err := os.ReadFile(stem + ".doclenhist")
	require.NoError(t, err)
	assert.Contains(t, string(histo), "3\t2\n")
	assert.Contains(t, string(histo), "6\t1\n")

	bigrams, err := os.ReadFile(stem + "_bigrams.termids")
	require.NoError(t, err)
	// "the cat" occurs twice; with "the" at rank 1 and "cat" at rank 2
	// it appears as N(1,2):2.
	assert.Contains(t, string(bigrams), "N(1,2):2\n")

	summary, err := os.ReadFile(stem + "_summary.md")
	require.NoError(t, err)
	assert.Contains(t, string(summary), "| Documents | 3 |")
	assert.Contains(t, string(summary), "| Postings | 12 |")
}
