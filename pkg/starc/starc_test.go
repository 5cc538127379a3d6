package starc

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synthacorpus/pkg/corpus"
	"synthacorpus/pkg/rng"
	"synthacorpus/pkg/termrep"
)

func testTable(t *testing.T, words ...string) *termrep.Table {
	t.Helper()
	table := termrep.NewTable(len(words))
	for i, w := range words {
		table.SetWord(i+1, w)
	}
	return table
}

func docOccurrences() []corpus.Posting {
	return []corpus.Posting{
		corpus.NewPosting(1),
		corpus.NewPosting(2),
		corpus.NewPosting(1) | corpus.FinalPosting,
		corpus.NewPosting(3) | corpus.FinalPosting,
	}
}

func TestWriteArchiveRoundTrip(t *testing.T) {
	table := testTable(t, "apple", "pear", "quince")
	var buf bytes.Buffer
	n, err := WriteArchive(&buf, docOccurrences(), table, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var headers, docs []string
	err = ScanRecords(buf.Bytes(), func(rec Record) error {
		if rec.Type == 'H' {
			headers = append(headers, string(rec.Body))
		} else {
			docs = append(docs, string(rec.Body))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Doc00000000", "Doc00000001"}, headers)
	assert.Equal(t, []string{"apple pear apple\n", "quince\n"}, docs)
}

func TestWriteArchiveNoHeaders(t *testing.T) {
	table := testTable(t, "apple", "pear", "quince")
	var buf bytes.Buffer
	_, err := WriteArchive(&buf, docOccurrences(), table, false)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "H ")
}

func TestWriteTSV(t *testing.T) {
	table := testTable(t, "apple", "pear", "quince")
	var buf bytes.Buffer
	n, err := WriteTSV(&buf, docOccurrences(), table, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, "apple pear apple\t1\nquince\t1\n", buf.String())

	buf.Reset()
	_, err = WriteTSV(&buf, docOccurrences(), table, true)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "\t1\tDoc0"))
	assert.True(t, strings.HasSuffix(lines[1], "\t1\tDoc1"))
}

func TestUnknownRankWritesReservedEntry(t *testing.T) {
	table := testTable(t, "apple")
	occ := []corpus.Posting{corpus.NewPosting(9) | corpus.FinalPosting}
	var buf bytes.Buffer
	_, err := WriteTSV(&buf, occ, table, false)
	require.NoError(t, err)
	assert.Equal(t, termrep.Unknown+"\t1\n", buf.String())
}

func TestCheckValidArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.starc")

	table := testTable(t, "apple", "pear", "quince")
	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = WriteArchive(f, docOccurrences(), table, true)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	h, d, tr, err := Check(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), h)
	assert.Equal(t, int64(2), d)
	assert.Equal(t, int64(0), tr)
}

func TestCheckRejectsCorruption(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.starc")
	require.NoError(t, os.WriteFile(bad, []byte(" 5X hello"), 0644))
	_, _, _, err := Check(bad)
	assert.Error(t, err, "unknown record type")

	overrun := filepath.Join(dir, "overrun.starc")
	require.NoError(t, os.WriteFile(overrun, []byte(" 99D hi"), 0644))
	_, _, _, err = Check(overrun)
	assert.Error(t, err, "record extending beyond end of file")
}

func TestCountDocsSTARC(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.starc")

	table := testTable(t, "apple", "pear", "quince")
	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = WriteArchive(f, docOccurrences(), table, true)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// Headers lead each document group, so groups are counted once.
	n, err := CountDocs(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestCountDocsLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.tsv")
	require.NoError(t, os.WriteFile(path, []byte("a b c\t1\nd e\t1\nf\t1\n"), 0644))
	n, err := CountDocs(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestDocumentsVisitsBodies(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.starc")
	table := testTable(t, "apple", "pear", "quince")
	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = WriteArchive(f, docOccurrences(), table, true)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	var docs []string
	require.NoError(t, Documents(path, func(doc []byte) error {
		docs = append(docs, string(doc))
		return nil
	}))
	assert.Equal(t, []string{"apple pear apple", "quince"}, docs)
}

func TestSelectHead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.tsv")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\nthree\nfour\n"), 0644))

	var out bytes.Buffer
	n, err := SelectRecords(rng.New(1), path, &out, SelectOptions{Mode: SelectHead, HeadCount: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, "one\ntwo\n", out.String())
}

func TestSelectRandomKeepsPairs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.starc")
	table := testTable(t, "apple", "pear", "quince")
	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = WriteArchive(f, docOccurrences(), table, true)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	var out bytes.Buffer
	_, err = SelectRecords(rng.New(1), path, &out, SelectOptions{Mode: SelectRandom, Proportion: 1.0})
	require.NoError(t, err)

	// Selecting everything reproduces a valid archive with headers
	// still paired to their documents.
	var types []byte
	require.NoError(t, ScanRecords(out.Bytes(), func(rec Record) error {
		types = append(types, rec.Type)
		return nil
	}))
	assert.Equal(t, []byte{'H', 'D', 'H', 'D'}, types)
}
