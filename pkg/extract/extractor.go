// Package extract derives the statistical property files of a real
// corpus: the vocabulary with frequencies, the document length histogram,
// and the bigram table. These are the inputs the generator needs to
// synthesize a corpus that emulates the original.
package extract

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"sort"

	"golang.org/x/text/cases"

	"synthacorpus/pkg/logger"
	"synthacorpus/pkg/starc"
	"synthacorpus/pkg/termrep"
)

// maxWordBytes caps stored word lengths, matching the generator's term
// representations.
const maxWordBytes = 15

type termInfo struct {
	tf int64 // total occurrence frequency
	df int64 // document frequency
}

// Extractor accumulates corpus statistics over one pass of the input.
type Extractor struct {
	InputPath  string
	OutputStem string

	vocab      map[string]*termInfo
	bigrams    map[[2]string]int64
	docLengths map[int]int64
	numDocs    int64
	emptyDocs  int64
	postings   int64
	maxDocLen  int
}

// New creates an extractor for the given corpus.
func New(inputPath, outputStem string) *Extractor {
	return &Extractor{
		InputPath:  inputPath,
		OutputStem: outputStem,
		vocab:      make(map[string]*termInfo),
		bigrams:    make(map[[2]string]int64),
		docLengths: make(map[int]int64),
	}
}

// tokenize folds case and splits a document into words on non-letter
// bytes, truncating overlong words.
func tokenize(folder cases.Caser, doc []byte) []string {
	folded := folder.String(string(doc))
	words := []string{}
	start := -1
	flush := func(end int) {
		if start >= 0 {
			w := folded[start:end]
			if len(w) > maxWordBytes {
				w = w[:maxWordBytes]
			}
			words = append(words, w)
			start = -1
		}
	}
	for i := 0; i < len(folded); i++ {
		c := folded[i]
		if c >= 'a' && c <= 'z' {
			if start < 0 {
				start = i
			}
		} else {
			flush(i)
		}
	}
	flush(len(folded))
	return words
}

// Run scans the corpus once and writes all property files.
func (e *Extractor) Run() error {
	folder := cases.Fold()

	err := starc.Documents(e.InputPath, func(doc []byte) error {
		// Tab-separated corpora carry weight and docnum columns after
		// the text.
		if tab := bytes.IndexByte(doc, '\t'); tab >= 0 {
			doc = doc[:tab]
		}
		words := tokenize(folder, doc)
		e.numDocs++
		if len(words) == 0 {
			e.emptyDocs++
			return nil
		}
		e.docLengths[len(words)]++
		if len(words) > e.maxDocLen {
			e.maxDocLen = len(words)
		}
		e.postings += int64(len(words))

		seen := make(map[string]bool, len(words))
		for i, w := range words {
			info := e.vocab[w]
			if info == nil {
				info = &termInfo{}
				e.vocab[w] = info
			}
			info.tf++
			if !seen[w] {
				info.df++
				seen[w] = true
			}
			if i > 0 {
				e.bigrams[[2]string{words[i-1], w}]++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("corpus scanned",
		"docs", e.numDocs, "emptyDocs", e.emptyDocs,
		"postings", e.postings, "vocab", len(e.vocab))

	freqRanks := e.frequencyRanks()
	if err := e.writeVocab(freqRanks); err != nil {
		return err
	}
	if err := e.writeVocabByFreq(); err != nil {
		return err
	}
	if err := e.writeDocLenHist(); err != nil {
		return err
	}
	if err := e.writeBigrams(freqRanks); err != nil {
		return err
	}
	return e.writeSummary()
}

// frequencyRanks assigns each word its 1-based rank in descending
// frequency order, ties broken alphabetically.
func (e *Extractor) frequencyRanks() map[string]int {
	words := make([]string, 0, len(e.vocab))
	for w := range e.vocab {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		ti, tj := e.vocab[words[i]].tf, e.vocab[words[j]].tf
		if ti != tj {
			return ti > tj
		}
		return words[i] < words[j]
	})
	ranks := make(map[string]int, len(words))
	for i, w := range words {
		ranks[w] = i + 1
	}
	return ranks
}

func (e *Extractor) writeFile(suffix string, fn func(w *bufio.Writer) error) error {
	path := e.OutputStem + suffix
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	w := bufio.NewWriterSize(f, 1<<20)
	if err := fn(w); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// writeVocab emits the alphabetic vocabulary: word, tf, df, and the
// word's rank in the frequency ordering.
func (e *Extractor) writeVocab(freqRanks map[string]int) error {
	words := make([]string, 0, len(e.vocab))
	for w := range e.vocab {
		words = append(words, w)
	}
	sort.Strings(words)
	return e.writeFile("_vocab.tsv", func(w *bufio.Writer) error {
		for _, word := range words {
			info := e.vocab[word]
			if _, err := fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", word, info.tf, info.df, freqRanks[word]); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeVocabByFreq emits the vocabulary in descending frequency order,
// the format the generator trains on.
func (e *Extractor) writeVocabByFreq() error {
	words := make([]string, 0, len(e.vocab))
	for w := range e.vocab {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		ti, tj := e.vocab[words[i]].tf, e.vocab[words[j]].tf
		if ti != tj {
			return ti > tj
		}
		return words[i] < words[j]
	})
	return e.writeFile("_vocab_by_freq.tsv", func(w *bufio.Writer) error {
		for _, word := range words {
			if _, err := fmt.Fprintf(w, "%s\t%d\n", word, e.vocab[word].tf); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Extractor) writeDocLenHist() error {
	return e.writeFile(".doclenhist", func(w *bufio.Writer) error {
		if _, err := fmt.Fprintf(w, "# Document length histogram for %s\n# length\tcount\n", e.InputPath); err != nil {
			return err
		}
		for l := 1; l <= e.maxDocLen; l++ {
			if count := e.docLengths[l]; count > 0 {
				if _, err := fmt.Fprintf(w, "%d\t%d\n", l, count); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// writeBigrams emits adjacent-pair statistics as termid tuples in the
// frequency ranking, the format the pre-placer reads. Hapax pairs are
// noise and are dropped.
func (e *Extractor) writeBigrams(freqRanks map[string]int) error {
	type pair struct {
		key  [2]string
		freq int64
	}
	pairs := make([]pair, 0, len(e.bigrams))
	for k, f := range e.bigrams {
		if f >= 2 {
			pairs = append(pairs, pair{k, f})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].freq != pairs[j].freq {
			return pairs[i].freq > pairs[j].freq
		}
		return pairs[i].key[0] < pairs[j].key[0]
	})
	return e.writeFile("_bigrams.termids", func(w *bufio.Writer) error {
		for _, p := range pairs {
			if _, err := fmt.Fprintf(w, "N(%d,%d):%d\n",
				freqRanks[p.key[0]], freqRanks[p.key[1]], p.freq); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeSummary emits a markdown report of the headline statistics; the
// report subcommand renders it to HTML.
func (e *Extractor) writeSummary() error {
	meanLen := 0.0
	if e.numDocs > e.emptyDocs {
		meanLen = float64(e.postings) / float64(e.numDocs-e.emptyDocs)
	}
	singletons := int64(0)
	for _, info := range e.vocab {
		if info.tf == 1 {
			singletons++
		}
	}
	singletonPerc := 0.0
	if len(e.vocab) > 0 {
		singletonPerc = float64(singletons) * 100.0 / float64(len(e.vocab))
	}
	return e.writeFile("_summary.md", func(w *bufio.Writer) error {
		_, err := fmt.Fprintf(w, `# Corpus properties: %s

| Property | Value |
|---|---|
| Documents | %d |
| Empty documents | %d |
| Postings | %d |
| Vocabulary size | %d |
| Singleton terms | %d (%.1f%%) |
| Mean document length | %.2f |
| Longest document | %d |
| Bigrams recorded | %d |

The companion files %s_vocab.tsv, %s_vocab_by_freq.tsv, %s.doclenhist and
%s_bigrams.termids hold the full distributions. The reserved out-of-vocabulary
token is %q.
`, e.InputPath, e.numDocs, e.emptyDocs, e.postings, len(e.vocab),
			singletons, singletonPerc, meanLen, e.maxDocLen, len(e.bigrams),
			e.OutputStem, e.OutputStem, e.OutputStem, e.OutputStem, termrep.Unknown)
		return err
	})
}
