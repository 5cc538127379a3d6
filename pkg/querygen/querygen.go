// Package querygen builds simulated known-item queries against a corpus,
// using the discriminative selection method of Azzopardi, de Rijke and
// Balog (SIGIR 2007): terms are picked from the target document with
// probability proportional to their within-document frequency over their
// collection frequency.
package querygen

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"synthacorpus/pkg/logger"
	"synthacorpus/pkg/rng"
	"synthacorpus/pkg/starc"
	"synthacorpus/pkg/termrep"
)

// Options configures query generation.
type Options struct {
	CorpusPath string
	VocabPath  string // descending-frequency vocab TSV (word TAB freq)
	NumQueries int
	MeanLen    float64
	StdevLen   float64
}

// loadCollectionFreqs reads a descending-frequency vocab TSV into a
// word -> collection frequency map.
func loadCollectionFreqs(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary: %w", err)
	}
	defer f.Close()

	freqs := make(map[string]float64)
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("%s line %d: no TAB found", path, line)
		}
		freq, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad frequency: %w", path, line, err)
		}
		freqs[fields[0]] = freq
	}
	return freqs, scanner.Err()
}

// Generate emits known-item queries as "query terms TAB Doc<n>" lines.
func Generate(src *rng.Source, opts Options, w io.Writer) error {
	ctf, err := loadCollectionFreqs(opts.VocabPath)
	if err != nil {
		return err
	}

	var docs [][]string
	folder := cases.Fold()
	err = starc.Documents(opts.CorpusPath, func(doc []byte) error {
		text := string(doc)
		if tab := strings.IndexByte(text, '\t'); tab >= 0 {
			text = text[:tab]
		}
		docs = append(docs, strings.Fields(folder.String(text)))
		return nil
	})
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("corpus %s holds no documents", opts.CorpusPath)
	}

	bw := bufio.NewWriter(w)
	emitted := 0
	for emitted < opts.NumQueries {
		d, _ := src.Int64Between(0, int64(len(docs))-1)
		words := docs[d]
		if len(words) == 0 {
			continue
		}

		// Distinct terms weighted by tf/ctf.
		type cand struct {
			word   string
			weight float64
		}
		tf := make(map[string]float64)
		for _, word := range words {
			tf[word]++
		}
		var cands []cand
		total := 0.0
		for word, f := range tf {
			cf := ctf[word]
			if cf <= 0 {
				cf = 1
			}
			weight := f / cf
			cands = append(cands, cand{word, weight})
			total += weight
		}

		length := int(math.Round(src.Normal(opts.MeanLen, opts.StdevLen)))
		if length < 1 {
			length = 1
		}
		if length > len(cands) {
			length = len(cands)
		}

		picked := make([]string, 0, length)
		used := make(map[string]bool, length)
		for len(picked) < length {
			r := src.Uniform() * total
			acc := 0.0
			choice := cands[len(cands)-1].word
			for _, c := range cands {
				acc += c.weight
				if r <= acc {
					choice = c.word
					break
				}
			}
			if used[choice] {
				continue
			}
			used[choice] = true
			picked = append(picked, choice)
		}

		if _, err := fmt.Fprintf(bw, "%s\tDoc%d\n", strings.Join(picked, " "), d); err != nil {
			return err
		}
		emitted++
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	logger.Info("queries generated", "count", emitted, "docs", len(docs))
	return nil
}

// EmulateLog translates a base query log into the emulated corpus's
// vocabulary: each base word is replaced by the emulated word holding the
// same frequency rank. Words absent from the base vocabulary become the
// reserved unknown token.
func EmulateLog(baseLog io.Reader, baseVocabPath, emuVocabPath string, w io.Writer) error {
	baseRanks, err := loadRanks(baseVocabPath)
	if err != nil {
		return err
	}
	emuWords, err := loadWords(emuVocabPath)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	folder := cases.Fold()
	scanner := bufio.NewScanner(baseLog)
	var queries int64
	for scanner.Scan() {
		words := strings.Fields(folder.String(scanner.Text()))
		out := make([]string, 0, len(words))
		for _, word := range words {
			rank, ok := baseRanks[word]
			if !ok || rank > len(emuWords) {
				out = append(out, termrep.Unknown)
				continue
			}
			out = append(out, emuWords[rank-1])
		}
		if _, err := fmt.Fprintln(bw, strings.Join(out, " ")); err != nil {
			return err
		}
		queries++
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	logger.Info("query log emulated", "queries", queries)
	return nil
}

// loadRanks maps each word of a descending-frequency vocab TSV to its
// 1-based rank.
func loadRanks(path string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary: %w", err)
	}
	defer f.Close()

	ranks := make(map[string]int)
	scanner := bufio.NewScanner(f)
	rank := 0
	for scanner.Scan() {
		rank++
		line := scanner.Text()
		if tab := strings.IndexByte(line, '\t'); tab >= 0 {
			line = line[:tab]
		}
		ranks[line] = rank
	}
	return ranks, scanner.Err()
}

// loadWords reads the word column of a descending-frequency vocab TSV in
// rank order.
func loadWords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary: %w", err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if tab := strings.IndexByte(line, '\t'); tab >= 0 {
			line = line[:tab]
		}
		words = append(words, line)
	}
	return words, scanner.Err()
}
