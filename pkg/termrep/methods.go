package termrep

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"synthacorpus/pkg/logger"
	"synthacorpus/pkg/markov"
	"synthacorpus/pkg/rng"
)

// Options carries everything the representation methods may need.
type Options struct {
	// Method is one of tnum, base26, bubble_babble, simpleWords,
	// from_tsv, or markov-<k>[e].
	Method string

	// InputVocab is the vocabulary TSV for from_tsv and the markov
	// methods.
	InputVocab string

	// Markov variant switches.
	Lambda             float64
	FullBackoff        bool
	UseVocabProbs      bool
	AssignByRank       bool
	FavourPronounce    bool
	ModelWordLens      bool
}

var markovMethodRE = regexp.MustCompile(`^markov-([0-7])(e?)$`)

// Build fills a term-representation table for vocabSize terms using the
// configured method. The returned vocabulary size may be smaller than
// requested when from_tsv runs out of input words.
func Build(src *rng.Source, vocabSize int, opts Options) (*Table, int, error) {
	t := NewTable(vocabSize)
	logger.Info("building term representations", "method", opts.Method, "vocabSize", vocabSize)

	switch {
	case opts.Method == "tnum":
		fillTnum(t)
	case opts.Method == "base26":
		fillBase26(t)
	case opts.Method == "bubble_babble":
		fillBubbleBabble(t)
	case opts.Method == "simpleWords":
		fillSimpleWords(t)
	case opts.Method == "from_tsv":
		n, err := fillFromTSV(t, opts.InputVocab)
		if err != nil {
			return nil, 0, err
		}
		vocabSize = n
	default:
		match := markovMethodRE.FindStringSubmatch(opts.Method)
		if match == nil {
			return nil, 0, fmt.Errorf("unrecognized term representation method %q", opts.Method)
		}
		order := int(match[1][0] - '0')
		useEOW := match[2] == "e"
		if err := fillMarkov(t, src, order, useEOW, opts); err != nil {
			return nil, 0, err
		}
	}

	if err := t.checkForNullWords(); err != nil {
		return nil, 0, err
	}
	return t, vocabSize, nil
}

// fillTnum writes 't' followed by the reversed decimal term number.
func fillTnum(t *Table) {
	var buf [MaxTermLen]byte
	for rank := 1; rank <= t.vocabSize; rank++ {
		n := rank - 1
		l := 0
		buf[l] = 't'
		l++
		for {
			if l >= MaxTermLen {
				break
			}
			buf[l] = byte('0' + n%10)
			l++
			n /= 10
			if n == 0 {
				break
			}
		}
		t.SetWord(rank, string(buf[:l]))
	}
}

// fillBase26 writes the term number as reversed base-26 letters.
func fillBase26(t *Table) {
	var buf [MaxTermLen]byte
	for rank := 1; rank <= t.vocabSize; rank++ {
		n := rank - 1
		l := 0
		for {
			if l >= MaxTermLen {
				break
			}
			buf[l] = byte('a' + n%26)
			l++
			n /= 26
			if n == 0 {
				break
			}
		}
		t.SetWord(rank, string(buf[:l]))
	}
}

func fillBubbleBabble(t *Table) {
	for rank := 1; rank <= t.vocabSize; rank++ {
		t.SetWord(rank, bubbleBabble(uint32(rank-1)))
	}
}

func fillSimpleWords(t *Table) {
	for rank := 1; rank <= t.vocabSize; rank++ {
		t.SetWord(rank, simpleWord(uint64(rank-1)))
	}
}

// fillFromTSV copies the first column of the input vocabulary into the
// table. A short file shrinks the vocabulary with a warning.
func fillFromTSV(t *Table, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("reading term representations: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	rank := 0
	for scanner.Scan() {
		line := scanner.Text()
		tab := strings.IndexByte(line, '\t')
		if tab < 0 {
			return 0, fmt.Errorf("%s line %d: no TAB found", path, rank+1)
		}
		rank++
		t.SetWord(rank, line[:tab])
		if rank >= t.vocabSize {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("reading term representations: %w", err)
	}
	if rank < t.vocabSize {
		logger.Warn("requested vocabulary reduced to input size", "requested", t.vocabSize, "actual", rank)
		t.vocabSize = rank
		t.setSlot(rank, Unknown)
	}
	return t.vocabSize, nil
}

// fillMarkov trains the transition matrices on the input vocabulary and
// samples a unique word per rank, then optionally redistributes the words
// so length correlates with rank.
func fillMarkov(t *Table, src *rng.Source, order int, useEOW bool, opts Options) error {
	f, err := os.Open(opts.InputVocab)
	if err != nil {
		return fmt.Errorf("opening training vocabulary: %w", err)
	}
	model, err := markov.Train(markov.Config{
		Order:         order,
		UseEOW:        useEOW,
		FullBackoff:   opts.FullBackoff,
		Lambda:        opts.Lambda,
		UseVocabProbs: opts.UseVocabProbs,
		AssignByRank:  opts.AssignByRank,
	}, f)
	f.Close()
	if err != nil {
		return err
	}

	sampler := markov.NewSampler(model, src)
	for rank := 1; rank <= t.vocabSize; rank++ {
		word, err := sampler.UniqueWord(uint32(rank))
		if err != nil {
			return err
		}
		t.SetWord(rank, word)
	}
	logger.Info("synthetic vocabulary filled in", "words", t.vocabSize)

	if useEOW && opts.ModelWordLens {
		// Self-terminated words carry no rank correlation; impose it.
		if err := t.checkForNullWords(); err != nil {
			return err
		}
		t.sortByLength(opts.FavourPronounce)
		if err := assignByLength(t, src, model.LenProbs, opts.FavourPronounce); err != nil {
			return err
		}
	}

	compareLengthDistributions(t, model)
	return nil
}

// compareLengthDistributions logs the rank-bucketed mean word lengths of
// the generated vocabulary against the training corpus.
func compareLengthDistributions(t *Table, model *markov.Model) {
	var counts, means, stdevs [markov.NumRankBuckets]float64
	for rank := 1; rank <= t.vocabSize; rank++ {
		l := t.Len(rank)
		if l == 0 {
			continue
		}
		b := rankBucket(rank)
		counts[b]++
		means[b] += float64(l)
		stdevs[b] += float64(l * l)
	}
	for b := 0; b < markov.NumRankBuckets; b++ {
		if counts[b] == 0 {
			continue
		}
		mean := means[b] / counts[b]
		logger.Info("word length by rank bucket",
			"bucket", b, "baseMean", model.BaseMeans[b], "mimicMean", mean)
	}
}
