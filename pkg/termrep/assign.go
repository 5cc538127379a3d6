package termrep

import (
	"fmt"
	"math"

	"synthacorpus/pkg/markov"
	"synthacorpus/pkg/rng"
)

func rankBucket(rank int) int {
	b := int(math.Floor(math.Log10(float64(rank))))
	if b >= markov.NumRankBuckets {
		b = markov.NumRankBuckets - 1
	}
	return b
}

// sortByLength reorders the table by ascending (penalised) length using a
// counting sort over the length histogram. Each slot's length byte keeps
// the word's true length.
func (t *Table) sortByLength(favourPronounce bool) {
	var histo [MaxTermLen + 1]int

	words := make([]string, t.vocabSize)
	lens := make([]int, t.vocabSize)
	for r := 1; r <= t.vocabSize; r++ {
		words[r-1] = t.Word(r)
		lens[r-1] = penalisedLen(words[r-1], favourPronounce)
		histo[lens[r-1]]++
	}

	sum := 0
	for l := 0; l <= MaxTermLen; l++ {
		count := histo[l]
		histo[l] = sum
		sum += count
	}

	for i, w := range words {
		slot := histo[lens[i]]
		histo[lens[i]]++
		t.setSlot(slot, w)
	}
}

// lengthBucket records the rank range still available for words of one
// length: nextRank is the rank the next word of that length will take,
// and the bucket is exhausted once nextRank > maxRank.
type lengthBucket struct {
	nextRank int
	maxRank  int
}

// buildLengthBuckets scans a length-sorted table and records the first
// and last ranks occupied by each length.
func buildLengthBuckets(t *Table, favourPronounce bool) ([]lengthBucket, error) {
	buckets := make([]lengthBucket, MaxTermLen)
	for i := range buckets {
		// Lengths with no words start out genuinely full.
		buckets[i] = lengthBucket{nextRank: t.vocabSize + 1, maxRank: t.vocabSize}
	}
	prev := 0
	for r := 1; r <= t.vocabSize; r++ {
		l := penalisedLen(t.Word(r), favourPronounce)
		if l < prev {
			return nil, fmt.Errorf("term table is not sorted by increasing length at rank %d", r)
		}
		if l > prev {
			buckets[l-1].nextRank = r
			if prev > 0 {
				buckets[prev-1].maxRank = r - 1
			}
			prev = l
		}
	}
	return buckets, nil
}

// biasedPick chooses an index from a row of cumulative probabilities,
// falling back to a uniform pick if the row is all zero.
func biasedPick(src *rng.Source, probvec []float64) int {
	r := src.Uniform()
	for e, cum := range probvec {
		if r < cum {
			return e
		}
	}
	return int(math.Floor(r * float64(len(probvec))))
}

// betterLength finds a usable length bucket near one that turned out to
// be exhausted, searching upward first and then downward.
func betterLength(useless int, buckets []lengthBucket, numTerms int) (int, error) {
	l := useless + 1
	for l <= MaxTermLen && buckets[l-1].nextRank > buckets[l-1].maxRank {
		l++
	}
	if l <= MaxTermLen && buckets[l-1].nextRank <= numTerms {
		return l, nil
	}

	l = useless - 1
	for l > 0 && (buckets[l-1].nextRank > buckets[l-1].maxRank || buckets[l-1].nextRank > numTerms) {
		l--
	}
	if l <= 0 || buckets[l-1].nextRank > numTerms {
		return 0, fmt.Errorf("no length bucket has room near length %d", useless)
	}
	return l, nil
}

// assignByLength redistributes a length-sorted table so each rank gets a
// word whose length is drawn from that rank bucket's observed length
// distribution.
func assignByLength(t *Table, src *rng.Source, lenProbs []float64, favourPronounce bool) error {
	buckets, err := buildLengthBuckets(t, favourPronounce)
	if err != nil {
		return err
	}

	assigned := make([]string, t.vocabSize)
	for rank := 1; rank <= t.vocabSize; rank++ {
		lbuk := rankBucket(rank)
		row := lenProbs[lbuk*MaxTermLen : (lbuk+1)*MaxTermLen]
		l := biasedPick(src, row) + 1
		for l > 1 && buckets[l-1].nextRank > t.vocabSize {
			l--
		}
		if buckets[l-1].nextRank > buckets[l-1].maxRank {
			l, err = betterLength(l, buckets, t.vocabSize)
			if err != nil {
				return err
			}
		}
		chosen := buckets[l-1].nextRank
		if chosen > t.vocabSize {
			return fmt.Errorf("rank assignment chose %d beyond vocabulary %d", chosen, t.vocabSize)
		}
		assigned[rank-1] = t.Word(chosen)
		buckets[l-1].nextRank++
	}

	for rank := 1; rank <= t.vocabSize; rank++ {
		t.SetWord(rank, assigned[rank-1])
	}
	return nil
}
