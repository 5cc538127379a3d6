package corpus

import (
	"fmt"

	"synthacorpus/pkg/logger"
	"synthacorpus/pkg/rng"
	"synthacorpus/pkg/shuffle"
)

// MaxRandomRetries bounds the number of random document picks per
// placement. Because the non-full partition ignores length, retries only
// happen when a multi-word term meets a nearly full document, so hitting
// the bound indicates an allocator bug.
const MaxRandomRetries = 5000

// Outcome reports how a placement attempt ended.
type Outcome int

const (
	// Placed means the instance was written into a document.
	Placed Outcome = iota
	// AllDocsFull means there are no slots left anywhere.
	AllDocsFull
	// RetriesExhausted means no picked document could hold the term.
	RetriesExhausted
)

// Placer scatters term occurrences across the documents of a doctable,
// maintaining the partition of the table into non-full entries
// [0, nonFull) and full entries [nonFull, len).
type Placer struct {
	src      *rng.Source
	doctable []DocEntry
	occ      []Posting
	nonFull  int64
	numFull  int64
}

// NewPlacer builds a placer over a pointered doctable and an occurrence
// array sized to the posting budget.
func NewPlacer(src *rng.Source, doctable []DocEntry, budget int64) *Placer {
	return &Placer{
		src:      src,
		doctable: doctable,
		occ:      make([]Posting, budget),
		nonFull:  int64(len(doctable)),
	}
}

// Occurrences returns the term-occurrence array.
func (p *Placer) Occurrences() []Posting { return p.occ }

// NonFull returns the count of documents with remaining slots.
func (p *Placer) NonFull() int64 { return p.nonFull }

// PlaceInstance writes one instance of a term (a single rank, or an
// n-gram of 2..6 ranks whose internal order is preserved) into a randomly
// chosen non-full document.
func (p *Placer) PlaceInstance(termids []uint32, ngram bool) (Outcome, error) {
	arity := uint32(len(termids))
	for try := 0; try < MaxRandomRetries; try++ {
		if p.nonFull < 1 {
			logger.Warn("all documents are full")
			return AllDocsFull, nil
		}
		var j int64
		if p.nonFull > 1 {
			j, _ = p.src.Int64Between(0, p.nonFull-1)
		}
		entry := p.doctable[j]
		pointer := entry.Pointer()
		remaining := entry.Remaining()
		if remaining < arity {
			continue
		}

		for k, tid := range termids {
			if pointer >= uint64(len(p.occ)) {
				return 0, fmt.Errorf("pointer %d beyond occurrence array of %d (doc %d, %d non-full)",
					pointer, len(p.occ), j, p.nonFull)
			}
			posting := NewPosting(tid)
			if ngram {
				if k == 0 {
					posting |= StartOfNgram
				} else {
					posting |= ContinuationOfNgram
				}
			}
			p.occ[pointer] = posting
			pointer++
			remaining--
		}
		p.doctable[j] = NewDocEntry(pointer, remaining)

		if remaining == 0 {
			// Swap the filled document behind the partition boundary.
			p.doctable[j], p.doctable[p.nonFull-1] = p.doctable[p.nonFull-1], p.doctable[j]
			p.nonFull--
			p.occ[pointer-1] |= FinalPosting
			p.numFull++
		}
		return Placed, nil
	}
	logger.Warn("random retry limit exceeded", "term", termids[0], "retries", MaxRandomRetries)
	return RetriesExhausted, nil
}

// PlaceUnigrams expands the remaining TOFS budget into an intermediate
// occurrence array, shuffles it globally, and places one posting per
// element. The global shuffle stops high-frequency terms, placed in rank
// order, from dominating whichever short documents remain non-full late.
func (p *Placer) PlaceUnigrams(tofs []uint64) (int64, error) {
	var remaining int64
	for _, tf := range tofs {
		remaining += int64(tf)
	}

	intermediate := make([]uint32, 0, remaining)
	for rank := uint32(1); rank <= uint32(len(tofs)); rank++ {
		for i := uint64(0); i < tofs[rank-1]; i++ {
			intermediate = append(intermediate, rank)
		}
	}
	if int64(len(intermediate)) != remaining {
		return 0, fmt.Errorf("intermediate array holds %d instances, expected %d", len(intermediate), remaining)
	}
	shuffle.Uint32s(p.src, intermediate)
	logger.Info("intermediate unigram array shuffled", "instances", remaining)

	one := make([]uint32, 1)
	for t, rank := range intermediate {
		one[0] = rank
		outcome, err := p.PlaceInstance(one, false)
		if err != nil {
			return int64(t), err
		}
		if outcome != Placed {
			return int64(t), fmt.Errorf("unigram placement failed at instance %d of %d (outcome %d)", t, remaining, outcome)
		}
	}
	return remaining, nil
}

// CheckOccurrences verifies that every slot was written and that exactly
// numDocs postings carry the final-posting flag.
func CheckOccurrences(occ []Posting, numDocs int64) error {
	var zeroes, finals int64
	for _, p := range occ {
		if p.IsFinal() {
			finals++
		}
		if p.Rank() == 0 {
			zeroes++
		}
	}
	if zeroes > 0 {
		return fmt.Errorf("%d occurrence slots were never written", zeroes)
	}
	if finals != numDocs {
		return fmt.Errorf("found %d end-of-document markers, expected %d", finals, numDocs)
	}
	return nil
}
