package zipf

import (
	"fmt"
	"math"

	"synthacorpus/pkg/logger"
)

// Synthesize produces the term-occurrence-frequency array for a vocabulary
// of vocabSize terms and exactly postings postings. TOFS[r-1] is the
// occurrence frequency of the term of rank r.
//
// Priority order when the three goals conflict: the posting count and the
// vocabulary size are met exactly; the singleton percentage is approximated.
func Synthesize(m *Model, postings int64, vocabSize int) ([]uint64, error) {
	if vocabSize < 1 || postings < int64(vocabSize) {
		return nil, fmt.Errorf("cannot fit %d distinct terms into %d postings", vocabSize, postings)
	}

	tofs := make([]uint64, vocabSize)
	dPostings := float64(postings)
	limit := postings

	headPostings := 0.0
	if m.HeadTerms() > 0 {
		headPostings = m.HeadCumProbs[m.HeadTerms()-1] * dPostings
	}
	tailPostings := 0.0
	if m.TailPerc > 0 {
		tailPostings = m.TailPerc * float64(vocabSize) / 100.0
	}
	middlePostings := dPostings - headPostings - tailPostings

	logger.Debug("TFD targets",
		"head", headPostings, "middle", middlePostings, "tail", tailPostings)

	var posting int64
	var trank uint32
	var nonTailSingletons, tailSingletons int64
	allFull := false

	// Head terms: each takes its slice of the cumulative probability.
	for ht := 0; ht < m.HeadTerms(); ht++ {
		postingLimit := int64(math.Floor(m.HeadCumProbs[ht] * dPostings))
		if postingLimit > limit {
			postingLimit = limit
		}
		tf := postingLimit - posting
		if tf <= 0 {
			allFull = true
			break
		}
		tofs[ht] = uint64(tf)
		posting += tf
		trank = uint32(ht + 1)
		if tf == 1 {
			nonTailSingletons++
		}
	}

	if !allFull {
		// Calibrate the fudge factor by trial allocation, then refine.
		fudge := middleFudgeFactor(m, middlePostings, dPostings, 1.0)
		for i := 0; i < 20; i++ {
			f0 := middleFudgeFactor(m, middlePostings, dPostings, fudge)
			fudge *= f0
			if math.Abs(f0-1.0) < 1e-9 {
				break
			}
		}

		carry := 0.0
		for si := range m.Segments {
			seg := &m.Segments[si]
			for r := uint32(seg.F); r <= uint32(seg.L); r++ {
				area := seg.unitArea(r) * fudge
				tf := dPostings*area + carry
				if tf < 0 {
					tf = -tf
				}
				tf0 := int64(math.Floor(tf))
				carry = tf - float64(tf0)
				if posting+tf0 > limit {
					tf0 = limit - posting
				}
				tofs[r-1] = uint64(tf0)
				if tf0 == 0 {
					logger.Warn("zero term frequency in middle segment", "rank", r)
				}
				if tf0 == 1 {
					nonTailSingletons++
				}
				posting += tf0
				trank = r
			}
		}
	}

	if !allFull {
		tailPostingsNeeded := postings - posting
		tailVocabNeeded := int64(vocabSize) - int64(trank)

		if tailVocabNeeded > tailPostingsNeeded {
			// Without corrective action the vocabulary would come up
			// short. Recover postings from the most frequent terms.
			adjustmentRequired := tailVocabNeeded - tailPostingsNeeded
			termsToAlter := int64(1000)
			if termsToAlter > int64(vocabSize)/100 {
				termsToAlter = int64(vocabSize)/100 + 1
			}
			adjustment := adjustmentRequired/termsToAlter + 1
			logger.Warn("tail adjustment needed to achieve vocabulary size",
				"shortfall", adjustmentRequired, "termsAltered", termsToAlter)
			for t := int64(0); t < termsToAlter; t++ {
				if tofs[t] <= uint64(adjustment) {
					return nil, fmt.Errorf("tail adjustment would zero rank %d", t+1)
				}
				tofs[t] -= uint64(adjustment)
				tailPostingsNeeded += adjustment
				adjustmentRequired -= adjustment
				posting -= adjustment
				if adjustmentRequired <= 0 {
					break
				}
			}
		}

		aveTailTF := float64(tailPostingsNeeded) / float64(tailVocabNeeded)
		carry := 0.0
		for r := trank + 1; r <= uint32(vocabSize); r++ {
			tf := aveTailTF + carry
			tf0 := int64(math.Floor(tf))
			carry = tf - float64(tf0)
			if posting+tf0 > limit {
				tf0 = limit - posting
			}
			tofs[r-1] = uint64(tf0)
			posting += tf0
			if tf0 == 1 {
				tailSingletons++
			}
			trank = r
		}
		if postings > posting {
			// Final patch-up lands on the last assigned rank.
			tofs[trank-1] += uint64(postings - posting)
			posting = postings
		}
	}

	logger.Info("TFD synthesized",
		"postings", posting, "requested", postings,
		"singletons", tailSingletons+nonTailSingletons,
		"singletonPerc", float64(tailSingletons+nonTailSingletons)*100.0/float64(vocabSize),
		"requestedTailPerc", m.TailPerc)

	if err := validate(tofs, postings, vocabSize); err != nil {
		return nil, err
	}
	return tofs, nil
}

// middleFudgeFactor does a trial allocation over the middle segments and
// returns the ratio of the requested posting count to the count the trial
// would generate. Rounding makes the two differ; the caller iterates the
// calibration until the ratio stabilises.
func middleFudgeFactor(m *Model, middlePostings, dPostings, initialFudge float64) float64 {
	generated := 0.0
	carry := 0.0
	for si := range m.Segments {
		seg := &m.Segments[si]
		for r := uint32(seg.F); r <= uint32(seg.L); r++ {
			area := seg.unitArea(r) * initialFudge
			tf := dPostings*area + carry
			if tf < 0 {
				tf = -tf
			}
			tf0 := math.Floor(tf)
			carry = tf - tf0
			generated += tf0
		}
	}
	if generated == 0 {
		// Degenerate middle (e.g. a 100% tail): nothing to calibrate.
		return 1.0
	}
	return middlePostings / generated
}

// validate checks the hard postconditions: exact posting sum and exact
// vocabulary size.
func validate(tofs []uint64, postings int64, vocabSize int) error {
	var sum uint64
	nonZero := 0
	for _, tf := range tofs {
		sum += tf
		if tf > 0 {
			nonZero++
		}
	}
	if sum != uint64(postings) {
		return fmt.Errorf("TOFS sums to %d, requested %d", sum, postings)
	}
	if nonZero != vocabSize {
		return fmt.Errorf("TOFS has %d non-zero entries, requested vocabulary %d", nonZero, vocabSize)
	}
	return nil
}
