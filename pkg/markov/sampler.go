package markov

import (
	"fmt"
	"math"

	"synthacorpus/pkg/logger"
	"synthacorpus/pkg/rng"
)

// Sampler generates unique random word forms from a trained model.
type Sampler struct {
	m         *Model
	src       *rng.Source
	generated map[string]struct{}
	maxTries  [MaxTermLen + 1]int64
}

// NewSampler builds a sampler over a trained model. The generated-word
// set lives for the sampler's lifetime so no word is ever emitted twice.
func NewSampler(m *Model, src *rng.Source) *Sampler {
	s := &Sampler{m: m, src: src, generated: make(map[string]struct{})}
	tries := int64(1)
	for l := 0; l <= MaxTermLen; l++ {
		s.maxTries[l] = tries
		if tries <= 10_000_000_000 {
			tries *= int64(m.al.A)
		}
	}
	return s
}

// targetLength picks the length for the next word: the maximum when EOW
// terminates words itself, otherwise a draw from the rank bucket's normal
// length model, rejecting non-positive draws and capping at MaxTermLen.
func (s *Sampler) targetLength(rank uint32) int {
	if s.m.cfg.UseEOW {
		return MaxTermLen
	}
	bucket := int(math.Floor(math.Log10(float64(rank))))
	if bucket >= NumRankBuckets {
		bucket = NumRankBuckets - 1
	}
	for {
		l := int(math.Ceil(s.src.Normal(s.m.BaseMeans[bucket], s.m.BaseStdevs[bucket])))
		if l <= 0 {
			continue
		}
		if l > MaxTermLen {
			l = MaxTermLen
		}
		return l
	}
}

// UniqueWord generates one word not generated before, of a length
// appropriate to the given term rank. When every attempt at a length is
// exhausted that length is disabled and the next one up is tried; running
// past MaxTermLen is an error.
func (s *Sampler) UniqueWord(rank uint32) (string, error) {
	k := s.m.cfg.Order
	l := s.targetLength(rank)
	context := make([]byte, MaxOrder)
	buf := make([]byte, 0, MaxTermLen)

	var tries int64
	for {
		tries++
		buf = buf[:0]
		for i := 0; i < l; i++ {
			ch, stop, err := s.nextLetter(context[:k], i)
			if err != nil {
				return "", err
			}
			if stop {
				break
			}
			buf = append(buf, ch)
			if k > 0 {
				copy(context, context[1:k])
				context[k-1] = ch
			}
		}

		if len(buf) == 0 {
			logger.Warn("empty word generated and ignored")
		} else {
			word := string(buf)
			if _, seen := s.generated[word]; !seen {
				s.generated[word] = struct{}{}
				return word, nil
			}
		}

		if tries > s.maxTries[l] {
			if s.maxTries[l] > 1 {
				logger.Info("length exhausted, escalating",
					"length", l, "tries", tries, "rank", rank)
			}
			// Future attempts at this length are guaranteed to fail too.
			s.maxTries[l] = 0
			l++
			if l > MaxTermLen {
				return "", fmt.Errorf("unique-word generation exhausted lengths up to %d", MaxTermLen)
			}
		}
		for i := range context {
			context[i] = 0
		}
	}
}

// nextLetter samples one output symbol given the current context.
// Returns stop=true when an EOW terminates the word.
func (s *Sampler) nextLetter(context []byte, pos int) (byte, bool, error) {
	m := s.m
	k := m.cfg.Order

	useBackground := k > 0 && m.cfg.Lambda > 0 && s.src.Uniform() < m.cfg.Lambda
	u := s.src.Uniform()

	var row []float64
	if !useBackground {
		idx, err := m.rowIndex(context, k)
		if err != nil {
			return 0, false, err
		}
		row = m.matrix(k)[idx : idx+m.al.A]
	} else if m.cfg.FullBackoff {
		row = m.matrix(0)[:m.al.A]
	} else {
		idx, err := m.rowIndex(context[1:], k-1)
		if err != nil {
			return 0, false, err
		}
		row = m.matrix(k - 1)[idx : idx+m.al.A]
	}

	if pos == 0 && m.cfg.UseEOW {
		// Exclude EOW from the first position so the word is never empty.
		u *= row[m.al.A-2]
	}

	col := -1
	for j, cum := range row {
		if u <= cum {
			col = j
			break
		}
	}
	if col < 0 {
		return 0, false, fmt.Errorf("all-zero transition row during sampling (order %d)", k)
	}

	ch := m.al.revCol[col]
	if m.cfg.UseEOW && ch == EOW {
		if pos > 0 {
			return 0, true, nil
		}
		logger.Warn("end symbol sampled in first position, continuing")
	}
	return ch, false, nil
}
