// Package zipf models the term-frequency distribution of a corpus as a
// piecewise linear curve in log-log space and synthesizes integer
// term-occurrence frequencies from it.
//
// The distribution has three regions: a head of explicitly specified
// per-term probabilities, one or more middle segments each described by a
// slope alpha over a rank range, and a tail of (nominally) singleton terms.
package zipf

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Segment describes one middle segment of the curve.
//
// The underlying function is x**alpha, whose integral is
// x**(alpha+1)/(alpha+1). The area under the curve between F and L is
// scaled so the segment's probability mass comes out as ProbRange.
type Segment struct {
	Alpha     float64 // slope of the segment in log-log space
	F         float64 // rank of the first term covered
	L         float64 // rank of the last term covered
	ProbRange float64 // probability mass within the segment
	CumProb   float64 // cumulative probability from rank 1 to L

	ap1       float64 // alpha + 1
	rap1      float64 // 1 / (alpha + 1)
	areaScale float64 // brings the F..L area up to 1.0
	areaToF   float64 // scaled area between 0 and F
}

// Derive fills in the precomputed constants from the five model values.
func (s *Segment) Derive() {
	s.ap1 = s.Alpha + 1.0
	s.rap1 = 1.0 / s.ap1
	area := (math.Pow(s.L, s.ap1) - math.Pow(s.F, s.ap1)) / s.ap1
	s.areaScale = 1.0 / area
	s.areaToF = s.areaScale * math.Pow(s.F, s.ap1) / s.ap1
}

// unitArea returns the scaled probability mass assigned to the unit-wide
// interval [rank-1, rank] under this segment.
func (s *Segment) unitArea(rank uint32) float64 {
	p0 := 0.0
	if rank != 1 {
		p0 = math.Pow(float64(rank-1), s.ap1)
	}
	p1 := math.Pow(float64(rank), s.ap1)
	area := (p0 - p1) / s.ap1
	return math.Abs(area * s.areaScale * s.ProbRange)
}

// Model is the full piecewise description of a term-frequency distribution.
type Model struct {
	HeadCumProbs []float64 // cumulative probability up to each head rank
	Segments     []Segment
	TailPerc     float64 // percentage of vocabulary that should be singletons
}

// HeadTerms returns the number of explicitly modelled head terms.
func (m *Model) HeadTerms() int { return len(m.HeadCumProbs) }

// ParseHeadPercentages parses a comma-separated list of per-term
// percentages (descending) into cumulative probabilities.
func ParseHeadPercentages(spec string) ([]float64, error) {
	parts := strings.Split(spec, ",")
	cumprobs := make([]float64, 0, len(parts))
	total := 0.0
	for i, part := range parts {
		pc, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("head percentage %d: %w", i+1, err)
		}
		total += pc / 100.0
		cumprobs = append(cumprobs, total)
	}
	return cumprobs, nil
}

// ParseMiddlePieces parses the middle-segment specification: one
// "alpha,F,L,probrange,cumprob" tuple per segment, tuples terminated
// by '%'.
func ParseMiddlePieces(spec string) ([]Segment, error) {
	segs := []Segment{}
	for _, tuple := range strings.Split(strings.TrimSuffix(spec, "%"), "%") {
		fields := strings.Split(tuple, ",")
		if len(fields) != 5 {
			return nil, fmt.Errorf("middle segment %d: want 5 fields, got %d", len(segs)+1, len(fields))
		}
		vals := make([]float64, 5)
		for i, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("middle segment %d field %d: %w", len(segs)+1, i+1, err)
			}
			vals[i] = v
		}
		seg := Segment{Alpha: vals[0], F: vals[1], L: vals[2], ProbRange: vals[3], CumProb: vals[4]}
		seg.Derive()
		segs = append(segs, seg)
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("no middle segments in %q", spec)
	}
	return segs, nil
}

// FindAlpha estimates the Zipf slope for a corpus with postings postings
// and a vocabulary of vocab terms, assuming freq = c * rank**alpha.
// Integrating gives postings = c * vocab**(alpha+1) / (alpha+1), which is
// solved for alpha by binary chop on q = alpha + 1.
func FindAlpha(postings, vocab float64) (float64, error) {
	hiq, loq := -0.001, -5.0
	for i := 0; i < 100; i++ {
		q := (hiq + loq) / 2
		alpha := q - 1
		c := -1 / math.Pow(vocab, alpha)
		estim := c * math.Pow(vocab, q) / q
		diff := estim - postings
		if math.Abs(diff) <= 0.001 {
			return alpha, nil
		}
		if diff < 0 {
			loq = q
		} else {
			hiq = q
		}
	}
	return 0, fmt.Errorf("alpha estimation failed to converge for postings=%.0f vocab=%.0f", postings, vocab)
}

// SingleSegment builds the one-segment middle model used when no explicit
// pieces are given, from the overall alpha, the head probability mass, and
// the tail percentage.
func SingleSegment(alpha float64, headTerms int, headProb float64, postings, vocab, tailPerc float64) Segment {
	seg := Segment{
		Alpha: alpha,
		F:     float64(headTerms + 1),
		L:     vocab * (1.0 - tailPerc/100.0),
	}
	seg.CumProb = 1.0 - (vocab*(tailPerc/100.0))/postings
	seg.ProbRange = seg.CumProb - headProb
	seg.Derive()
	return seg
}
