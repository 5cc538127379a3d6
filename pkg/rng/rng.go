// Package rng is the single source of randomness for corpus synthesis.
// Every distribution the generator draws from (uniform, normal, gamma,
// piecewise cumulative) comes through a seeded Source so that runs are
// reproducible for a given seed.
package rng

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Source wraps a seeded generator and exposes the draws the pipeline needs.
type Source struct {
	rnd *rand.Rand
}

// New creates a Source seeded with seed.
func New(seed uint64) *Source {
	return &Source{rnd: rand.New(rand.NewSource(seed))}
}

// Uniform returns a random float64 in [0, 1).
func (s *Source) Uniform() float64 {
	return s.rnd.Float64()
}

// Int64Between returns a uniform random int64 in [min, max] inclusive.
func (s *Source) Int64Between(min, max int64) (int64, error) {
	if max < min {
		return 0, fmt.Errorf("invalid range %d to %d", min, max)
	}
	if min == max {
		return min, nil
	}
	return min + s.rnd.Int63n(max-min+1), nil
}

// Normal draws from a normal distribution with the given mean and
// standard deviation.
func (s *Source) Normal(mean, stdev float64) float64 {
	n := distuv.Normal{Mu: mean, Sigma: stdev, Src: s.rnd}
	return n.Rand()
}

// Gamma draws from a gamma distribution with the given shape and scale.
func (s *Source) Gamma(shape, scale float64) float64 {
	g := distuv.Gamma{Alpha: shape, Beta: 1.0 / scale, Src: s.rnd}
	return g.Rand()
}

// Cumdist draws from a piecewise-linear distribution described by parallel
// slices of cumulative probabilities and x values. cumprobs must be
// ascending with a final value of 1.0; the draw interpolates linearly
// within the segment the uniform falls into.
func (s *Source) Cumdist(cumprobs, xvals []float64) (float64, error) {
	u := s.Uniform()
	for i := range cumprobs {
		if u <= cumprobs[i] {
			loProb, loX := 0.0, 1.0
			if i > 0 {
				loProb = cumprobs[i-1]
				loX = xvals[i-1]
			}
			frac := (u - loProb) / (cumprobs[i] - loProb)
			return loX + frac*(xvals[i]-loX), nil
		}
	}
	return 0, fmt.Errorf("cumulative distribution does not reach %f", u)
}
