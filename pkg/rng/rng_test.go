package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformRange(t *testing.T) {
	src := New(42)
	for i := 0; i < 10000; i++ {
		u := src.Uniform()
		assert.GreaterOrEqual(t, u, 0.0)
		assert.Less(t, u, 1.0)
	}
}

func TestUniformBuckets(t *testing.T) {
	src := New(7)
	const trials = 100000
	var buckets [10]int
	for i := 0; i < trials; i++ {
		buckets[int(src.Uniform()*10)]++
	}
	expected := trials / 10
	for b, count := range buckets {
		assert.InDelta(t, expected, count, float64(expected)*0.1, "bucket %d", b)
	}
}

func TestInt64Between(t *testing.T) {
	src := New(1)

	v, err := src.Int64Between(5, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)

	_, err = src.Int64Between(5, 4)
	assert.Error(t, err)

	seen := make(map[int64]bool)
	for i := 0; i < 1000; i++ {
		v, err := src.Int64Between(0, 9)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, int64(0))
		assert.LessOrEqual(t, v, int64(9))
		seen[v] = true
	}
	assert.Len(t, seen, 10)
}

func TestNormalMoments(t *testing.T) {
	src := New(99)
	const trials = 100000
	sum := 0.0
	for i := 0; i < trials; i++ {
		sum += src.Normal(10, 2)
	}
	assert.InDelta(t, 10.0, sum/trials, 0.05)
}

func TestGammaMean(t *testing.T) {
	src := New(99)
	const trials = 100000
	sum := 0.0
	for i := 0; i < trials; i++ {
		sum += src.Gamma(5.0, 1.0)
	}
	// Mean of Gamma(shape, scale) is shape*scale.
	assert.InDelta(t, 5.0, sum/trials, 0.1)
}

func TestCumdist(t *testing.T) {
	src := New(3)
	cumprobs := []float64{0.5, 1.0}
	xvals := []float64{10, 20}
	for i := 0; i < 1000; i++ {
		x, err := src.Cumdist(cumprobs, xvals)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, x, 1.0)
		assert.LessOrEqual(t, x, 20.0)
	}
}

func TestReproducible(t *testing.T) {
	a, b := New(1234), New(1234)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Uniform(), b.Uniform())
	}
}
