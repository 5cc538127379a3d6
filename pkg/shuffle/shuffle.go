// Package shuffle provides in-place Fisher-Yates shuffles over the
// fixed-width element types the generator works with.
package shuffle

import "synthacorpus/pkg/rng"

// Uint32s shuffles a slice of uint32 elements in place.
func Uint32s(src *rng.Source, a []uint32) {
	n := int64(len(a))
	if n < 2 {
		return
	}
	for i := int64(0); i < n-1; i++ {
		j, _ := src.Int64Between(i+1, n-1)
		a[i], a[j] = a[j], a[i]
	}
}

// Uint64s shuffles a slice of uint64 elements in place.
func Uint64s(src *rng.Source, a []uint64) {
	n := int64(len(a))
	if n < 2 {
		return
	}
	for i := int64(0); i < n-1; i++ {
		j, _ := src.Int64Between(i+1, n-1)
		a[i], a[j] = a[j], a[i]
	}
}
