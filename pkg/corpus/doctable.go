package corpus

import (
	"fmt"

	"synthacorpus/pkg/logger"
	"synthacorpus/pkg/rng"
	"synthacorpus/pkg/shuffle"
)

// DocEntry packs one document's placement state into 64 bits: the low 24
// bits hold the remaining available slots (documents up to 16M words), the
// high 40 bits the start offset within the term-occurrence array.
type DocEntry uint64

const (
	slotsMask     = 0xFFFFFF
	pointerMask   = 0xFFFFFFFFFF
	pointerShift  = 24
	// MaxDocWords caps generated document lengths at 1M words.
	MaxDocWords = 1 << 20
)

// NewDocEntry builds an entry from a pointer and a remaining-slot count.
func NewDocEntry(pointer uint64, remaining uint32) DocEntry {
	return DocEntry((pointer&pointerMask)<<pointerShift | uint64(remaining)&slotsMask)
}

// Pointer returns the entry's offset into the term-occurrence array.
func (e DocEntry) Pointer() uint64 { return uint64(e) >> pointerShift }

// Remaining returns the number of unfilled slots in the document.
func (e DocEntry) Remaining() uint32 { return uint32(e) & slotsMask }

// BuildDoctable converts a length histogram into a doctable whose entries
// hold lengths only (pointers are plugged in after shuffling). Priority
// goes to the posting budget: generation stops once it is reached and the
// final document is truncated if it would overflow.
func BuildDoctable(histo *LengthHistogram, budget int64) []DocEntry {
	doctable := make([]DocEntry, 0, histo.Docs())
	var postings int64
	for length := 1; length <= histo.MaxLength(); length++ {
		count := histo.Count(length)
		for j := int64(0); j < count; j++ {
			l := int64(length)
			if l > budget-postings {
				l = budget - postings
			}
			doctable = append(doctable, NewDocEntry(0, uint32(l)))
			postings += l
			if postings >= budget {
				logger.Info("doctable built", "docs", len(doctable), "postings", postings)
				return doctable
			}
		}
	}
	logger.Info("doctable built", "docs", len(doctable), "postings", postings)
	return doctable
}

// ShuffleDoctable interleaves short and long documents so random placement
// does not see them in length order.
func ShuffleDoctable(src *rng.Source, doctable []DocEntry) {
	raw := make([]uint64, len(doctable))
	for i, e := range doctable {
		raw[i] = uint64(e)
	}
	shuffle.Uint64s(src, raw)
	for i, v := range raw {
		doctable[i] = DocEntry(v)
	}
}

// PlugInPointers converts the shuffled sequence of lengths into offsets
// into the term-occurrence array by running prefix sum.
func PlugInPointers(doctable []DocEntry) {
	var index uint64
	for d := range doctable {
		length := doctable[d].Remaining()
		doctable[d] = NewDocEntry(index, length)
		index += uint64(length)
	}
	logger.Debug("pointers plugged in", "docs", len(doctable), "highestIndex", index)
}

// SumRemaining totals the available slots across the table. Immediately
// after construction this must equal the posting budget.
func SumRemaining(doctable []DocEntry) int64 {
	var sum int64
	for _, e := range doctable {
		sum += int64(e.Remaining())
	}
	return sum
}

// CheckDoctableBudget verifies that the doctable's capacity matches the
// posting budget exactly.
func CheckDoctableBudget(doctable []DocEntry, budget int64) error {
	if sum := SumRemaining(doctable); sum != budget {
		return fmt.Errorf("doctable holds %d slots, budget is %d", sum, budget)
	}
	return nil
}
