// Package termrep builds the term-representation table: the printable
// word form for every term rank in the synthetic vocabulary.
package termrep

import (
	"fmt"

	"synthacorpus/pkg/markov"
)

const (
	// MaxTermLen is the longest representation stored.
	MaxTermLen = markov.MaxTermLen
	// slotLen is the fixed slot width: the NUL-terminated string plus a
	// trailing length byte.
	slotLen = MaxTermLen + 2
	// lengthIndex is the offset of the length byte within a slot.
	lengthIndex = MaxTermLen + 1
)

// Unknown is the reserved representation stored one past the vocabulary.
const Unknown = "UNKNOWN"

// Table is a contiguous array of vocabSize+1 fixed-width slots. Slot i
// (0-based) holds the representation of the term of rank i+1; the last
// slot holds the UNKNOWN entry.
type Table struct {
	data      []byte
	vocabSize int
}

// NewTable allocates a table for vocabSize terms plus the UNKNOWN slot.
func NewTable(vocabSize int) *Table {
	t := &Table{
		data:      make([]byte, (vocabSize+1)*slotLen),
		vocabSize: vocabSize,
	}
	t.setSlot(vocabSize, Unknown)
	return t
}

// VocabSize returns the number of real terms in the table.
func (t *Table) VocabSize() int { return t.vocabSize }

// setSlot stores a representation in 0-based slot i, truncating to
// MaxTermLen.
func (t *Table) setSlot(i int, word string) {
	if len(word) > MaxTermLen {
		word = word[:MaxTermLen]
	}
	slot := t.data[i*slotLen : (i+1)*slotLen]
	n := copy(slot, word)
	slot[n] = 0
	slot[lengthIndex] = byte(n)
}

// SetWord stores the representation for the term of 1-based rank.
func (t *Table) SetWord(rank int, word string) {
	t.setSlot(rank-1, word)
}

// Word returns the representation for the term of 1-based rank. Ranks
// outside the vocabulary map to the UNKNOWN entry.
func (t *Table) Word(rank int) string {
	if rank < 1 || rank > t.vocabSize {
		rank = t.vocabSize + 1
	}
	slot := t.data[(rank-1)*slotLen:]
	return string(slot[:slot[lengthIndex]])
}

// Len returns the stored length of the representation at 1-based rank.
func (t *Table) Len(rank int) int {
	return int(t.data[(rank-1)*slotLen+lengthIndex])
}

// checkForNullWords verifies that no real rank has an empty
// representation.
func (t *Table) checkForNullWords() error {
	nulls := 0
	for r := 1; r <= t.vocabSize; r++ {
		if t.data[(r-1)*slotLen] == 0 {
			nulls++
		}
	}
	if nulls > 0 {
		return fmt.Errorf("%d empty term representations in table", nulls)
	}
	return nil
}
