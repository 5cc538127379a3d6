package corpus

// A Posting is one term occurrence in the term-occurrence array: a term
// rank in the low 29 bits plus three flag bits. Keeping the packing (the
// occurrence array is the largest allocation in a run) behind this value
// type keeps the shifts out of the call sites.
type Posting uint32

const (
	// FinalPosting marks the last posting of a document.
	FinalPosting Posting = 0x80000000
	// StartOfNgram marks the first posting of a multi-word n-gram.
	StartOfNgram Posting = 0x40000000
	// ContinuationOfNgram marks the later postings of an n-gram.
	ContinuationOfNgram Posting = 0x20000000
	// NgramFlags is either of the two n-gram markers.
	NgramFlags = StartOfNgram | ContinuationOfNgram
	// RankMask limits the vocabulary to 2^29 (about 500 million) terms.
	RankMask Posting = 0x1FFFFFFF
)

// NewPosting builds a posting for the term of the given 1-based rank.
func NewPosting(rank uint32) Posting { return Posting(rank) & RankMask }

// Rank returns the 1-based term rank.
func (p Posting) Rank() uint32 { return uint32(p & RankMask) }

// IsFinal reports whether this is the last posting of its document.
func (p Posting) IsFinal() bool { return p&FinalPosting != 0 }

// IsStart reports whether this posting starts an n-gram.
func (p Posting) IsStart() bool { return p&StartOfNgram != 0 }

// IsContinuation reports whether this posting continues an n-gram.
func (p Posting) IsContinuation() bool { return p&ContinuationOfNgram != 0 }

// InNgram reports whether this posting carries either n-gram flag.
func (p Posting) InNgram() bool { return p&NgramFlags != 0 }
