package corpus

import (
	"synthacorpus/pkg/logger"
	"synthacorpus/pkg/rng"
)

// ShuffleWithinDocs shuffles each document's postings independently,
// keeping every n-gram intact and in order. The final-posting flag is
// lifted off the boundary before shuffling and re-set on whichever
// posting ends up last.
func ShuffleWithinDocs(src *rng.Source, occ []Posting) {
	n := int64(len(occ))
	var start, docEnds int64
	for start < n {
		end := start
		for end < n && !occ[end].IsFinal() {
			end++
		}
		if end < n {
			if end-start > 2 {
				occ[end] &^= FinalPosting
				shuffleRespectingNgrams(src, occ[start:end+1])
				occ[end] |= FinalPosting
			}
			docEnds++
		}
		start = end + 1
	}
	logger.Debug("within-document shuffle complete", "docs", docEnds)
}

// shuffleRespectingNgrams is a Fisher-Yates variant over one document.
// Continuation postings are never moved directly; a start posting moves
// its whole n-gram window, and only into a window free of n-gram flags;
// plain postings only swap with plain postings. An unsuitable target means
// the swap is skipped, not retried.
func shuffleRespectingNgrams(src *rng.Source, a []Posting) {
	n := int64(len(a))
	if n < 2 {
		return
	}
	m := n - 1
	for i := int64(0); i < n-2; i++ {
		if a[i].IsContinuation() {
			continue
		}
		if a[i].IsStart() {
			gramlen := int64(1)
			k := i + 1
			for k < n && a[k].IsContinuation() {
				k++
				gramlen++
			}
			// Last index at which a swap target window could start.
			k = m - gramlen + 1
			if i+gramlen > k {
				break
			}
			var j int64
			if i+gramlen == k {
				j = k
			} else {
				j, _ = src.Int64Between(i+gramlen, k)
			}
			ok := true
			for w := int64(0); w < gramlen; w++ {
				if a[j+w].InNgram() {
					ok = false
					break
				}
			}
			if ok {
				for w := int64(0); w < gramlen; w++ {
					a[i+w], a[j+w] = a[j+w], a[i+w]
				}
			}
			i += gramlen - 1
			continue
		}
		var j int64
		if i+1 == m {
			j = m
		} else {
			j, _ = src.Int64Between(i+1, m)
		}
		if a[j].InNgram() {
			continue
		}
		a[i], a[j] = a[j], a[i]
	}
}
