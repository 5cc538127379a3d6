package corpus

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"synthacorpus/pkg/logger"
)

// MaxNgramArity caps n-grams at 6 words; longer tuples are truncated on
// input.
const MaxNgramArity = 6

// maxNgramLine bounds input lines in the n-grams file.
const maxNgramLine = 1000

// NgramRow is one record of the n-grams table: an arity, that many
// termids, and the observed frequency (decremented as instances are
// placed).
type NgramRow struct {
	Arity   int
	Termids [MaxNgramArity]uint32
	Freq    int64
}

// NgramTable holds the n-gram records sorted by descending arity, then by
// ascending termid tuple, together with the inverted subsumption index.
type NgramTable struct {
	Rows []NgramRow

	// Inverted index over the rows of less-than-maximum arity: for each
	// termid, a linked list of the rows it participates in, laid out in
	// a flat arena with -1 as the null index.
	heads []listRef
	arena []listElt
}

type listRef struct{ head, tail int32 }

type listElt struct {
	next int32
	row  int32
}

// LoadNgrams reads an n-grams file. Valid lines look like
// "N(9464,56514):10665"; lines whose first character is not N, C or B or
// whose third character is not a digit are skipped. Every termid is
// validated against the vocabulary size.
func LoadNgrams(path string, vocabSize int) (*NgramTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading n-grams: %w", err)
	}
	defer f.Close()

	t := &NgramTable{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, maxNgramLine), maxNgramLine)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if len(line) < 3 || line[1] != '(' || line[2] < '0' || line[2] > '9' {
			continue
		}
		if line[0] != 'N' {
			// C (co-occurrence) and B (burst) records are recognized in
			// the format but not placed.
			continue
		}
		paren := strings.IndexByte(line, ')')
		colon := strings.IndexByte(line, ':')
		if paren < 0 || colon != paren+1 {
			continue
		}
		var row NgramRow
		for _, field := range strings.Split(line[2:paren], ",") {
			termid, err := strconv.ParseUint(strings.TrimSpace(field), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: bad termid %q", path, lineNo, field)
			}
			if termid < 1 || termid > uint64(vocabSize) {
				return nil, fmt.Errorf("%s line %d: termid %d outside vocabulary [1, %d]",
					path, lineNo, termid, vocabSize)
			}
			if row.Arity >= MaxNgramArity {
				// Arity too high: ignore the extra termids.
				continue
			}
			row.Termids[row.Arity] = uint32(termid)
			row.Arity++
		}
		freq, err := strconv.ParseInt(line[colon+1:], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad frequency: %w", path, lineNo, err)
		}
		if row.Arity < 2 {
			continue
		}
		row.Freq = freq
		t.Rows = append(t.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading n-grams: %w", err)
	}

	sort.Slice(t.Rows, func(i, j int) bool {
		a, b := &t.Rows[i], &t.Rows[j]
		if a.Arity != b.Arity {
			return a.Arity > b.Arity
		}
		for k := 0; k < MaxNgramArity; k++ {
			if a.Termids[k] != b.Termids[k] {
				return a.Termids[k] < b.Termids[k]
			}
		}
		return false
	})
	logger.Info("n-grams loaded", "path", path, "rows", len(t.Rows))
	return t, nil
}

// buildSubsumptionIndex sets up the inverted lists used to find subsumed
// lower-arity rows. Rows of the highest arity can subsume but never be
// subsumed, so they are excluded.
func (t *NgramTable) buildSubsumptionIndex() {
	if len(t.Rows) == 0 {
		return
	}
	highestArity := t.Rows[0].Arity
	var postings int
	var highestTermid uint32
	for i := range t.Rows {
		row := &t.Rows[i]
		if row.Arity == highestArity {
			continue
		}
		postings += row.Arity
		for a := 0; a < row.Arity; a++ {
			if row.Termids[a] > highestTermid {
				highestTermid = row.Termids[a]
			}
		}
	}

	t.heads = make([]listRef, highestTermid+1)
	for i := range t.heads {
		t.heads[i] = listRef{head: -1, tail: -1}
	}
	t.arena = make([]listElt, 0, postings)

	for i := range t.Rows {
		row := &t.Rows[i]
		if row.Arity == highestArity {
			continue
		}
		for a := 0; a < row.Arity; a++ {
			t.appendRef(row.Termids[a], int32(i))
		}
	}
}

func (t *NgramTable) appendRef(termid uint32, rowno int32) {
	t.arena = append(t.arena, listElt{next: -1, row: rowno})
	idx := int32(len(t.arena) - 1)
	ref := &t.heads[termid]
	if ref.head < 0 {
		ref.head = idx
	} else {
		t.arena[ref.tail].next = idx
	}
	ref.tail = idx
}

// subsumes reports whether sub's termid tuple is a contiguous substring of
// super's.
func subsumes(super, sub *NgramRow) bool {
	for sp := 0; sp <= super.Arity-sub.Arity; sp++ {
		match := true
		for i := 0; i < sub.Arity; i++ {
			if sub.Termids[i] != super.Termids[sp+i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// findSubsumptions returns the row numbers of every lower-arity n-gram
// subsumed by the row at index line, by intersecting the inverted lists
// of its termids and verifying the substring match on each candidate.
func (t *NgramTable) findSubsumptions(line int) ([]int32, error) {
	row := &t.Rows[line]
	if row.Arity == 2 {
		return nil, nil
	}
	if t.heads == nil {
		t.buildSubsumptionIndex()
	}

	arity := row.Arity
	curpos := make([]int32, arity)
	exhausted := make([]bool, arity)
	for a := 0; a < arity; a++ {
		head := int32(-1)
		if int(row.Termids[a]) < len(t.heads) {
			head = t.heads[row.Termids[a]].head
		}
		if head == -1 {
			exhausted[a] = true
		} else {
			curpos[a] = head
		}
	}

	// Merge the lists in ascending row order. A row on which at least two
	// participant lists coincide is a subsumption candidate (an arity-s
	// sub-tuple intersects exactly s of the lists).
	var refs []int32
	for {
		lowest := int32(-1)
		for a := 0; a < arity; a++ {
			if !exhausted[a] && (lowest == -1 || t.arena[curpos[a]].row < lowest) {
				lowest = t.arena[curpos[a]].row
			}
		}
		if lowest == -1 {
			break
		}

		count := 0
		for a := 0; a < arity; a++ {
			if !exhausted[a] && t.arena[curpos[a]].row == lowest {
				count++
			}
		}
		if count >= 2 && int(lowest) != line && t.Rows[lowest].Arity < arity &&
			subsumes(row, &t.Rows[lowest]) {
			if len(refs) == 0 || refs[len(refs)-1] != lowest {
				refs = append(refs, lowest)
			}
		}

		for a := 0; a < arity; a++ {
			for !exhausted[a] && t.arena[curpos[a]].row == lowest {
				if t.arena[curpos[a]].next == -1 {
					exhausted[a] = true
				} else {
					curpos[a] = t.arena[curpos[a]].next
				}
			}
		}
	}

	// A tuple of arity a has at most a(a-1)/2 - 1 proper contiguous
	// sub-tuples of arity >= 2; more matches means the table holds
	// duplicate rows.
	if maxSubs := arity*(arity-1)/2 - 1; len(refs) > maxSubs {
		return nil, fmt.Errorf("%d subsumptions found for arity-%d n-gram %v", len(refs), arity, row.Termids[:arity])
	}
	return refs, nil
}

// countRepetitions returns, for each position, how many times that termid
// occurs in the tuple. Every occurrence of a repeated termid carries the
// same count.
func countRepetitions(row *NgramRow) [MaxNgramArity]int64 {
	var reps [MaxNgramArity]int64
	for a := 0; a < row.Arity; a++ {
		for b := 0; b < row.Arity; b++ {
			if row.Termids[b] == row.Termids[a] {
				reps[a]++
			}
		}
	}
	return reps
}

// PrePlace walks the table in sorted order, placing each n-gram's
// instances before any unigrams and decrementing the participants' TOFS
// entries and the frequencies of subsumed rows. An instance is suppressed
// once any subsumed row or participant term would be over-consumed.
// Returns the number of postings placed.
func (t *NgramTable) PrePlace(placer *Placer, tofs []uint64) (int64, error) {
	var placed, subtracted, emitted, suppressed, totalSubsumptions int64

	for line := range t.Rows {
		row := &t.Rows[line]
		var subsumed []int32
		if row.Arity > 2 {
			var err error
			subsumed, err = t.findSubsumptions(line)
			if err != nil {
				return placed, err
			}
			totalSubsumptions += int64(len(subsumed))
		}
		reps := countRepetitions(row)

		for i := int64(0); i < row.Freq; i++ {
			finished := false
			for _, ref := range subsumed {
				if t.Rows[ref].Freq == 0 {
					finished = true
					break
				}
			}
			if !finished {
				for a := 0; a < row.Arity; a++ {
					if tofs[row.Termids[a]-1] < uint64(reps[a]) {
						finished = true
						break
					}
				}
			}
			if finished {
				suppressed += row.Freq - i
				break
			}

			outcome, err := placer.PlaceInstance(row.Termids[:row.Arity], true)
			if err != nil {
				return placed, err
			}
			if outcome != Placed {
				logger.Warn("n-gram placement failed",
					"arity", row.Arity, "freq", row.Freq, "firstTerm", row.Termids[0])
				continue
			}
			placed += int64(row.Arity)

			for _, ref := range subsumed {
				t.Rows[ref].Freq--
			}
			for a := 0; a < row.Arity; a++ {
				if tofs[row.Termids[a]-1] == 0 {
					return placed, fmt.Errorf("termid %d exhausted mid-placement at row %d", row.Termids[a], line)
				}
				tofs[row.Termids[a]-1]--
				subtracted++
			}
			if placed != subtracted {
				return placed, fmt.Errorf("postings placed (%d) != TOFS decrements (%d)", placed, subtracted)
			}
			emitted++
		}
	}

	logger.Info("n-gram pre-placement complete",
		"instancesEmitted", emitted, "instancesSuppressed", suppressed,
		"subsumptions", totalSubsumptions, "postingsPlaced", placed)
	return placed, nil
}
