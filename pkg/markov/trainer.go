package markov

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"synthacorpus/pkg/logger"
)

// maxTrainingLine bounds lines of the training TSV.
const maxTrainingLine = 1000

const probEpsilon = 1e-6

// Config selects the model variant.
type Config struct {
	// Order is the highest model order K, 0..MaxOrder.
	Order int

	// UseEOW treats an end-of-word symbol as an extra output letter, so
	// sampled words terminate themselves.
	UseEOW bool

	// FullBackoff backs empty rows (and lambda smoothing) all the way
	// off to order zero; otherwise they fall back one order at a time.
	FullBackoff bool

	// Lambda is the probability that a letter is sampled from the
	// backoff row rather than the order-K row.
	Lambda float64

	// UseVocabProbs counts each training word once; otherwise the
	// word's occurrence frequency is added instead.
	UseVocabProbs bool

	// AssignByRank orients the length-probability matrix as
	// rank-bucket rows over lengths; otherwise length rows over
	// rank buckets.
	AssignByRank bool
}

// Model holds the trained transition matrices and the word-length
// statistics gathered during the training pass.
type Model struct {
	cfg   Config
	al    alphabet
	flat  []float64 // all matrices, order 0 first
	start []int     // element offset of each order's matrix in flat

	// LenProbs is the cumulative length-probability matrix: with
	// AssignByRank, NumRankBuckets rows of MaxTermLen columns, else the
	// transpose.
	LenProbs []float64

	// Per-rank-bucket length statistics from the training vocabulary.
	BaseCounts [NumRankBuckets]float64
	BaseMeans  [NumRankBuckets]float64
	BaseStdevs [NumRankBuckets]float64
}

// Config returns the configuration the model was trained with.
func (m *Model) Config() Config { return m.cfg }

// matrix returns the order-k matrix as a slice of rows*A elements.
func (m *Model) matrix(k int) []float64 {
	if k == m.cfg.Order {
		return m.flat[m.start[k]:]
	}
	return m.flat[m.start[k]:m.start[k+1]]
}

// rowIndex converts the k context bytes at buf into the element offset of
// the corresponding row. Context bytes are raw characters, with zero
// standing for SOW.
func (m *Model) rowIndex(buf []byte, k int) (int, error) {
	if k == 0 {
		return 0, nil
	}
	index := 0
	for i := 0; i < k; i++ {
		d := m.al.rowMap[buf[i]]
		if d < 0 || int(d) >= m.al.E {
			return 0, fmt.Errorf("character %q is outside the context alphabet", buf[i])
		}
		index = index*m.al.E + int(d)
	}
	return index * m.al.A, nil
}

// Train scans a vocabulary TSV (word TAB frequency, sorted by descending
// frequency) once, accumulating letter frequencies, transition counts for
// every order up to cfg.Order, and rank-bucketed length statistics, then
// converts all matrix rows to cumulative probabilities with backoff.
func Train(cfg Config, r io.Reader) (*Model, error) {
	if cfg.Order < 0 || cfg.Order > MaxOrder {
		return nil, fmt.Errorf("markov order must be 0..%d, got %d", MaxOrder, cfg.Order)
	}

	m := &Model{cfg: cfg, al: newAlphabet(cfg.UseEOW)}

	// One flat buffer holds the matrices of every order: the order-k
	// matrix has E^k rows of A columns.
	elements := m.al.A
	total := 0
	for k := 0; k <= cfg.Order; k++ {
		m.start = append(m.start, total)
		total += elements
		elements *= m.al.E
	}
	m.flat = make([]float64, total)
	m.LenProbs = make([]float64, NumRankBuckets*MaxTermLen)

	letterFreqs := make([]float64, m.al.A)
	folder := cases.Fold()

	// The word is staged after MaxOrder zero bytes so every order's
	// context window can slide left into SOW territory.
	wdBuf := make([]byte, MaxOrder+MaxTermLen+1)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, maxTrainingLine), maxTrainingLine)
	var wordsRead uint64
	var totalWeight float64
	for scanner.Scan() {
		wordsRead++
		line := scanner.Text()
		tab := strings.IndexByte(line, '\t')
		if tab < 0 {
			return nil, fmt.Errorf("training line %d: no TAB found", wordsRead)
		}

		// Fold case and squeeze out anything outside the alphabet.
		word := make([]byte, 0, MaxTermLen+1)
		for _, ch := range []byte(folder.String(line[:tab])) {
			if ch >= 'a' && ch <= 'z' {
				word = append(word, ch)
			}
		}
		l := len(word)
		if l == 0 {
			continue
		}
		if l > MaxTermLen {
			return nil, fmt.Errorf("training line %d: word %q longer than %d", wordsRead, word, MaxTermLen)
		}

		rankbuk := int(math.Floor(math.Log10(float64(wordsRead))))
		if rankbuk >= NumRankBuckets {
			return nil, fmt.Errorf("vocabulary exceeds %d ranks at line %d", int64(1e9), wordsRead)
		}
		m.BaseCounts[rankbuk]++
		m.BaseMeans[rankbuk] += float64(l)
		m.BaseStdevs[rankbuk] += float64(l * l)

		weight := 1.0
		if !cfg.UseVocabProbs {
			w, err := strconv.ParseFloat(strings.TrimSpace(line[tab+1:]), 64)
			if err != nil {
				return nil, fmt.Errorf("training line %d: bad frequency: %w", wordsRead, err)
			}
			weight = w
		}
		if cfg.AssignByRank {
			m.LenProbs[rankbuk*MaxTermLen+(l-1)] += weight
		} else {
			m.LenProbs[(l-1)*NumRankBuckets+rankbuk] += weight
		}
		totalWeight += weight

		for i := 0; i < l; i++ {
			letterFreqs[m.al.colMap[word[i]]] += weight
		}
		if cfg.UseEOW {
			letterFreqs[m.al.colMap[EOW]] += weight
		}

		for i := 0; i < MaxOrder; i++ {
			wdBuf[i] = 0
		}
		copy(wdBuf[MaxOrder:], word)
		wdBuf[MaxOrder+l] = 0

		for k := 1; k <= cfg.Order; k++ {
			mat := m.matrix(k)
			// bp points k start symbols left of the word, so position i's
			// context is the k bytes ending just before it.
			bp := wdBuf[MaxOrder-k:]
			for i := 0; i < l; i++ {
				row, err := m.rowIndex(bp[i:], k)
				if err != nil {
					return nil, err
				}
				col := m.al.colMap[bp[i+k]]
				if col < 0 || int(col) >= m.al.A {
					return nil, fmt.Errorf("character %q is outside the output alphabet", bp[i+k])
				}
				mat[row+int(col)] += weight
			}
			if cfg.UseEOW {
				row, err := m.rowIndex(bp[l:], k)
				if err != nil {
					return nil, err
				}
				mat[row+int(m.al.colMap[EOW])] += weight
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning training data: %w", err)
	}
	if wordsRead == 0 {
		return nil, fmt.Errorf("training data is empty")
	}

	finishLengthStats(m.BaseCounts[:], m.BaseMeans[:], m.BaseStdevs[:])

	order0 := m.matrix(0)
	copy(order0, letterFreqs)

	if err := m.toCumulativeProbs(); err != nil {
		return nil, err
	}

	if cfg.AssignByRank {
		cumulateRows(m.LenProbs, NumRankBuckets, MaxTermLen)
	} else {
		cumulateRows(m.LenProbs, MaxTermLen, NumRankBuckets)
	}

	logger.Info("markov models trained",
		"order", cfg.Order, "words", wordsRead, "instances", totalWeight)
	return m, nil
}

// finishLengthStats converts accumulated sums into means and standard
// deviations; buckets with no observations inherit from the last bucket
// that had any.
func finishLengthStats(counts, means, stdevs []float64) {
	mean, stdev := 0.0, 0.0
	for b := 0; b < NumRankBuckets; b++ {
		if counts[b] > 0 {
			mean = means[b] / counts[b]
			stdev = math.Sqrt(stdevs[b]/counts[b] - mean*mean)
		}
		means[b] = mean
		stdevs[b] = stdev
	}
}

// cumulateRows normalizes each row of a rows x columns matrix to
// cumulative probabilities, leaving all-zero rows alone.
func cumulateRows(m []float64, rows, columns int) {
	for i := 0; i < rows; i++ {
		row := m[i*columns : (i+1)*columns]
		sum := 0.0
		for _, v := range row {
			sum += v
		}
		if sum <= 0 {
			continue
		}
		cum := 0.0
		for j, v := range row {
			cum += v / sum
			row[j] = cum
		}
	}
}

// toCumulativeProbs converts every matrix row to cumulative form in order
// of increasing k, filling rows with no observations from their backoff
// row, then verifies the result.
func (m *Model) toCumulativeProbs() error {
	numRows := 1
	for k := 0; k <= m.cfg.Order; k++ {
		mat := m.matrix(k)
		if k > 0 {
			numRows *= m.al.E
		}
		backoffPower := 1
		for j := 1; j < k; j++ {
			backoffPower *= m.al.E
		}

		for i := 0; i < numRows; i++ {
			row := mat[i*m.al.A : (i+1)*m.al.A]
			sum := 0.0
			for _, v := range row {
				sum += v
			}

			if sum <= probEpsilon && k > 0 {
				// No observations for this context: inherit the backoff
				// row. Dropping the leftmost context digit of row r gives
				// row r % E^(k-1) in the order-(k-1) matrix.
				var back []float64
				if m.cfg.FullBackoff {
					back = m.matrix(0)[:m.al.A]
				} else {
					br := i % backoffPower
					back = m.matrix(k - 1)[br*m.al.A : (br+1)*m.al.A]
				}
				copy(row, back)
				continue
			}

			cum := 0.0
			for j, v := range row {
				cum += v / sum
				row[j] = cum
			}
		}
	}
	return m.checkMatrices()
}

// checkMatrices verifies that the last column of every row is 1.0 within
// tolerance.
func (m *Model) checkMatrices() error {
	numRows := 1
	for k := 0; k <= m.cfg.Order; k++ {
		mat := m.matrix(k)
		if k > 0 {
			numRows *= m.al.E
		}
		for r := 0; r < numRows; r++ {
			end := mat[r*m.al.A+m.al.A-1]
			if end < 1.0-probEpsilon || end > 1.0+probEpsilon {
				return fmt.Errorf("order-%d matrix row %d ends at %.6f, not 1.0", k, r, end)
			}
		}
	}
	return nil
}
