package corpus

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"synthacorpus/pkg/logger"
	"synthacorpus/pkg/rng"
)

// LengthHistogram records how many documents of each length the corpus
// should contain. Index i of counts holds the number of documents of
// length i+1; zero-length documents are never recorded.
type LengthHistogram struct {
	counts []int64
	docs   int64
	maxLen int
}

// Count returns the number of documents of the given length.
func (h *LengthHistogram) Count(length int) int64 {
	if length < 1 || length > len(h.counts) {
		return 0
	}
	return h.counts[length-1]
}

// Docs returns the total number of documents recorded.
func (h *LengthHistogram) Docs() int64 { return h.docs }

// MaxLength returns the largest length with a non-zero count.
func (h *LengthHistogram) MaxLength() int { return h.maxLen }

func (h *LengthHistogram) add(length int, count int64) {
	for len(h.counts) < length {
		h.counts = append(h.counts, 0)
	}
	h.counts[length-1] += count
	h.docs += count
	if length > h.maxLen {
		h.maxLen = length
	}
}

// LengthModel describes how document lengths are generated when no
// histogram file is supplied.
type LengthModel struct {
	// Mean and Stdev parameterize a normal length model.
	Mean  float64
	Stdev float64

	// GammaShape > 0 selects a gamma length model instead.
	GammaShape float64
	GammaScale float64

	// Cumprobs/Lengths, when non-empty, select a piecewise-linear model.
	Cumprobs []float64
	Lengths  []float64
}

// ParseLengthSegments parses a piecewise document-length specification of
// the form "4:1,0.333333;10,0.500000;200,0.666667;5000,1.000000".
func ParseLengthSegments(spec string) (lengths, cumprobs []float64, err error) {
	colon := strings.IndexByte(spec, ':')
	if colon < 0 {
		return nil, nil, fmt.Errorf("length segments %q: missing ':'", spec)
	}
	n, err := strconv.Atoi(spec[:colon])
	if err != nil || n < 2 {
		return nil, nil, fmt.Errorf("length segments %q: need at least 2 points", spec)
	}
	points := strings.Split(spec[colon+1:], ";")
	if len(points) != n {
		return nil, nil, fmt.Errorf("length segments %q: %d points declared, %d given", spec, n, len(points))
	}
	for i, pt := range points {
		parts := strings.Split(pt, ",")
		if len(parts) != 2 {
			return nil, nil, fmt.Errorf("length segments %q: bad point %q", spec, pt)
		}
		l, err1 := strconv.ParseFloat(parts[0], 64)
		c, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			return nil, nil, fmt.Errorf("length segments %q: bad point %q", spec, pt)
		}
		if i > 0 && (l < lengths[i-1] || c < cumprobs[i-1]) {
			return nil, nil, fmt.Errorf("length segments %q: values not in ascending order", spec)
		}
		lengths = append(lengths, l)
		cumprobs = append(cumprobs, c)
	}
	if cumprobs[len(cumprobs)-1] < 1.0 {
		return nil, nil, fmt.Errorf("length segments %q: last cumulative probability must be 1.0", spec)
	}
	return lengths, cumprobs, nil
}

// GenerateLengthHistogram draws document lengths from the model until the
// cumulative length reaches the posting budget.
func GenerateLengthHistogram(src *rng.Source, model *LengthModel, budget int64) (*LengthHistogram, error) {
	h := &LengthHistogram{}
	var total int64
	for total < budget {
		var length int
		switch {
		case len(model.Cumprobs) > 0:
			rl, err := src.Cumdist(model.Cumprobs, model.Lengths)
			if err != nil {
				return nil, err
			}
			length = int(math.Ceil(rl))
		case model.GammaShape > 0:
			length = int(math.Round(src.Gamma(model.GammaShape, model.GammaScale)))
		default:
			length = int(math.Round(src.Normal(model.Mean, model.Stdev)))
		}
		if length < 1 {
			continue
		}
		if length > MaxDocWords {
			length = MaxDocWords
		}
		h.add(length, 1)
		total += int64(length)
	}
	logger.Info("document length histogram generated", "docs", h.docs, "maxLength", h.maxLen)
	return h, nil
}

// ReadLengthHistogram loads a doclenhist file: comment lines start with
// '#', data lines are "<length> TAB <count>". Counts are scaled so the
// represented posting total matches the budget.
func ReadLengthHistogram(path string, budget int64) (*LengthHistogram, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading length histogram: %w", err)
	}
	defer f.Close()

	h := &LengthHistogram{}
	var totalLength float64

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%s: malformed histogram line %q", path, line)
		}
		length, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%s: bad length in %q: %w", path, line, err)
		}
		if length == 0 {
			continue
		}
		count, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: bad count in %q: %w", path, line, err)
		}
		h.add(length, count)
		totalLength += float64(count) * float64(length)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading length histogram: %w", err)
	}

	scaling := float64(budget) / totalLength
	logger.Info("scaling length histogram", "represented", totalLength, "requested", budget, "factor", scaling)
	h.docs = 0
	for i := range h.counts {
		scaled := int64(math.Round(float64(h.counts[i]) * scaling))
		h.counts[i] = scaled
		h.docs += scaled
	}
	return h, nil
}
