package zipf

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"synthacorpus/pkg/logger"
)

// ReadTOFS loads the term-occurrence-frequency array from a vocab TSV
// file, for runs which reuse the exact frequency histogram of a base
// corpus. The file must be sorted by descending frequency, have exactly
// vocabSize lines, and its frequencies must sum to postings.
func ReadTOFS(path string, postings int64, vocabSize int) ([]uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading TOFS: %w", err)
	}
	defer f.Close()

	tofs := make([]uint64, 0, vocabSize)
	var total int64

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("%s line %d: no TAB found", path, line)
		}
		freq, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad frequency: %w", path, line, err)
		}
		if line > vocabSize {
			return nil, fmt.Errorf("%s has more than %d lines", path, vocabSize)
		}
		tofs = append(tofs, uint64(freq))
		total += freq
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TOFS: %w", err)
	}
	if line < vocabSize {
		return nil, fmt.Errorf("%s has %d lines, fewer than vocabulary size %d", path, line, vocabSize)
	}
	if total != postings {
		return nil, fmt.Errorf("%s holds %d postings, requested %d", path, total, postings)
	}

	logger.Info("TOFS loaded from base vocabulary", "path", path, "terms", line)
	return tofs, nil
}
