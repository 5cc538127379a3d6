package starc

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"synthacorpus/pkg/logger"
	"synthacorpus/pkg/rng"
)

// SelectMode chooses how records are picked from a file.
type SelectMode int

const (
	// SelectRandom rolls a die per document against a proportion.
	SelectRandom SelectMode = iota
	// SelectHead copies the first N documents.
	SelectHead
)

// SelectOptions configures record selection.
type SelectOptions struct {
	Mode       SelectMode
	Proportion float64 // random mode: probability a document is kept
	HeadCount  int64   // head mode: number of documents to keep
}

// SelectRecords copies a subset of the documents in inPath to w. STARC
// inputs keep each document's H record with its D record; other inputs
// are treated line-by-line. Returns the number of documents selected.
func SelectRecords(src *rng.Source, inPath string, w io.Writer, opts SelectOptions) (int64, error) {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return 0, fmt.Errorf("selecting records: %w", err)
	}
	bw := bufio.NewWriterSize(w, 1<<20)
	var selected, seen int64

	keep := func() bool {
		seen++
		if opts.Mode == SelectHead {
			return selected < opts.HeadCount
		}
		return src.Uniform() < opts.Proportion
	}

	if isSTARCPath(inPath) {
		var pendingHeader *Record
		err = ScanRecords(data, func(rec Record) error {
			if rec.Type == 'H' {
				header := rec
				pendingHeader = &header
				return nil
			}
			if rec.Type != 'D' {
				pendingHeader = nil
				return nil
			}
			if keep() {
				if pendingHeader != nil {
					if err := writeRecord(bw, 'H', pendingHeader.Body); err != nil {
						return err
					}
				}
				if err := writeRecord(bw, 'D', rec.Body); err != nil {
					return err
				}
				selected++
			}
			pendingHeader = nil
			return nil
		})
	} else {
		err = Documents(inPath, func(doc []byte) error {
			if keep() {
				if _, werr := bw.Write(doc); werr != nil {
					return werr
				}
				if werr := bw.WriteByte('\n'); werr != nil {
					return werr
				}
				selected++
			}
			return nil
		})
	}
	if err != nil {
		return selected, err
	}
	if err := bw.Flush(); err != nil {
		return selected, err
	}
	logger.Info("records selected", "seen", seen, "selected", selected)
	return selected, nil
}
