// Package starc reads and writes the Simple Text ARChive format: each
// record is introduced by its byte length in decimal ASCII, a one-letter
// record type (H - header, D - document, T - trailer) and a space, so no
// in-band delimiters are needed. The package also provides the
// tab-separated output format and the archive maintenance tools
// (validation, counting, record selection).
package starc

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"synthacorpus/pkg/corpus"
	"synthacorpus/pkg/logger"
	"synthacorpus/pkg/termrep"
)

// writeRecord emits one STARC record of the given type.
func writeRecord(w *bufio.Writer, recType byte, body []byte) error {
	if _, err := fmt.Fprintf(w, " %d%c ", len(body), recType); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// WriteArchive walks the term-occurrence array and writes one document
// per final-posting run in STARC format, substituting each rank with its
// word form. With docnums, each document is preceded by a header record
// naming it.
func WriteArchive(w io.Writer, occ []corpus.Posting, table *termrep.Table, includeDocnums bool) (int64, error) {
	bw := bufio.NewWriterSize(w, 1<<20)
	var doc []byte
	var written int64

	for p, posting := range occ {
		if len(doc) > 0 {
			doc = append(doc, ' ')
		}
		doc = append(doc, table.Word(int(posting.Rank()))...)

		if posting.IsFinal() || p == len(occ)-1 {
			if includeDocnums {
				header := fmt.Sprintf("Doc%08d", written)
				if err := writeRecord(bw, 'H', []byte(header)); err != nil {
					return written, fmt.Errorf("writing archive header: %w", err)
				}
			}
			doc = append(doc, '\n')
			if err := writeRecord(bw, 'D', doc); err != nil {
				return written, fmt.Errorf("writing archive document: %w", err)
			}
			doc = doc[:0]
			written++
		}
	}
	if err := bw.Flush(); err != nil {
		return written, fmt.Errorf("flushing archive: %w", err)
	}
	logger.Info("documents written", "format", "starc", "docs", written)
	return written, nil
}

// WriteTSV writes one document per line, words separated by spaces and a
// trailing static-weight column, optionally followed by a document-number
// column.
func WriteTSV(w io.Writer, occ []corpus.Posting, table *termrep.Table, includeDocnums bool) (int64, error) {
	bw := bufio.NewWriterSize(w, 1<<20)
	var written int64
	atLineStart := true

	for p, posting := range occ {
		if !atLineStart {
			if err := bw.WriteByte(' '); err != nil {
				return written, err
			}
		}
		if _, err := bw.WriteString(table.Word(int(posting.Rank()))); err != nil {
			return written, err
		}
		atLineStart = false

		if posting.IsFinal() || p == len(occ)-1 {
			var err error
			if includeDocnums {
				_, err = fmt.Fprintf(bw, "\t1\tDoc%d\n", written)
			} else {
				_, err = bw.WriteString("\t1\n")
			}
			if err != nil {
				return written, err
			}
			written++
			atLineStart = true
		}
	}
	if err := bw.Flush(); err != nil {
		return written, fmt.Errorf("flushing output: %w", err)
	}
	logger.Info("documents written", "format", "tsv", "docs", written)
	return written, nil
}

// IsTSVPath reports whether an output path selects the tab-separated
// writer.
func IsTSVPath(path string) bool {
	return strings.HasSuffix(path, ".tsv") || strings.HasSuffix(path, ".TSV")
}
