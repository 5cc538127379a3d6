package starc

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"synthacorpus/pkg/logger"
)

// Record is one parsed STARC record.
type Record struct {
	Type byte // 'H', 'D' or 'T'
	Body []byte
}

// ScanRecords walks a STARC image in memory, calling fn for each record.
// Any malformed introducer or a record chain that does not land exactly
// on end-of-file is an error.
func ScanRecords(data []byte, fn func(rec Record) error) error {
	pos := 0
	for pos < len(data) {
		for pos < len(data) && data[pos] == ' ' {
			pos++
		}
		start := pos
		var length int
		for pos < len(data) && data[pos] >= '0' && data[pos] <= '9' {
			length = length*10 + int(data[pos]-'0')
			pos++
		}
		if pos == start || pos >= len(data) {
			return fmt.Errorf("malformed record introducer at offset %d", start)
		}
		recType := data[pos]
		if recType != 'H' && recType != 'D' && recType != 'T' {
			return fmt.Errorf("record type %q is invalid at offset %d", recType, pos)
		}
		pos++
		if pos >= len(data) || data[pos] != ' ' {
			return fmt.Errorf("missing space after record type at offset %d", pos)
		}
		pos++
		if pos+length > len(data) {
			return fmt.Errorf("record at offset %d extends beyond end of file", start)
		}
		if err := fn(Record{Type: recType, Body: data[pos : pos+length]}); err != nil {
			return err
		}
		pos += length
	}
	return nil
}

// Check validates a STARC file: every record must be well formed and of a
// known type, and the length chain must end exactly at end-of-file.
// Returns the per-type record counts.
func Check(path string) (hCount, dCount, tCount int64, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("checking archive: %w", err)
	}
	err = ScanRecords(data, func(rec Record) error {
		switch rec.Type {
		case 'H':
			hCount++
		case 'D':
			dCount++
		case 'T':
			tCount++
		}
		return nil
	})
	if err != nil {
		return hCount, dCount, tCount, err
	}
	logger.Info("archive checks passed", "H", hCount, "D", dCount, "T", tCount)
	return hCount, dCount, tCount, nil
}

// CountDocs counts the documents in a corpus file. STARC files are
// counted by document group: the type of the first record determines
// which records start a group. Other files are counted by line.
func CountDocs(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	if isSTARCPath(path) {
		return countSTARCDocs(data)
	}
	return countLines(data), nil
}

func isSTARCPath(path string) bool {
	return strings.HasSuffix(path, ".starc") || strings.HasSuffix(path, ".STARC")
}

func countSTARCDocs(data []byte) (int64, error) {
	var count int64
	var startType byte
	err := ScanRecords(data, func(rec Record) error {
		if startType == 0 {
			startType = rec.Type
		}
		if rec.Type == startType {
			count++
		}
		return nil
	})
	return count, err
}

func countLines(data []byte) int64 {
	if len(data) == 0 {
		return 0
	}
	count := int64(bytes.Count(data, []byte{'\n'}))
	if data[len(data)-1] != '\n' {
		count++
	}
	return count
}

// Documents extracts the body of each D record (or each line of a
// non-STARC file) for downstream consumers like the property extractor.
func Documents(path string, fn func(doc []byte) error) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading corpus: %w", err)
	}
	if isSTARCPath(path) {
		return ScanRecords(data, func(rec Record) error {
			if rec.Type != 'D' {
				return nil
			}
			return fn(bytes.TrimSuffix(rec.Body, []byte{'\n'}))
		})
	}
	for len(data) > 0 {
		nl := bytes.IndexByte(data, '\n')
		if nl < 0 {
			return fn(data)
		}
		if err := fn(data[:nl]); err != nil {
			return err
		}
		data = data[nl+1:]
	}
	return nil
}
