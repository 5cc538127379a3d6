// Package report renders the extractor's markdown property summary as a
// standalone HTML page.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

const header = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Corpus property report</title></head>
<body>
`

const footer = "</body>\n</html>\n"

// RenderHTML converts a markdown summary file to an HTML document.
func RenderHTML(mdPath string, w io.Writer) error {
	source, err := os.ReadFile(mdPath)
	if err != nil {
		return fmt.Errorf("reading summary: %w", err)
	}
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	if err := md.Convert(source, w); err != nil {
		return fmt.Errorf("rendering summary: %w", err)
	}
	_, err = io.WriteString(w, footer)
	return err
}
