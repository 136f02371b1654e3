package sitemap

import (
	"io"

	"github.com/nao1215/sitemapgen/internal/model"
)

// Writer renders a crawl result in one output format.
//
// Design decision: Writers take a *model.Result rather than raw bytes
// because:
// 1. Each format needs the structured data (URLs, stats, seed)
// 2. The destination stays a plain io.Writer inside each implementation
// 3. Formats can be combined with MultiWriter without re-serializing
type Writer interface {
	// Write renders the result to the configured destination and reports
	// the number of bytes written.
	Write(result *model.Result) (int, error)
}

// MultiWriter fans one result out to several Writers, for example to
// print the URL list to the terminal while also writing the XML file.
// It stops at the first writer that fails.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to every given Writer in order.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders the result through each writer and sums the bytes written.
// The count includes bytes written before a failing writer returned.
func (m *MultiWriter) Write(result *model.Result) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter holds the destination shared by all format writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
