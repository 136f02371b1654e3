package sitemap

import (
	"io"
	"strings"

	"github.com/nao1215/sitemapgen/internal/model"
)

// TextWriter outputs one URL per line.
// This format is designed for shell pipelines and quick inspection.
//
// Design decision: We use plain text without headers or decoration
// because:
// 1. It composes cleanly with grep, sort, wc and similar tools
// 2. It's trivially diffable between crawl runs
// 3. Decoration belongs in the Markdown writer
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write renders the result as newline-separated URLs.
func (w *TextWriter) Write(result *model.Result) (int, error) {
	if len(result.URLs) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	for _, u := range result.URLs {
		sb.WriteString(u)
		sb.WriteString("\n")
	}

	return w.output.Write([]byte(sb.String()))
}
