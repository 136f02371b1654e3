package sitemap

import (
	"encoding/json"
	"io"

	"github.com/nao1215/sitemapgen/internal/model"
)

// JSONWriter renders the full crawl result (seed, URLs, stats) as one JSON
// document, intended for piping into other tools. The URL list alone is
// better served by TextWriter.
type JSONWriter struct {
	baseWriter

	// indentPrefix and indentString control pretty-printing.
	// Both empty means compact output.
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent pretty-prints the JSON using the given line prefix and
// per-level indent, as in json.MarshalIndent.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is shorthand for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
// Output is compact unless an indent option is supplied.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write renders the result as a JSON document followed by a newline.
func (w *JSONWriter) Write(result *model.Result) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indentString != "" || w.indentPrefix != "" {
		data, err = json.MarshalIndent(result, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(result)
	}
	if err != nil {
		return 0, err
	}
	return w.output.Write(append(data, '\n'))
}
