package sitemap

import (
	"encoding/xml"
	"io"
	"time"

	"github.com/nao1215/sitemapgen/internal/model"
)

// xmlNamespace is the sitemaps.org protocol namespace.
const xmlNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// urlEntry is one <url> element of the urlset.
type urlEntry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// urlSet is the root <urlset> element.
type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

// XMLWriter outputs results as a sitemaps.org urlset document.
// This is the format search engines accept for sitemap submission.
type XMLWriter struct {
	baseWriter

	// lastMod is the modification date stamped on every entry.
	lastMod time.Time

	// changeFreq is the change frequency hint for every entry.
	changeFreq string

	// priority is the priority hint for every entry.
	priority string
}

// XMLWriterOption configures an XMLWriter.
type XMLWriterOption func(*XMLWriter)

// WithLastMod sets the lastmod date stamped on every entry.
// Defaults to the time of writing.
func WithLastMod(t time.Time) XMLWriterOption {
	return func(w *XMLWriter) {
		w.lastMod = t
	}
}

// WithChangeFreq sets the changefreq hint. An empty string omits the
// element.
func WithChangeFreq(freq string) XMLWriterOption {
	return func(w *XMLWriter) {
		w.changeFreq = freq
	}
}

// WithPriority sets the priority hint. An empty string omits the element.
func WithPriority(priority string) XMLWriterOption {
	return func(w *XMLWriter) {
		w.priority = priority
	}
}

// NewXMLWriter creates an XMLWriter that outputs to the given writer.
// Entries default to changefreq "weekly" and priority "0.8".
func NewXMLWriter(output io.Writer, opts ...XMLWriterOption) *XMLWriter {
	w := &XMLWriter{
		baseWriter: newBaseWriter(output),
		changeFreq: "weekly",
		priority:   "0.8",
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write renders the result as an XML urlset document.
func (w *XMLWriter) Write(result *model.Result) (int, error) {
	lastMod := w.lastMod
	if lastMod.IsZero() {
		lastMod = time.Now()
	}

	set := urlSet{
		Xmlns: xmlNamespace,
		URLs:  make([]urlEntry, 0, len(result.URLs)),
	}
	for _, u := range result.URLs {
		set.URLs = append(set.URLs, urlEntry{
			Loc:        u,
			LastMod:    lastMod.Format("2006-01-02"),
			ChangeFreq: w.changeFreq,
			Priority:   w.priority,
		})
	}

	data, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return 0, err
	}

	n, err := w.output.Write([]byte(xml.Header))
	if err != nil {
		return n, err
	}
	m, err := w.output.Write(append(data, '\n'))
	return n + m, err
}
