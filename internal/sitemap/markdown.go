package sitemap

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/sitemapgen/internal/model"
)

// MarkdownWriter renders a human-readable crawl summary: crawl properties,
// filter statistics with a mermaid pie chart, and the collected URL list.
// Meant for attaching to a ticket or a repository.
//
// Design decision: The document is built with nao1215/markdown instead of
// string concatenation because:
// 1. Tables and lists come out correctly escaped and aligned
// 2. The mermaid pie chart integrates with the same builder
// 3. The builder collects write errors so Write has one error path
type MarkdownWriter struct {
	baseWriter

	// now stamps the report; overridable for deterministic tests.
	now func() time.Time

	// maxListedURLs caps the URL listing; 0 lists everything.
	maxListedURLs int
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithClock sets the time source used for the report timestamp.
func WithClock(now func() time.Time) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.now = now
	}
}

// WithMaxListedURLs caps the number of URLs listed in the report.
// A zero or negative value lists all URLs.
func WithMaxListedURLs(n int) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.maxListedURLs = n
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write renders the crawl summary in Markdown format.
func (w *MarkdownWriter) Write(result *model.Result) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writeStats(md, result)
	w.writeURLs(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.Result) {
	md.H1("Sitemap Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed URL", "`" + result.SeedURL + "`"},
			{"Generated", w.now().Format("2006-01-02 15:04:05 MST")},
			{"URLs Collected", strconv.Itoa(len(result.URLs))},
			{"URLs Filtered", strconv.Itoa(result.Stats.TotalFiltered())},
		},
	})
	md.PlainText("")
}

// writeStats writes the filter statistics section.
func (w *MarkdownWriter) writeStats(md *markdown.Markdown, result *model.Result) {
	md.H2("Filter Statistics")
	md.PlainText("")

	stats := result.Stats
	md.Table(markdown.TableSet{
		Header: []string{"Filter", "Count"},
		Rows: [][]string{
			{"Exclude patterns", strconv.Itoa(stats.FilteredByExclude)},
			{"Tracking parameters", strconv.Itoa(stats.FilteredByTracking)},
			{"Depth limit", strconv.Itoa(stats.FilteredByDepth)},
			{"URL limit", strconv.Itoa(stats.FilteredByMaxURLs)},
			{"HTTP errors", strconv.Itoa(stats.Non200Status)},
			{"**Total**", "**" + strconv.Itoa(stats.TotalFiltered()) + "**"},
		},
	})
	md.PlainText("")

	if stats.TotalFiltered() > 0 {
		w.writePieChart(md, stats)
	}

	if stats.Non200Status > 0 {
		md.Warningf(
			"%d page(s) returned an HTTP error status and were skipped.",
			stats.Non200Status,
		)
		md.PlainText("")
	}
}

// writePieChart writes a mermaid pie chart of the filter distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, stats model.Stats) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Filtered URL Distribution"),
		piechart.WithShowData(true),
	)

	if stats.FilteredByExclude > 0 {
		chart.LabelAndIntValue("Exclude patterns", uint64(stats.FilteredByExclude))
	}
	if stats.FilteredByTracking > 0 {
		chart.LabelAndIntValue("Tracking parameters", uint64(stats.FilteredByTracking))
	}
	if stats.FilteredByDepth > 0 {
		chart.LabelAndIntValue("Depth limit", uint64(stats.FilteredByDepth))
	}
	if stats.FilteredByMaxURLs > 0 {
		chart.LabelAndIntValue("URL limit", uint64(stats.FilteredByMaxURLs))
	}
	if stats.Non200Status > 0 {
		chart.LabelAndIntValue("HTTP errors", uint64(stats.Non200Status))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeURLs writes the collected URL listing.
func (w *MarkdownWriter) writeURLs(md *markdown.Markdown, result *model.Result) {
	md.H2("URLs")
	md.PlainText("")

	if len(result.URLs) == 0 {
		md.PlainText("No URLs were collected.")
		md.PlainText("")
		return
	}

	urls := result.URLs
	truncated := 0
	if w.maxListedURLs > 0 && len(urls) > w.maxListedURLs {
		truncated = len(urls) - w.maxListedURLs
		urls = urls[:w.maxListedURLs]
	}

	md.BulletList(urls...)
	md.PlainText("")

	if truncated > 0 {
		md.PlainTextf("*... and %d more*", truncated)
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by [sitemapgen](https://github.com/nao1215/sitemapgen)*")
}
