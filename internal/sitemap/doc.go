// Package sitemap renders crawl results in the supported output formats.
//
// This package contains writers for different output formats:
//   - XMLWriter: sitemaps.org urlset XML for search engine submission
//   - TextWriter: one URL per line for shell pipelines
//   - JSONWriter: structured JSON output for tool integration
//   - MarkdownWriter: a crawl summary for documentation and sharing
//
// Design decision: Rendering lives apart from the model package so a new
// output format is a new file here, never a change to the crawl engine or
// its result types.
//
// All formats implement the Writer interface and can be fanned out with
// MultiWriter when several outputs are requested at once.
package sitemap
