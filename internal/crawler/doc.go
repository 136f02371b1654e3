// Package crawler discovers the reachable pages of a single domain.
//
// # Architecture
//
// The package is designed around the Spider type, which coordinates the
// crawl. It keeps an explicit depth-first frontier of (url, depth) entries
// and walks it with a plain loop, so call-stack depth stays constant no
// matter how deep the link graph goes. Traversal is strictly sequential:
// at most one HTTP request is outstanding at any time, and pages are
// visited depth-first in the order links appear in each page's markup.
//
// Design decision: We implement our own engine rather than using a crawling
// framework because:
//  1. Sitemap generation needs exact control over normalization and dedup
//  2. The filter statistics must match the traversal decisions one-to-one
//  3. A sequential crawler has no need for a framework's concurrency
//
// # Components
//
//   - Spider: the engine; owns the visited set, result set and statistics
//   - Parser: extracts anchor links from HTML in document order
//
// # Politeness
//
// The crawler is designed to be polite:
//   - Respects robots.txt (configurable, fails open)
//   - Delays between requests (configurable; the first request is free)
//   - Retries transient failures with backoff, never HTTP errors
//   - Identifies itself with a fixed crawler User-Agent
//
// # Usage
//
//	spider := crawler.NewSpider(cfg, httpClient)
//	result, err := spider.Run(ctx)
package crawler
