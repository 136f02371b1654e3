// Package log provides logging for sitemapgen with automatic masking of
// credential-bearing URL parameters, built on top of the standard slog
// package.
//
// # Why URLs need masking
//
// A crawler logs URLs constantly: fetched pages, skipped links, retry
// targets. Real-world sites embed secrets in query strings (session ids,
// share tokens, API keys in webhook-style links), so a verbose crawl log
// can easily leak credentials into files that get shared for debugging.
// The URLHandler rewrites the query string of any URL-shaped attribute
// value, replacing the values of sensitive parameters with a mask before
// the record reaches the underlying handler.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//	logger.Debug("fetched",
//	    "url", "https://example.com/page?session=abc123", // session masked
//	    "status", 200,
//	)
//	slog.SetDefault(logger)
package log
