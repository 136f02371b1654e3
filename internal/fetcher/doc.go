// Package fetcher performs single-page HTTP fetches for the crawler.
//
// # Outcome model
//
// Get never returns an error for the per-URL failures a crawl must survive.
// Instead it classifies every fetch into one of four outcomes:
//
//   - HTML: status 200 with a text/html body (the only crawlable outcome)
//   - NonHTML: status 200 with any other content type
//   - HTTPError: any non-200 status (4xx/5xx, never retried)
//   - NetworkError: transport failure after the retry budget is exhausted
//
// The crawl engine's per-URL decision table is a pure switch over this
// variant; exceptions-as-control-flow are deliberately avoided.
//
// # Retry policy
//
// Connection and timeout failures are retried up to 3 attempts total with
// exponential backoff (1s, 2s between attempts). HTTP error statuses are
// terminal for a URL: retrying a 404 or 500 wastes the politeness budget
// and rarely changes the answer within one crawl.
package fetcher
