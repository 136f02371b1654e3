// Package pipeline runs crawls in background goroutines and reports their
// progress over channels.
//
// The Runner wraps one crawl: it starts the crawl engine in its own
// goroutine and streams discovery events (URL found, finished, failed) to
// the caller, so an interactive frontend never blocks on network I/O.
// The BatchProcessor fans out over multiple seed URLs with a bounded
// number of concurrent crawls using errgroup.
//
// Design decision: We use a channel-based event stream instead of
// callbacks crossing goroutines because:
// 1. The consumer controls its own pacing; backpressure is explicit
// 2. A single receive loop is easier to reason about than locked state
// 3. Channel close gives an unambiguous end-of-crawl signal
package pipeline
