package model

// Stats counts URLs that were seen during a crawl but did not make it into
// the sitemap, broken down by cause. The caller is expected to present these
// counters alongside the accepted URL list so silent skips remain auditable.
//
// Design decision: Stats is a plain value struct owned by the crawl engine
// and returned to the caller, not ambient mutable state. This keeps the
// engine reusable and testable in isolation.
type Stats struct {
	// FilteredByExclude counts URLs rejected by the exclude-substring filter.
	FilteredByExclude int `json:"filtered_by_exclude"`

	// FilteredByTracking counts discovered links whose dedup form differed
	// from the raw link because tracking parameters were stripped. This is
	// an observation, not a rejection: the normalized link is still crawled.
	FilteredByTracking int `json:"filtered_by_tracking"`

	// FilteredByDepth counts URLs rejected because they exceeded the
	// maximum crawl depth.
	FilteredByDepth int `json:"filtered_by_depth"`

	// FilteredByMaxURLs counts visits cut short because the URL limit
	// had been reached.
	FilteredByMaxURLs int `json:"filtered_by_max_urls"`

	// Non200Status counts fetches that returned an HTTP error status
	// (4xx or 5xx). These are never retried.
	Non200Status int `json:"non_200_status"`
}

// TotalFiltered returns the sum of all filter counters.
func (s Stats) TotalFiltered() int {
	return s.FilteredByExclude +
		s.FilteredByTracking +
		s.FilteredByDepth +
		s.FilteredByMaxURLs +
		s.Non200Status
}

// Result is the outcome of one completed crawl.
type Result struct {
	// SeedURL is the URL the crawl started from.
	SeedURL string `json:"seed_url"`

	// URLs is the deduplicated, sitemap-normalized URL set, sorted
	// lexicographically ascending.
	URLs []string `json:"urls"`

	// Stats explains the gap between URLs visited and URLs accepted.
	Stats Stats `json:"stats"`
}
