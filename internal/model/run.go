package model

import "time"

// Run is a crawl run as stored in the history database. It captures the
// final URL set and enough metadata to compare runs over time.
type Run struct {
	// ID is the database identifier of the run. Zero for unsaved runs.
	ID int64 `json:"id"`

	// SeedURL is the URL the crawl started from.
	SeedURL string `json:"seed_url"`

	// StartedAt is when the crawl began.
	StartedAt time.Time `json:"started_at"`

	// Duration is how long the crawl took.
	Duration time.Duration `json:"duration"`

	// URLs is the sorted sitemap URL set produced by the crawl.
	URLs []string `json:"urls"`

	// Stats holds the filter counters recorded during the crawl.
	Stats Stats `json:"stats"`
}

// URLCount returns the number of URLs in the run.
func (r *Run) URLCount() int {
	return len(r.URLs)
}

// Diff compares this run against an older run and returns the URLs that
// were added and removed. Both inputs are assumed sorted, as produced by
// the crawl engine; the comparison itself does not rely on ordering.
func (r *Run) Diff(older *Run) (added, removed []string) {
	in := make(map[string]bool, len(older.URLs))
	for _, u := range older.URLs {
		in[u] = true
	}
	for _, u := range r.URLs {
		if !in[u] {
			added = append(added, u)
		}
	}

	cur := make(map[string]bool, len(r.URLs))
	for _, u := range r.URLs {
		cur[u] = true
	}
	for _, u := range older.URLs {
		if !cur[u] {
			removed = append(removed, u)
		}
	}

	return added, removed
}
