package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and SetSeed() and provide
// specific information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than creating
// new error instances at the point of failure. This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoSeedURL is returned when no seed URL was provided.
	ErrNoSeedURL = errors.New("no seed URL specified: provide a URL to crawl")

	// ErrInvalidSeedURL is returned when the seed URL is not an absolute
	// http or https URL with a host. A crawl cannot start from a relative
	// or non-web URL.
	ErrInvalidSeedURL = errors.New("invalid seed URL: must include http:// or https:// and a domain name")

	// ErrInvalidMaxDepth is returned when the maximum depth is below 1.
	// Depth 1 means the seed page plus its direct links.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be at least 1")

	// ErrInvalidMaxURLs is returned when the URL limit is negative.
	// Use 0 for an unlimited crawl.
	ErrInvalidMaxURLs = errors.New("invalid max URLs: must be non-negative (0 = unlimited)")

	// ErrInvalidTimeout is returned when the request timeout is not
	// positive. A zero timeout would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to fall back to the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
