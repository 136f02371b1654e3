package urlnorm

import (
	"net/url"
	"strings"
)

// trackingParams contains query parameter names that encode analytics or
// campaign metadata rather than addressing a distinct resource.
// Matching is case-insensitive.
var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"gclid":        true,
	"yclid":        true,
	"fbclid":       true,
	"_openstat":    true,
	"ref":          true,
	"source":       true,
	"medium":       true,
	"campaign":     true,
	"term":         true,
	"content":      true,
	"mc_cid":       true,
	"mc_eid":       true,
	"_ga":          true,
	"_gid":         true,
}

// paginationParams contains query parameter names that select a page or
// slice of a listing. These are never stripped, even when they collide with
// the tracking rules, because removing them would merge distinct pages.
var paginationParams = map[string]bool{
	"page":       true,
	"p":          true,
	"pagenum":    true,
	"pagenumber": true,
	"pageno":     true,
	"offset":     true,
	"start":      true,
	"per_page":   true,
	"limit":      true,
	"from":       true,
	"to":         true,
	"num":        true,
	"n":          true,
	"pg":         true,
}

// Options controls how Normalize rewrites a URL.
type Options struct {
	// StripTracking removes known tracking parameters from the query string.
	StripTracking bool

	// PreserveTrailingSlash keeps a trailing slash on non-root paths.
	// When false, "/docs/" becomes "/docs". The root path "/" is never
	// touched.
	PreserveTrailingSlash bool
}

// Normalize returns the canonical form of rawURL according to opts.
//
// Unparseable input is returned unchanged rather than erroring: the caller
// is mid-crawl and a URL that cannot be parsed will be rejected by later
// validation anyway.
func Normalize(rawURL string, opts Options) string {
	if rawURL == "" {
		return rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	// Fragments never change the fetched content.
	u.Fragment = ""
	u.RawFragment = ""

	if !opts.PreserveTrailingSlash && len(u.Path) > 1 && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}

	if opts.StripTracking && u.RawQuery != "" {
		u.RawQuery = stripTrackingParams(u.RawQuery)
	}

	return u.String()
}

// ForVisited returns the normalization used as a deduplication key.
func ForVisited(rawURL string, stripTracking bool) string {
	return Normalize(rawURL, Options{
		StripTracking:         stripTracking,
		PreserveTrailingSlash: true,
	})
}

// ForSitemap returns the normalization placed into the final result set.
//
// This is intentionally identical to ForVisited: both preserve the trailing
// slash and apply the same tracking rule. The two names exist so that the
// policies can diverge later without touching call sites.
func ForSitemap(rawURL string, stripTracking bool) string {
	return Normalize(rawURL, Options{
		StripTracking:         stripTracking,
		PreserveTrailingSlash: true,
	})
}

// IsTracking reports whether the query parameter name is treated as a
// tracking parameter. Pagination parameters always win over tracking rules.
func IsTracking(name string) bool {
	lower := strings.ToLower(name)
	if paginationParams[lower] {
		return false
	}
	return trackingParams[lower] || strings.HasPrefix(lower, "utm_")
}

// stripTrackingParams rebuilds a raw query string without tracking
// parameters, preserving the original parameter order.
//
// We parse the query by hand instead of using url.Values because
// url.Values.Encode sorts keys alphabetically, which would reorder
// parameters and break idempotence guarantees callers rely on for stable
// output.
func stripTrackingParams(rawQuery string) string {
	var kept []string
	for part := range strings.SplitSeq(rawQuery, "&") {
		if part == "" {
			continue
		}

		key, value, hasValue := strings.Cut(part, "=")
		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			// Keep undecodable parameters untouched; dropping them
			// could merge distinct resources.
			kept = append(kept, part)
			continue
		}

		if IsTracking(decodedKey) {
			continue
		}

		encoded := url.QueryEscape(decodedKey)
		if hasValue {
			decodedValue, err := url.QueryUnescape(value)
			if err != nil {
				kept = append(kept, part)
				continue
			}
			encoded += "=" + url.QueryEscape(decodedValue)
		}
		kept = append(kept, encoded)
	}

	return strings.Join(kept, "&")
}
