// Package urlnorm normalizes URLs for deduplication and sitemap output.
//
// # Overview
//
// The same page is frequently reachable through many textual URL variants:
// different scheme/host casing, fragments, and analytics query parameters
// (utm_*, gclid, fbclid, ...). Normalization collapses these variants into a
// single canonical form so that the crawler visits each page once and the
// generated sitemap contains no duplicates.
//
// # Rules
//
//   - Scheme and host are lowercased.
//   - The fragment is always removed.
//   - With tracking stripping enabled, known tracking parameters and any
//     parameter starting with "utm_" are removed from the query string.
//     Pagination parameters (page, offset, limit, ...) are always kept
//     because they address distinct resources.
//   - Path case and (by policy) the trailing slash are preserved.
//
// All functions are pure and idempotent: normalizing an already-normalized
// URL returns it unchanged.
package urlnorm
