// Package model defines the core data structures used throughout sitemapgen.
//
// This package contains the following main types:
//   - Stats: Counters explaining why URLs were filtered during a crawl
//   - Result: The outcome of one completed crawl (sorted URLs plus Stats)
//   - Run: A stored crawl run as persisted in the history database
//
// Design decision: These types live in their own package because crawler,
// pipeline, sitemap and database all exchange them; keeping them here
// prevents import cycles between producers and consumers.
//
// All types carry JSON tags since they are serialized both for the JSON
// output format and for history storage.
package model
