// Package config holds crawl configuration for sitemapgen.
//
// Configuration is assembled from three sources, in increasing priority:
//
//  1. Built-in defaults (NewConfig)
//  2. The optional .sitemapgen YAML file (per-site overrides)
//  3. CLI flags
//
// The assembled Config is validated once with Validate before any crawl
// starts and is treated as immutable afterwards. This package intentionally
// has no knowledge of cobra: the CLI layer maps flags onto the struct.
package config
