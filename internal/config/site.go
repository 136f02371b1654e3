package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "500ms" or "2s" decode
// naturally. yaml.v3 has no special handling for time.Duration and would
// otherwise require raw nanosecond integers in config files.
type Duration time.Duration

// UnmarshalYAML decodes either a duration string ("1s") or an integer
// number of nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	*d = Duration(n)
	return nil
}

// MarshalYAML encodes the duration in its string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// SiteConfig holds per-site overrides for a single domain.
// This allows keeping different crawl settings for regularly crawled sites
// in one config file instead of repeating CLI flags.
type SiteConfig struct {
	// MaxDepth overrides the global crawl depth for this site.
	// If zero, the global MaxDepth is used.
	MaxDepth int `yaml:"maxDepth,omitempty"`

	// MaxURLs overrides the URL limit for this site.
	// A pointer distinguishes "not set" from an explicit 0 (unlimited).
	MaxURLs *int `yaml:"maxUrls,omitempty"`

	// Exclude lists URL substrings to skip for this site. These are
	// appended to any globally configured exclusions.
	Exclude []string `yaml:"exclude,omitempty"`

	// StripTracking overrides tracking-parameter stripping for this site.
	StripTracking *bool `yaml:"stripTracking,omitempty"`

	// CrawlDelay overrides the politeness delay for this site.
	CrawlDelay Duration `yaml:"crawlDelay,omitempty"`

	// RespectRobots overrides robots.txt compliance for this site.
	RespectRobots *bool `yaml:"respectRobots,omitempty"`

	// UserAgent overrides the User-Agent header for this site.
	UserAgent string `yaml:"userAgent,omitempty"`
}

// File represents the structure of the .sitemapgen configuration file.
type File struct {
	// Sites maps domains to their site-specific configurations.
	// Keys are lowercased hosts (e.g., "example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains site configuration applied to all sites unless
	// overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a domain, merging the
// site-specific configuration over the defaults.
func (cf *File) GetSiteConfig(domain string) SiteConfig {
	result := cf.Defaults

	if site, ok := cf.Sites[domain]; ok {
		if site.MaxDepth != 0 {
			result.MaxDepth = site.MaxDepth
		}
		if site.MaxURLs != nil {
			result.MaxURLs = site.MaxURLs
		}
		if len(site.Exclude) > 0 {
			result.Exclude = site.Exclude
		}
		if site.StripTracking != nil {
			result.StripTracking = site.StripTracking
		}
		if site.CrawlDelay != 0 {
			result.CrawlDelay = site.CrawlDelay
		}
		if site.RespectRobots != nil {
			result.RespectRobots = site.RespectRobots
		}
		if site.UserAgent != "" {
			result.UserAgent = site.UserAgent
		}
	}

	return result
}
