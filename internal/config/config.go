package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. These mirror the defaults the tool has
// shipped with since the first release; changing them changes the observable
// behavior of crawls that rely on implicit settings.
const (
	// DefaultMaxDepth bounds recursion from the seed. Depth 0 is the seed
	// page itself; 5 levels reaches the vast majority of site structures
	// without runaway crawls on deeply interlinked sites.
	DefaultMaxDepth = 5

	// DefaultMaxURLs caps the sitemap size. sitemaps.org allows up to
	// 50,000 URLs per file; 10,000 keeps crawl times reasonable while
	// covering typical sites. 0 means unlimited.
	DefaultMaxURLs = 10000

	// DefaultTimeout is the per-request timeout. 5 seconds is generous for
	// clearnet sites; slower responses almost always indicate a server
	// that should not be hammered with retries.
	DefaultTimeout = 5 * time.Second

	// DefaultCrawlDelay is the pause between consecutive requests.
	// 500ms is a politeness setting: fast enough for interactive use,
	// slow enough not to look like an attack to small servers.
	DefaultCrawlDelay = 500 * time.Millisecond

	// DefaultUserAgent identifies sitemapgen in HTTP requests and in
	// robots.txt evaluation. A descriptive User-Agent lets operators
	// identify crawler traffic in their logs.
	DefaultUserAgent = "SiteMapGeneratorBot/2.0 (+https://github.com/nao1215/sitemapgen)"

	// DefaultMaxBodySize limits the response body size read per page.
	// 5MB is far beyond any sane HTML document and prevents memory
	// exhaustion from unexpected huge responses.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultBatchSize is the number of concurrent crawls when multiple
	// seed URLs are given. Crawls are network-bound; a small limit keeps
	// total connection counts polite.
	DefaultBatchSize = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "sitemapgen"
)

// Config holds all settings for one crawl invocation.
// It is populated from CLI flags and the optional config file, validated
// once, and never mutated afterwards.
//
// Design decision: One flat struct, not nested sections. Every consumer
// reads two or three fields; nesting would only add dots to those reads.
type Config struct {
	// SeedURL is the URL the crawl starts from. Must be http(s) with a host.
	SeedURL string

	// Domain is the lowercased host derived from SeedURL. Only pages on
	// this domain (www-insensitive) are crawled.
	Domain string

	// MaxDepth is the maximum link distance from the seed. Must be >= 1.
	MaxDepth int

	// MaxURLs caps the number of URLs collected. 0 means unlimited.
	MaxURLs int

	// ExcludeSubstrings rejects any URL containing one of these literal
	// substrings. Matching happens against the raw, un-normalized URL so
	// every textual variant is caught.
	ExcludeSubstrings []string

	// StripTracking removes tracking query parameters during URL
	// normalization.
	StripTracking bool

	// Timeout is the per-request timeout applied to each fetch attempt.
	Timeout time.Duration

	// CrawlDelay is the politeness delay between consecutive requests.
	// The first request of a crawl is never delayed.
	CrawlDelay time.Duration

	// RespectRobots enables robots.txt compliance. The robots.txt of the
	// seed domain is loaded lazily once per crawl and a load failure
	// degrades to allow-all.
	RespectRobots bool

	// UserAgent is sent with every request and used for robots.txt
	// evaluation.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Zero means DefaultMaxBodySize.
	MaxBodySize int64

	// Verbose enables slog.LevelDebug output. When false, only warnings
	// and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file. If empty, the
	// tool searches for .sitemapgen in the current directory and then in
	// the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-site overrides loaded from the config file.
	SiteConfigs *File

	// SaveRun stores the crawl result in the history database when true.
	SaveRun bool

	// DBDir is the directory holding the history database. Defaults to
	// the XDG data directory.
	DBDir string

	// OutputXML is the file path for the XML sitemap. Empty disables it.
	OutputXML string

	// OutputText is the file path for the plain-text URL list.
	// Empty disables it.
	OutputText string

	// OutputMarkdown is the file path for the Markdown crawl summary.
	// Empty disables it.
	OutputMarkdown string

	// OutputJSON is the file path for the JSON result dump.
	// Empty disables it.
	OutputJSON string

	// BatchSize is the number of concurrent crawls when multiple seed
	// URLs are given.
	BatchSize int
}

// NewConfig creates a Config with default values.
// Callers override specific fields after creation.
//
// Design decision: A constructor rather than usable zero values, because
// most defaults are non-zero (timeout, delay, limits) and a zero-value
// Config would silently crawl with no politeness delay.
func NewConfig() *Config {
	return &Config{
		MaxDepth:      DefaultMaxDepth,
		MaxURLs:       DefaultMaxURLs,
		StripTracking: true,
		RespectRobots: true,
		Timeout:       DefaultTimeout,
		CrawlDelay:    DefaultCrawlDelay,
		UserAgent:     DefaultUserAgent,
		MaxBodySize:   DefaultMaxBodySize,
		SaveRun:       true,
		BatchSize:     DefaultBatchSize,
	}
}

// SetSeed validates rawURL as a crawlable seed and derives Domain from it.
// It must be called before Validate.
func (c *Config) SetSeed(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ErrInvalidSeedURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidSeedURL
	}

	c.SeedURL = u.String()
	c.Domain = strings.ToLower(u.Host)
	return nil
}

// XDGDataDir returns the XDG data directory for sitemapgen.
// On Linux: ~/.local/share/sitemapgen
// On macOS: ~/Library/Application Support/sitemapgen
// On Windows: %LOCALAPPDATA%\sitemapgen
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific sentinel error describing what is invalid.
//
// Design decision: Validation happens once here, after CLI parsing and
// config-file merging, so the engine can assume a sane Config and every
// invalid input fails before the first request goes out.
func (c *Config) Validate() error {
	if c.SeedURL == "" || c.Domain == "" {
		return ErrNoSeedURL
	}

	if c.MaxDepth < 1 {
		return ErrInvalidMaxDepth
	}

	if c.MaxURLs < 0 {
		return ErrInvalidMaxURLs
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}

// ApplySiteOverrides merges per-site settings from the config file into the
// config, keyed by the crawl domain. CLI flags that were explicitly set by
// the user are expected to be applied after this call so they keep priority.
func (c *Config) ApplySiteOverrides() {
	if c.SiteConfigs == nil {
		return
	}

	site := c.SiteConfigs.GetSiteConfig(c.Domain)
	if site.MaxDepth != 0 {
		c.MaxDepth = site.MaxDepth
	}
	if site.MaxURLs != nil {
		c.MaxURLs = *site.MaxURLs
	}
	if len(site.Exclude) > 0 {
		c.ExcludeSubstrings = append(c.ExcludeSubstrings, site.Exclude...)
	}
	if site.StripTracking != nil {
		c.StripTracking = *site.StripTracking
	}
	if site.CrawlDelay != 0 {
		c.CrawlDelay = site.CrawlDelay.Std()
	}
	if site.RespectRobots != nil {
		c.RespectRobots = *site.RespectRobots
	}
	if site.UserAgent != "" {
		c.UserAgent = site.UserAgent
	}
}
