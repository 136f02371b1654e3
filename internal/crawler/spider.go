package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync/atomic"

	"log/slog"

	"golang.org/x/time/rate"

	"github.com/nao1215/sitemapgen/internal/config"
	"github.com/nao1215/sitemapgen/internal/fetcher"
	"github.com/nao1215/sitemapgen/internal/model"
	"github.com/nao1215/sitemapgen/internal/robots"
	"github.com/nao1215/sitemapgen/internal/urlnorm"
)

// Spider crawls a single domain and collects the sitemap URL set.
// It owns the visited set, result set and filter statistics for the
// duration of one Run; these are cleared at the start of each Run so a
// Spider can be reused sequentially, never concurrently.
//
// Design decision: The frontier is an explicit LIFO stack rather than
// recursion. Children are pushed in reverse document order, which makes
// the traversal identical to recursive depth-first, link-order descent
// while keeping call-stack depth constant on deep link graphs.
type Spider struct {
	// cfg holds the immutable per-crawl settings.
	cfg *config.Config

	// client is shared by page fetches and the robots.txt load.
	client *http.Client

	// fetch performs retried, classified page fetches.
	fetch *fetcher.Fetcher

	// callback is invoked once per accepted URL, synchronously from
	// within the crawl, in acceptance order.
	callback func(string)

	// logger records skips, failures and progress.
	logger *slog.Logger

	// visited holds dedup-normalized URLs already handled this Run.
	visited map[string]bool

	// sitemap holds sitemap-normalized URLs accepted this Run.
	sitemap map[string]bool

	// stats counts filter decisions for this Run.
	stats model.Stats

	// stopped is the cooperative stop flag. The caller may set it
	// asynchronously via Stop; the engine sets it when the URL limit
	// is reached. Once true, no further fetches occur.
	stopped atomic.Bool
}

// frontierItem is one pending visit in the crawl frontier.
type frontierItem struct {
	url   string
	depth int
}

// Option configures a Spider.
type Option func(*Spider)

// WithCallback sets the discovery callback invoked once per accepted URL.
// The callback runs synchronously inside the crawl; a slow callback slows
// the crawl.
func WithCallback(fn func(string)) Option {
	return func(s *Spider) {
		s.callback = fn
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Spider) {
		s.logger = logger
	}
}

// WithFetcher replaces the default fetcher. Tests use this to shorten
// retry backoff.
func WithFetcher(f *fetcher.Fetcher) Option {
	return func(s *Spider) {
		s.fetch = f
	}
}

// NewSpider creates a Spider for the given validated configuration.
// The HTTP client is shared across all requests of the crawl, including
// the robots.txt load.
func NewSpider(cfg *config.Config, client *http.Client, opts ...Option) *Spider {
	s := &Spider{
		cfg:     cfg,
		client:  client,
		visited: make(map[string]bool),
		sitemap: make(map[string]bool),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.fetch == nil {
		s.fetch = fetcher.New(client,
			fetcher.WithUserAgent(cfg.UserAgent),
			fetcher.WithMaxBodySize(cfg.MaxBodySize),
			fetcher.WithLogger(s.logger),
		)
	}

	return s
}

// Stop requests a cooperative stop. The flag is polled at the entry of
// every URL visit and between link acceptances; an in-flight fetch is not
// preempted, so stopping takes effect after the current request completes.
func (s *Spider) Stop() {
	s.stopped.Store(true)
}

// Stats returns the filter counters of the last (or current) Run.
func (s *Spider) Stats() model.Stats {
	return s.stats
}

// Run performs the crawl and returns the sorted, deduplicated sitemap URL
// set together with the filter statistics. Previous Run state is cleared
// first, so sequential reuse of one Spider is supported.
//
// Per-URL failures (network errors, HTTP errors, non-HTML content) never
// fail the crawl; the URL is dropped and traversal continues. Run returns
// an error only for faults that invalidate the whole crawl.
func (s *Spider) Run(ctx context.Context) (*model.Result, error) {
	seed, err := url.Parse(s.cfg.SeedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid seed URL %q: %w", s.cfg.SeedURL, err)
	}

	// Reset per-crawl state for sequential reuse.
	s.visited = make(map[string]bool)
	s.sitemap = make(map[string]bool)
	s.stats = model.Stats{}
	s.stopped.Store(false)

	policy := robots.New(s.client, s.cfg.UserAgent, seed.Scheme, s.cfg.Domain,
		s.cfg.RespectRobots, s.logger)

	// The limiter paces request starts. Burst 1 lets the first request
	// through immediately; every later request waits out the delay.
	var limiter *rate.Limiter
	if s.cfg.CrawlDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(s.cfg.CrawlDelay), 1)
	}

	defer s.fetch.Close()

	s.logger.Info("starting crawl",
		"seed", s.cfg.SeedURL,
		"maxDepth", s.cfg.MaxDepth,
		"maxURLs", s.cfg.MaxURLs,
		"exclude", s.cfg.ExcludeSubstrings,
		"stripTracking", s.cfg.StripTracking,
		"respectRobots", s.cfg.RespectRobots,
	)

	stack := []frontierItem{{url: s.cfg.SeedURL, depth: 0}}

	for len(stack) > 0 && !s.stopped.Load() {
		select {
		case <-ctx.Done():
			return s.result(), ctx.Err()
		default:
		}

		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children := s.visit(ctx, policy, limiter, item)

		// Reverse push keeps document order on top of the stack.
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	result := s.result()
	s.logger.Info("crawl completed", "urls", len(result.URLs), "filtered", s.stats.TotalFiltered())
	return result, nil
}

// result assembles the sorted URL list and statistics.
func (s *Spider) result() *model.Result {
	urls := make([]string, 0, len(s.sitemap))
	for u := range s.sitemap {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	return &model.Result{
		SeedURL: s.cfg.SeedURL,
		URLs:    urls,
		Stats:   s.stats,
	}
}

// visit runs the per-URL decision table on one frontier item and returns
// the accepted child links, in document order. The checks short-circuit
// strictly in this order: stop flag, dedup/depth, exclude filter, robots,
// URL limit, fetch outcome, late URL limit, acceptance, link extraction.
func (s *Spider) visit(ctx context.Context, policy *robots.Policy, limiter *rate.Limiter, item frontierItem) []frontierItem {
	if s.stopped.Load() {
		return nil
	}

	dedupKey := urlnorm.ForVisited(item.url, s.cfg.StripTracking)

	if s.visited[dedupKey] || item.depth > s.cfg.MaxDepth {
		if item.depth > s.cfg.MaxDepth {
			s.stats.FilteredByDepth++
		}
		return nil
	}

	// The exclude filter sees the raw URL so every variant is caught.
	if s.matchesExclude(item.url) {
		s.stats.FilteredByExclude++
		s.logger.Debug("skipping url", "url", item.url, "reason", "exclude filter")
		return nil
	}

	if !policy.Allowed(ctx, item.url) {
		// Policy skips are log-only: they are a site owner's choice,
		// not a crawl configuration effect.
		s.logger.Info("skipping url", "url", item.url, "reason", "disallowed by robots.txt")
		return nil
	}

	// Mark visited before fetching so cycles cannot revisit this key.
	s.visited[dedupKey] = true

	if s.cfg.MaxURLs > 0 && len(s.sitemap) >= s.cfg.MaxURLs {
		s.stopped.Store(true)
		s.stats.FilteredByMaxURLs++
		s.logger.Info("reached max URL limit, stopping crawl", "maxURLs", s.cfg.MaxURLs)
		return nil
	}

	// Politeness delay. The limiter's initial burst token exempts the
	// first request of the crawl.
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}
	}

	outcome := s.fetch.Get(ctx, item.url)
	switch outcome.Kind {
	case fetcher.KindNetworkError:
		// Transient unreachability: logged by the fetcher, uncounted.
		return nil
	case fetcher.KindHTTPError:
		s.stats.Non200Status++
		s.logger.Warn("skipping url", "url", item.url, "status", outcome.StatusCode)
		return nil
	case fetcher.KindNonHTML:
		s.logger.Debug("skipping non-HTML content", "url", item.url)
		return nil
	case fetcher.KindHTML:
	}

	// Late limit check: the fetch may have been slow and the caller may
	// have raced a stop in; never grow the result past the limit.
	if s.cfg.MaxURLs > 0 && len(s.sitemap) >= s.cfg.MaxURLs {
		s.stopped.Store(true)
		s.stats.FilteredByMaxURLs++
		return nil
	}

	sitemapKey := urlnorm.ForSitemap(item.url, s.cfg.StripTracking)
	s.sitemap[sitemapKey] = true
	if s.callback != nil {
		s.callback(sitemapKey)
	}
	s.logger.Debug("crawled", "url", sitemapKey, "depth", item.depth)

	if s.stopped.Load() {
		return nil
	}

	parser, err := NewParser(item.url)
	if err != nil {
		return nil
	}
	parsed, err := parser.Parse(strings.NewReader(outcome.Body))
	if err != nil {
		s.logger.Debug("failed to parse page", "url", item.url, "error", err)
		return nil
	}

	return s.acceptLinks(parsed.Links, item.depth)
}

// acceptLinks applies the link-acceptance filter to the extracted anchors
// and returns the survivors as frontier items at depth+1. Accepted links
// keep their raw absolute form; normalization happens when the link is
// popped and visited.
func (s *Spider) acceptLinks(links []string, depth int) []frontierItem {
	children := make([]frontierItem, 0, len(links))
	for _, link := range links {
		if s.stopped.Load() {
			break
		}

		u, err := url.Parse(link)
		if err != nil {
			continue
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			continue
		}
		if !sameDomain(u.Host, s.cfg.Domain) {
			continue
		}

		if s.matchesExclude(link) {
			s.stats.FilteredByExclude++
			continue
		}

		// Count links whose dedup form differs from the raw absolute
		// URL; fragments, host casing, and tracking parameters all
		// collapse such links onto one sitemap entry.
		if s.cfg.StripTracking && urlnorm.ForVisited(link, s.cfg.StripTracking) != link {
			s.stats.FilteredByTracking++
		}

		if s.visited[urlnorm.ForVisited(link, s.cfg.StripTracking)] {
			continue
		}

		children = append(children, frontierItem{url: link, depth: depth + 1})
	}
	return children
}

// matchesExclude reports whether the raw URL contains any configured
// exclude substring.
func (s *Spider) matchesExclude(rawURL string) bool {
	for _, substr := range s.cfg.ExcludeSubstrings {
		if substr != "" && strings.Contains(rawURL, substr) {
			return true
		}
	}
	return false
}

// sameDomain compares a link host against the crawl domain with the
// "www." prefix treated as insignificant: if both sides carry it, the
// comparison is literal; otherwise it is stripped from whichever side
// has it.
func sameDomain(linkHost, domain string) bool {
	lh := strings.ToLower(linkHost)
	if strings.HasPrefix(lh, "www.") && strings.HasPrefix(domain, "www.") {
		return lh == domain
	}
	return strings.TrimPrefix(lh, "www.") == strings.TrimPrefix(domain, "www.")
}
