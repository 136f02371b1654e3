package robots

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/temoto/robotstxt"
)

// robotsTxtPath is the well-known path for robots.txt files.
const robotsTxtPath = "/robots.txt"

// maxRobotsBodyBytes limits the size of robots.txt responses we will read.
const maxRobotsBodyBytes = 512 * 1024 // 512 KB

// Policy gates URL fetches on the robots.txt rules of a single domain.
// The zero value is not usable; create one with New.
//
// Policy is not safe for concurrent use. The crawl engine is sequential and
// owns its Policy exclusively, so no locking is needed.
type Policy struct {
	// client performs the single robots.txt fetch.
	client *http.Client

	// userAgent is the agent string rules are evaluated against.
	userAgent string

	// robotsURL is "{scheme}://{domain}/robots.txt" for the crawl's seed.
	robotsURL string

	// enabled is false when the crawl configuration disables robots
	// compliance. Disabled policies never load anything.
	enabled bool

	// loaded is true after the lazy load attempt, successful or not.
	loaded bool

	// data holds the parsed rules. Nil means allow all, either because
	// the policy is disabled or because loading failed.
	data *robotstxt.RobotsData

	// logger records the load outcome and policy skips.
	logger *slog.Logger
}

// New creates a Policy for the given seed scheme and domain.
// When enabled is false, Allowed always returns true and robots.txt is
// never fetched.
func New(client *http.Client, userAgent, scheme, domain string, enabled bool, logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{
		client:    client,
		userAgent: userAgent,
		robotsURL: fmt.Sprintf("%s://%s%s", scheme, domain, robotsTxtPath),
		enabled:   enabled,
		logger:    logger,
	}
}

// Allowed reports whether rawURL may be fetched under the domain's
// robots.txt rules. The first call on an enabled policy triggers the
// robots.txt load; failures degrade to allow-all rather than blocking
// the crawl.
func (p *Policy) Allowed(ctx context.Context, rawURL string) bool {
	if !p.enabled {
		return true
	}

	if !p.loaded {
		p.load(ctx)
	}

	if p.data == nil {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	return p.data.TestAgent(path, p.userAgent)
}

// load fetches and parses robots.txt exactly once per crawl.
func (p *Policy) load(ctx context.Context) {
	p.loaded = true

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.robotsURL, nil)
	if err != nil {
		p.logger.Warn("failed to build robots.txt request, proceeding without compliance",
			"url", p.robotsURL, "error", err)
		return
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("failed to load robots.txt, proceeding without compliance",
			"url", p.robotsURL, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.logger.Info("robots.txt not available, proceeding without compliance",
			"url", p.robotsURL, "status", resp.StatusCode)
		return
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodyBytes))
	if err != nil {
		p.logger.Warn("failed to read robots.txt, proceeding without compliance",
			"url", p.robotsURL, "error", err)
		return
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		p.logger.Warn("failed to parse robots.txt, proceeding without compliance",
			"url", p.robotsURL, "error", err)
		return
	}

	p.data = data
	p.logger.Info("loaded robots.txt", "url", p.robotsURL)
}
