package fetcher

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// OutcomeKind identifies how a fetch ended.
type OutcomeKind int

// Fetch outcome kinds. See the package documentation for semantics.
const (
	// KindHTML is a 200 response with a text/html content type.
	KindHTML OutcomeKind = iota

	// KindNonHTML is a 200 response with any other content type.
	// The URL is skipped silently; this is not an error.
	KindNonHTML

	// KindHTTPError is any non-200 status. Never retried.
	KindHTTPError

	// KindNetworkError is a transport failure that survived all retries.
	KindNetworkError
)

// String returns the kind name for logging.
func (k OutcomeKind) String() string {
	switch k {
	case KindHTML:
		return "html"
	case KindNonHTML:
		return "non-html"
	case KindHTTPError:
		return "http-error"
	case KindNetworkError:
		return "network-error"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of fetching one URL.
type Outcome struct {
	// Kind discriminates the variant.
	Kind OutcomeKind

	// StatusCode is set for KindHTML, KindNonHTML and KindHTTPError.
	StatusCode int

	// Body is the decoded HTML document. Set only for KindHTML.
	Body string

	// Err is the final transport error. Set only for KindNetworkError.
	Err error
}

// Default fetch behavior.
const (
	// defaultMaxAttempts is the total number of attempts per URL,
	// including the first one.
	defaultMaxAttempts = 3

	// defaultRetryBaseDelay is the wait before the first retry; each
	// subsequent wait doubles it.
	defaultRetryBaseDelay = 1 * time.Second

	// defaultMaxBodySize bounds how much of a response body is read.
	defaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// Fetcher performs HTTP GETs with retry, backoff and outcome
// classification. One Fetcher (and its underlying client connection pool)
// is shared across a whole crawl and closed once at crawl completion.
//
// Design decision: We require an external http.Client rather than creating
// one internally because:
//  1. The per-request timeout is configuration owned by the caller
//  2. Tests can inject httptest server clients
//  3. Connection pooling is shared with the robots.txt loader
type Fetcher struct {
	// client is the shared HTTP client. Its Timeout bounds each attempt.
	client *http.Client

	// userAgent is sent with every request.
	userAgent string

	// maxBodySize limits the response body bytes read per page.
	maxBodySize int64

	// maxAttempts is the total attempt budget per URL.
	maxAttempts int

	// retryBaseDelay is the backoff before the first retry.
	retryBaseDelay time.Duration

	// logger records retries and failures.
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size read per page.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithRetryBaseDelay sets the wait before the first retry. Each subsequent
// wait doubles. Used by tests to avoid real backoff sleeps.
func WithRetryBaseDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.retryBaseDelay = d
	}
}

// WithLogger sets the logger used for retry and failure messages.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher using the given HTTP client.
func New(client *http.Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:         client,
		userAgent:      "SiteMapGeneratorBot/2.0",
		maxBodySize:    defaultMaxBodySize,
		maxAttempts:    defaultMaxAttempts,
		retryBaseDelay: defaultRetryBaseDelay,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}

	return f
}

// Get fetches pageURL and classifies the result. Transport failures are
// retried with exponential backoff; HTTP error statuses are not. The
// context cancels both in-flight requests and backoff waits.
func (f *Fetcher) Get(ctx context.Context, pageURL string) Outcome {
	var lastErr error

	for attempt := 0; attempt < f.maxAttempts; attempt++ {
		if attempt > 0 {
			wait := f.retryBaseDelay << (attempt - 1)
			f.logger.Debug("retrying fetch",
				"url", pageURL,
				"attempt", attempt+1,
				"max", f.maxAttempts,
				"wait", wait,
			)
			select {
			case <-ctx.Done():
				return Outcome{Kind: KindNetworkError, Err: ctx.Err()}
			case <-time.After(wait):
			}
		}

		outcome, retryable := f.attempt(ctx, pageURL)
		if !retryable {
			return outcome
		}
		lastErr = outcome.Err
	}

	f.logger.Warn("fetch failed after retries",
		"url", pageURL,
		"attempts", f.maxAttempts,
		"error", lastErr,
	)
	return Outcome{Kind: KindNetworkError, Err: lastErr}
}

// attempt performs a single GET. The second return value reports whether
// the failure is retryable (transport errors only).
func (f *Fetcher) attempt(ctx context.Context, pageURL string) (Outcome, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		// A URL that cannot form a request will never succeed.
		return Outcome{Kind: KindNetworkError, Err: err}, false
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{Kind: KindNetworkError, Err: ctx.Err()}, false
		}
		return Outcome{Kind: KindNetworkError, Err: err}, true
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little so the connection can be reused, then drop.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Outcome{Kind: KindHTTPError, StatusCode: resp.StatusCode}, false
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/html") {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Outcome{Kind: KindNonHTML, StatusCode: resp.StatusCode}, false
	}

	// Decode the body to UTF-8 using the declared or sniffed charset.
	limited := io.LimitReader(resp.Body, f.maxBodySize)
	reader, err := charset.NewReader(limited, contentType)
	if err != nil {
		// Undecodable charset declarations fall back to the raw bytes.
		reader = limited
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{Kind: KindNetworkError, Err: ctx.Err()}, false
		}
		return Outcome{Kind: KindNetworkError, Err: err}, true
	}

	return Outcome{
		Kind:       KindHTML,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}, false
}

// Close releases idle connections held by the underlying client.
// Call once when the crawl completes.
func (f *Fetcher) Close() {
	f.client.CloseIdleConnections()
}
