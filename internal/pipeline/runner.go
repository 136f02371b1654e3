package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nao1215/sitemapgen/internal/config"
	"github.com/nao1215/sitemapgen/internal/crawler"
	"github.com/nao1215/sitemapgen/internal/model"
)

// EventKind identifies the type of a crawl event.
type EventKind int

const (
	// EventURLFound reports one URL accepted into the sitemap.
	EventURLFound EventKind = iota

	// EventFinished reports successful completion; Result is set.
	EventFinished

	// EventFailed reports that the crawl aborted; Err is set.
	EventFailed
)

// String returns a human-readable name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventURLFound:
		return "url_found"
	case EventFinished:
		return "finished"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is one message from a running crawl. Exactly one terminal event
// (EventFinished or EventFailed) is sent per crawl, and it is always the
// last event before the channel closes. A failed crawl still carries any
// partial Result collected before the fault.
type Event struct {
	// Kind discriminates the variant.
	Kind EventKind

	// URL is set for EventURLFound.
	URL string

	// Result is set for EventFinished and, when partial progress
	// exists, for EventFailed.
	Result *model.Result

	// Err is set for EventFailed.
	Err error
}

// Runner executes one crawl in a background goroutine and streams its
// progress as events. A Runner is single-use: create a new one per crawl.
type Runner struct {
	// cfg holds the crawl settings.
	cfg *config.Config

	// client is the HTTP client handed to the crawl engine.
	client *http.Client

	// spider is the engine; created lazily in Start so tests can
	// inject one via WithSpider.
	spider *crawler.Spider

	// events carries progress to the consumer. Buffered so short
	// consumer stalls do not pause the crawl.
	events chan Event

	// logger for runner-level logging.
	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets a custom logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithSpider injects a pre-built crawl engine. The Runner still wires its
// own discovery callback, so any callback set on the engine is replaced.
func WithSpider(s *crawler.Spider) RunnerOption {
	return func(r *Runner) {
		r.spider = s
	}
}

// NewRunner creates a Runner for the given validated configuration.
func NewRunner(cfg *config.Config, client *http.Client, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:    cfg,
		client: client,
		events: make(chan Event, 128),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// Start launches the crawl goroutine and returns the event channel.
// The channel is closed after the terminal event. Start must be called
// at most once.
//
// A panic inside the crawl is recovered and surfaced as EventFailed, so
// a frontend consuming the channel never hangs on a crashed crawl.
func (r *Runner) Start(ctx context.Context) <-chan Event {
	if r.spider == nil {
		r.spider = crawler.NewSpider(r.cfg, r.client,
			crawler.WithLogger(r.logger),
		)
	}

	go func() {
		defer close(r.events)
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("crawl panicked", "panic", rec)
				r.events <- Event{
					Kind: EventFailed,
					Err:  fmt.Errorf("crawl panicked: %v", rec),
				}
			}
		}()

		result, err := r.run(ctx)
		if err != nil {
			r.events <- Event{Kind: EventFailed, Result: result, Err: err}
			return
		}
		r.events <- Event{Kind: EventFinished, Result: result}
	}()

	return r.events
}

// run performs the crawl with the discovery callback wired to the event
// channel.
func (r *Runner) run(ctx context.Context) (*model.Result, error) {
	crawler.WithCallback(func(u string) {
		r.events <- Event{Kind: EventURLFound, URL: u}
	})(r.spider)

	return r.spider.Run(ctx)
}

// Stop requests a cooperative stop of the running crawl. Safe to call
// from any goroutine; the crawl still emits its terminal event.
func (r *Runner) Stop() {
	if r.spider != nil {
		r.spider.Stop()
	}
}
