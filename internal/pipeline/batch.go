package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/sitemapgen/internal/crawler"
	"github.com/nao1215/sitemapgen/internal/model"
	"golang.org/x/sync/errgroup"
)

// BatchProcessor crawls multiple seed URLs concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding
// batch functionality to Runner because:
// 1. It keeps the Runner focused on single-crawl streaming
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// spiderFactory creates a fresh crawl engine for each seed.
	// A factory ensures no visited-set or statistics state leaks
	// between sites.
	spiderFactory func(seedURL string) (*crawler.Spider, error)

	// concurrency is the maximum number of concurrent crawls.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed crawl results, indexed by seed order.
	// Access is synchronized via mutex.
	results []*model.Result
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent crawls.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The spiderFactory is called once per seed URL to create a fresh engine.
// Returning an error from the factory (e.g., an invalid seed) skips that
// seed; the batch continues.
func NewBatchProcessor(spiderFactory func(seedURL string) (*crawler.Spider, error), opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		spiderFactory: spiderFactory,
		concurrency:   4,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch crawls multiple seed URLs concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each seed gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// Returns one result slot per seed, in input order. Seeds that failed
// have a nil slot; per-seed failures never abort the batch. The error
// return reports cancellation of the batch as a whole.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, seeds []string) ([]*model.Result, error) {
	bp.logger.Info("starting batch crawl",
		"total_seeds", len(seeds),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain order
	bp.results = make([]*model.Result, len(seeds))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			// Check for cancellation before starting
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("crawling site",
				"seed", seed,
				"index", i+1,
				"total", len(seeds),
			)

			spider, err := bp.spiderFactory(seed)
			if err != nil {
				bp.logger.Warn("skipping seed",
					"seed", seed,
					"error", err,
				)
				return nil
			}

			result, err := spider.Run(ctx)

			// Store whatever was collected, even on failure.
			bp.mu.Lock()
			bp.results[i] = result
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("crawl failed",
					"seed", seed,
					"error", err,
				)
				// Don't return the error to errgroup - other crawls
				// should continue.
				return nil
			}

			bp.logger.Info("crawl completed",
				"seed", seed,
				"urls", len(result.URLs),
			)

			return nil
		})
	}

	// Wait for all crawls to complete
	err := g.Wait()

	elapsed := time.Since(startTime)
	bp.logger.Info("batch crawl complete",
		"total_seeds", len(seeds),
		"elapsed", elapsed,
	)

	return bp.results, err
}
