package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/nao1215/sitemapgen/internal/config"
	"github.com/nao1215/sitemapgen/internal/crawler"
	"github.com/nao1215/sitemapgen/internal/database"
	"github.com/nao1215/sitemapgen/internal/log"
	"github.com/nao1215/sitemapgen/internal/model"
	"github.com/nao1215/sitemapgen/internal/pipeline"
	"github.com/nao1215/sitemapgen/internal/sitemap"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url]...",
		Short: "Crawl a website and generate a sitemap",
		Long: `Crawl starts from one or more seed URLs, follows links within each seed's
domain up to the configured depth, and generates a sitemap from the pages
it discovers.

The crawler respects robots.txt, pauses between requests, strips tracking
parameters (utm_*, fbclid, gclid, ...) so URL variants collapse into one
entry, and never leaves the seed's domain. Press Ctrl+C once to stop
gracefully and keep the URLs collected so far; press it twice to abort.

Examples:
  # Crawl a site and print the XML sitemap to stdout
  sitemapgen crawl https://example.com

  # Write the sitemap to a file, plus a Markdown summary
  sitemapgen crawl -o sitemap.xml --markdown report.md https://example.com

  # Limit depth and exclude admin pages
  sitemapgen crawl -d 3 -x /admin -x /login https://example.com

  # Crawl several sites concurrently into the current directory
  sitemapgen crawl https://example.com https://example.org

Configuration file (.sitemapgen) example:
  defaults:
    crawlDelay: 1s
  sites:
    example.com:
      maxDepth: 3
      exclude:
        - /drafts`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum link depth from the seed URL")
	cmd.Flags().IntP("max-urls", "n", config.DefaultMaxURLs,
		"Maximum number of URLs to collect (0 = unlimited)")
	cmd.Flags().StringSliceP("exclude", "x", nil,
		"Skip URLs containing this substring (repeatable)")
	cmd.Flags().Bool("strip-tracking", true,
		"Strip tracking parameters (utm_*, fbclid, ...) from URLs")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Pause between consecutive requests")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().Bool("robots", true,
		"Respect robots.txt disallow rules")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header sent with every request")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitemapgen in current or home directory)")

	// Output flags
	cmd.Flags().StringP("output", "o", "",
		"Write the XML sitemap to this path (default: stdout; with multiple seeds: a directory)")
	cmd.Flags().String("text", "",
		"Also write a plain-text URL list to this path")
	cmd.Flags().String("markdown", "",
		"Also write a Markdown crawl summary to this path")
	cmd.Flags().String("json", "",
		"Also write the JSON result to this path")

	// History flags
	cmd.Flags().Bool("no-save", false,
		"Do not store this run in the history database")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent crawls when multiple seeds are given")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)
	logger := log.NewLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(args) == 1 {
		cfg, err := buildCrawlConfig(cmd, args[0])
		if err != nil {
			return err
		}
		return runSingleCrawl(ctx, cancel, cfg, logger)
	}

	return runBatchCrawl(ctx, cancel, cmd, args, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildCrawlConfig creates a validated Config for one seed URL.
// Precedence, lowest to highest: built-in defaults, config file defaults,
// config file site section, explicitly set CLI flags.
func buildCrawlConfig(cmd *cobra.Command, seedURL string) (*config.Config, error) {
	cfg := config.NewConfig()

	if err := cfg.SetSeed(seedURL); err != nil {
		return nil, fmt.Errorf("invalid seed URL %q: %w", seedURL, err)
	}

	configPathFlag, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = configPathFlag

	// If the user explicitly specified a config file path, error if not
	// found. If no path specified, silently run without one.
	configPath := config.FindConfigFile(configPathFlag)
	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if configPathFlag != "" {
		return nil, fmt.Errorf("configuration file not found: %s", configPathFlag)
	}

	cfg.ApplySiteOverrides()

	// Explicit CLI flags win over anything the config file set.
	if err := applyFlagOverrides(cmd, cfg); err != nil {
		return nil, err
	}

	cfg.DBDir = config.XDGDataDir()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	return cfg, nil
}

// applyFlagOverrides copies flag values into the config. Behavior flags
// are applied only when the user set them, so config file values survive.
// Output flags have no config file counterpart and are always applied.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("depth") {
		if cfg.MaxDepth, err = flags.GetInt("depth"); err != nil {
			return err
		}
	}
	if flags.Changed("max-urls") {
		if cfg.MaxURLs, err = flags.GetInt("max-urls"); err != nil {
			return err
		}
	}
	if flags.Changed("exclude") {
		exclude, err := flags.GetStringSlice("exclude")
		if err != nil {
			return err
		}
		cfg.ExcludeSubstrings = append(cfg.ExcludeSubstrings, exclude...)
	}
	if flags.Changed("strip-tracking") {
		if cfg.StripTracking, err = flags.GetBool("strip-tracking"); err != nil {
			return err
		}
	}
	if flags.Changed("delay") {
		if cfg.CrawlDelay, err = flags.GetDuration("delay"); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("robots") {
		if cfg.RespectRobots, err = flags.GetBool("robots"); err != nil {
			return err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return err
		}
	}

	if cfg.OutputXML, err = flags.GetString("output"); err != nil {
		return err
	}
	if cfg.OutputText, err = flags.GetString("text"); err != nil {
		return err
	}
	if cfg.OutputMarkdown, err = flags.GetString("markdown"); err != nil {
		return err
	}
	if cfg.OutputJSON, err = flags.GetString("json"); err != nil {
		return err
	}

	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return err
	}
	cfg.SaveRun = !noSave

	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return err
	}

	return nil
}

// runSingleCrawl crawls one seed, streaming progress from the Runner.
// The first interrupt requests a graceful stop that keeps the URLs
// collected so far; a second interrupt aborts the crawl.
func runSingleCrawl(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, logger *slog.Logger) error {
	client := &http.Client{Timeout: cfg.Timeout}
	runner := pipeline.NewRunner(cfg, client, pipeline.WithRunnerLogger(logger))

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Info("stop requested, finishing current request...")
		fmt.Fprintln(os.Stderr, "Stopping... (press Ctrl+C again to abort)")
		runner.Stop()
		<-sigCh
		cancel()
	}()

	fmt.Fprintf(os.Stderr, "Crawling %s...\n", cfg.SeedURL)
	startedAt := time.Now()

	var result *model.Result
	var crawlErr error
	for ev := range runner.Start(ctx) {
		switch ev.Kind {
		case pipeline.EventURLFound:
			logger.Debug("found", "url", ev.URL)
		case pipeline.EventFinished:
			result = ev.Result
		case pipeline.EventFailed:
			result = ev.Result
			crawlErr = ev.Err
		}
	}
	elapsed := time.Since(startedAt)

	if crawlErr != nil && result == nil {
		return fmt.Errorf("crawl failed: %w", crawlErr)
	}
	if crawlErr != nil {
		fmt.Fprintf(os.Stderr, "Crawl aborted after %s: %v (keeping partial results)\n",
			elapsed.Round(time.Millisecond), crawlErr)
	} else {
		fmt.Fprintf(os.Stderr, "Crawl completed in %s: %d URLs collected, %d filtered\n",
			elapsed.Round(time.Millisecond), len(result.URLs), result.Stats.TotalFiltered())
	}

	if err := writeOutputs(cfg, result); err != nil {
		return err
	}

	if err := saveRun(ctx, cfg, result, startedAt, elapsed, logger); err != nil {
		logger.Error("failed to save run", "seed", cfg.SeedURL, "error", err)
	}

	return crawlErr
}

// runBatchCrawl crawls multiple seeds concurrently. XML sitemaps are
// written into the --output directory (default: current directory), one
// file per seed domain; the single-file output flags do not apply.
func runBatchCrawl(ctx context.Context, cancel context.CancelFunc, cmd *cobra.Command, seeds []string, logger *slog.Logger) error {
	outputDir, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if outputDir == "" {
		outputDir = "."
	}

	batchSize, err := cmd.Flags().GetInt("batch")
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	// Validate every seed up front so a typo in the last argument does
	// not surface after minutes of crawling.
	configs := make(map[string]*config.Config, len(seeds))
	for _, seed := range seeds {
		cfg, err := buildCrawlConfig(cmd, seed)
		if err != nil {
			return err
		}
		configs[seed] = cfg
	}

	fmt.Fprintf(os.Stderr, "Crawling %d sites (concurrency: %d)...\n", len(seeds), batchSize)
	startedAt := time.Now()

	bp := pipeline.NewBatchProcessor(
		func(seedURL string) (*crawler.Spider, error) {
			cfg := configs[seedURL]
			client := &http.Client{Timeout: cfg.Timeout}
			return crawler.NewSpider(cfg, client, crawler.WithLogger(logger)), nil
		},
		pipeline.WithConcurrency(batchSize),
		pipeline.WithBatchLogger(logger),
	)

	results, batchErr := bp.ProcessBatch(ctx, seeds)
	elapsed := time.Since(startedAt)

	var failed int
	for i, result := range results {
		if result == nil {
			failed++
			continue
		}

		cfg := configs[seeds[i]]
		path := filepath.Join(outputDir, sitemapFileName(cfg.Domain))
		if err := writeXMLFile(path, result); err != nil {
			logger.Error("failed to write sitemap", "seed", seeds[i], "error", err)
			failed++
			continue
		}
		fmt.Fprintf(os.Stderr, "[%d/%d] %s: %d URLs -> %s\n",
			i+1, len(seeds), cfg.Domain, len(result.URLs), path)

		if err := saveRun(ctx, cfg, result, startedAt, elapsed, logger); err != nil {
			logger.Error("failed to save run", "seed", seeds[i], "error", err)
		}
	}

	fmt.Fprintf(os.Stderr, "Batch completed in %s (%d ok, %d failed)\n",
		elapsed.Round(time.Millisecond), len(results)-failed, failed)

	if batchErr != nil {
		return batchErr
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d crawls failed", failed, len(results))
	}
	return nil
}

// sitemapFileName derives a per-domain sitemap file name.
func sitemapFileName(domain string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, strings.ToLower(domain))
	return "sitemap_" + safe + ".xml"
}

// writeOutputs renders the result in every requested format.
// The XML sitemap goes to the configured file, or to stdout when no file
// was requested.
func writeOutputs(cfg *config.Config, result *model.Result) error {
	if cfg.OutputXML != "" {
		if err := writeXMLFile(cfg.OutputXML, result); err != nil {
			return err
		}
	} else {
		if _, err := sitemap.NewXMLWriter(os.Stdout).Write(result); err != nil {
			return fmt.Errorf("failed to write sitemap: %w", err)
		}
	}

	if cfg.OutputText != "" {
		if err := writeToFile(cfg.OutputText, func(w io.Writer) sitemap.Writer {
			return sitemap.NewTextWriter(w)
		}, result); err != nil {
			return err
		}
	}
	if cfg.OutputMarkdown != "" {
		if err := writeToFile(cfg.OutputMarkdown, func(w io.Writer) sitemap.Writer {
			return sitemap.NewMarkdownWriter(w)
		}, result); err != nil {
			return err
		}
	}
	if cfg.OutputJSON != "" {
		if err := writeToFile(cfg.OutputJSON, func(w io.Writer) sitemap.Writer {
			return sitemap.NewJSONWriter(w, sitemap.WithPrettyPrint())
		}, result); err != nil {
			return err
		}
	}

	return nil
}

// writeXMLFile writes the XML sitemap to path, creating directories as
// needed.
func writeXMLFile(path string, result *model.Result) error {
	return writeToFile(path, func(w io.Writer) sitemap.Writer {
		return sitemap.NewXMLWriter(w)
	}, result)
}

// writeToFile opens path and renders the result with the writer newW
// builds over the file.
func writeToFile(path string, newW func(io.Writer) sitemap.Writer, result *model.Result) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644) //nolint:gosec // Sitemaps are public documents
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if _, err := newW(f).Write(result); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// saveRun stores the crawl result in the history database.
// A nil result or disabled saving is a no-op.
func saveRun(ctx context.Context, cfg *config.Config, result *model.Result, startedAt time.Time, elapsed time.Duration, logger *slog.Logger) error {
	if !cfg.SaveRun || result == nil {
		return nil
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveRun(ctx, &model.Run{
		SeedURL:   result.SeedURL,
		StartedAt: startedAt,
		Duration:  elapsed,
		URLs:      result.URLs,
		Stats:     result.Stats,
	})
	if err != nil {
		return err
	}

	logger.Info("run saved", "id", id, "seed", result.SeedURL)
	return nil
}
