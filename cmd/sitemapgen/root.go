// Package main provides the entry point for the sitemapgen CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for sitemapgen.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitemapgen",
		Short: "Generate sitemaps by crawling a website",
		Long: `sitemapgen crawls a website starting from a seed URL, staying within the
seed's domain, and generates a sitemap from the pages it discovers.

Crawls respect robots.txt, pause between requests, and normalize URLs so
tracking-parameter variants collapse into a single sitemap entry. Results
can be written as XML, plain text, JSON, or a Markdown summary, and each
run is stored so later runs can be compared against it.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
