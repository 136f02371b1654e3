// Package main provides the entry point for the sitemapgen CLI.
//
// sitemapgen crawls a website within its own domain and generates a
// sitemap from the URLs it discovers.
//
// Usage:
//
//	sitemapgen crawl https://example.com
//	sitemapgen crawl -o sitemap.xml https://example.com
//
// See --help for all available options.
package main

// main is the entry point for sitemapgen.
func main() {
	Execute()
}
