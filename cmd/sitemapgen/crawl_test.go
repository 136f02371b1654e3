package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/sitemapgen/internal/model"
	"github.com/spf13/cobra"
)

// newCrawlCmdForTest builds the crawl command with flags parsed from args.
// It returns the command without executing it.
func newCrawlCmdForTest(t *testing.T, args []string) *cobra.Command {
	t.Helper()

	cmd := NewCrawlCmd()
	cmd.SetArgs(args)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%v) = %v, want nil", args, err)
	}
	return cmd
}

func TestBuildCrawlConfigDefaults(t *testing.T) {
	t.Parallel()

	cmd := newCrawlCmdForTest(t, []string{"https://example.com"})

	cfg, err := buildCrawlConfig(cmd, "https://example.com")
	if err != nil {
		t.Fatalf("buildCrawlConfig() = %v, want nil", err)
	}

	if cfg.Domain != "example.com" {
		t.Errorf("Domain = %q, want %q", cfg.Domain, "example.com")
	}
	if cfg.MaxDepth != 5 {
		t.Errorf("MaxDepth = %d, want 5", cfg.MaxDepth)
	}
	if cfg.MaxURLs != 10000 {
		t.Errorf("MaxURLs = %d, want 10000", cfg.MaxURLs)
	}
	if !cfg.StripTracking {
		t.Error("StripTracking = false, want true")
	}
	if !cfg.RespectRobots {
		t.Error("RespectRobots = false, want true")
	}
	if !cfg.SaveRun {
		t.Error("SaveRun = false, want true")
	}
}

func TestBuildCrawlConfigFlagOverrides(t *testing.T) {
	t.Parallel()

	cmd := newCrawlCmdForTest(t, []string{
		"-d", "2",
		"-n", "50",
		"-x", "/admin",
		"--robots=false",
		"--delay", "0s",
		"--no-save",
		"https://example.com",
	})

	cfg, err := buildCrawlConfig(cmd, "https://example.com")
	if err != nil {
		t.Fatalf("buildCrawlConfig() = %v, want nil", err)
	}

	if cfg.MaxDepth != 2 {
		t.Errorf("MaxDepth = %d, want 2", cfg.MaxDepth)
	}
	if cfg.MaxURLs != 50 {
		t.Errorf("MaxURLs = %d, want 50", cfg.MaxURLs)
	}
	if len(cfg.ExcludeSubstrings) != 1 || cfg.ExcludeSubstrings[0] != "/admin" {
		t.Errorf("ExcludeSubstrings = %v, want [/admin]", cfg.ExcludeSubstrings)
	}
	if cfg.RespectRobots {
		t.Error("RespectRobots = true, want false")
	}
	if cfg.CrawlDelay != 0 {
		t.Errorf("CrawlDelay = %v, want 0", cfg.CrawlDelay)
	}
	if cfg.SaveRun {
		t.Error("SaveRun = true, want false")
	}
}

func TestBuildCrawlConfigFileAndFlagPrecedence(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configYAML := `
sites:
  example.com:
    maxDepth: 3
    exclude:
      - /drafts
`
	if err := os.WriteFile(configPath, []byte(configYAML), 0600); err != nil {
		t.Fatal(err)
	}

	t.Run("config file applies to matching domain", func(t *testing.T) {
		t.Parallel()

		cmd := newCrawlCmdForTest(t, []string{"-c", configPath, "https://example.com"})
		cfg, err := buildCrawlConfig(cmd, "https://example.com")
		if err != nil {
			t.Fatalf("buildCrawlConfig() = %v, want nil", err)
		}

		if cfg.MaxDepth != 3 {
			t.Errorf("MaxDepth = %d, want 3 from config file", cfg.MaxDepth)
		}
		if len(cfg.ExcludeSubstrings) != 1 || cfg.ExcludeSubstrings[0] != "/drafts" {
			t.Errorf("ExcludeSubstrings = %v, want [/drafts]", cfg.ExcludeSubstrings)
		}
	})

	t.Run("explicit flag beats config file", func(t *testing.T) {
		t.Parallel()

		cmd := newCrawlCmdForTest(t, []string{"-c", configPath, "-d", "7", "https://example.com"})
		cfg, err := buildCrawlConfig(cmd, "https://example.com")
		if err != nil {
			t.Fatalf("buildCrawlConfig() = %v, want nil", err)
		}

		if cfg.MaxDepth != 7 {
			t.Errorf("MaxDepth = %d, want 7 from flag", cfg.MaxDepth)
		}
	})

	t.Run("missing explicit config file errors", func(t *testing.T) {
		t.Parallel()

		cmd := newCrawlCmdForTest(t, []string{"-c", "/nonexistent/config.yaml", "https://example.com"})
		if _, err := buildCrawlConfig(cmd, "https://example.com"); err == nil {
			t.Fatal("buildCrawlConfig() = nil error, want missing-file error")
		}
	})
}

func TestBuildCrawlConfigRejectsBadSeed(t *testing.T) {
	t.Parallel()

	cmd := newCrawlCmdForTest(t, []string{"ftp://example.com"})
	if _, err := buildCrawlConfig(cmd, "ftp://example.com"); err == nil {
		t.Fatal("buildCrawlConfig() = nil error, want invalid seed error")
	}
}

func TestSitemapFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		domain string
		want   string
	}{
		{domain: "example.com", want: "sitemap_example.com.xml"},
		{domain: "www.example.com", want: "sitemap_www.example.com.xml"},
		{domain: "example.com:8080", want: "sitemap_example.com_8080.xml"},
	}

	for _, tt := range tests {
		if got := sitemapFileName(tt.domain); got != tt.want {
			t.Errorf("sitemapFileName(%q) = %q, want %q", tt.domain, got, tt.want)
		}
	}
}

func TestWriteOutputsAllFormats(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	result := &model.Result{
		SeedURL: "https://example.com/",
		URLs:    []string{"https://example.com/", "https://example.com/about"},
	}

	cmd := newCrawlCmdForTest(t, []string{
		"-o", filepath.Join(dir, "sitemap.xml"),
		"--text", filepath.Join(dir, "urls.txt"),
		"--markdown", filepath.Join(dir, "report.md"),
		"--json", filepath.Join(dir, "result.json"),
		"https://example.com",
	})
	cfg, err := buildCrawlConfig(cmd, "https://example.com")
	if err != nil {
		t.Fatalf("buildCrawlConfig() = %v, want nil", err)
	}

	if err := writeOutputs(cfg, result); err != nil {
		t.Fatalf("writeOutputs() = %v, want nil", err)
	}

	checks := map[string]string{
		"sitemap.xml": "<loc>https://example.com/about</loc>",
		"urls.txt":    "https://example.com/about",
		"report.md":   "# Sitemap Report",
		"result.json": `"seed_url"`,
	}
	for name, want := range checks {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("%s not written: %v", name, err)
			continue
		}
		if !strings.Contains(string(data), want) {
			t.Errorf("%s missing %q", name, want)
		}
	}
}

func TestCrawlCmdEndToEnd(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><a href="/about">about</a></body></html>`)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body></body></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	out := filepath.Join(t.TempDir(), "sitemap.xml")

	root := NewRootCmd()
	root.SetArgs([]string{
		"crawl",
		"--no-save",
		"--delay", "0s",
		"-o", out,
		srv.URL + "/",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() = %v, want nil", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("sitemap not written: %v", err)
	}
	content := string(data)
	for _, want := range []string{
		"<urlset",
		"<loc>" + srv.URL + "/</loc>",
		"<loc>" + srv.URL + "/about</loc>",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("sitemap missing %q", want)
		}
	}
}
