package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig verifies default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.MaxDepth != DefaultMaxDepth {
		t.Errorf("MaxDepth = %d, want %d", cfg.MaxDepth, DefaultMaxDepth)
	}
	if cfg.MaxURLs != DefaultMaxURLs {
		t.Errorf("MaxURLs = %d, want %d", cfg.MaxURLs, DefaultMaxURLs)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, DefaultTimeout)
	}
	if cfg.CrawlDelay != DefaultCrawlDelay {
		t.Errorf("CrawlDelay = %v, want %v", cfg.CrawlDelay, DefaultCrawlDelay)
	}
	if !cfg.StripTracking {
		t.Error("StripTracking should default to true")
	}
	if cfg.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent = %q, want %q", cfg.UserAgent, DefaultUserAgent)
	}
}

// TestSetSeed tests seed URL validation and domain derivation.
func TestSetSeed(t *testing.T) {
	t.Parallel()

	t.Run("accepts https URL and lowercases domain", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		if err := cfg.SetSeed("https://Example.COM/start"); err != nil {
			t.Fatalf("SetSeed failed: %v", err)
		}
		if cfg.Domain != "example.com" {
			t.Errorf("Domain = %q, want %q", cfg.Domain, "example.com")
		}
	})

	t.Run("rejects missing scheme", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		if err := cfg.SetSeed("example.com"); !errors.Is(err, ErrInvalidSeedURL) {
			t.Errorf("expected ErrInvalidSeedURL, got %v", err)
		}
	})

	t.Run("rejects non-http scheme", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		if err := cfg.SetSeed("ftp://example.com"); !errors.Is(err, ErrInvalidSeedURL) {
			t.Errorf("expected ErrInvalidSeedURL, got %v", err)
		}
	})

	t.Run("rejects missing host", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		if err := cfg.SetSeed("https://"); !errors.Is(err, ErrInvalidSeedURL) {
			t.Errorf("expected ErrInvalidSeedURL, got %v", err)
		}
	})
}

// TestValidate covers each sentinel error.
func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := NewConfig()
		if err := cfg.SetSeed("https://example.com"); err != nil {
			t.Fatalf("SetSeed failed: %v", err)
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid config", func(*Config) {}, nil},
		{"missing seed", func(c *Config) { c.SeedURL = "" }, ErrNoSeedURL},
		{"zero depth", func(c *Config) { c.MaxDepth = 0 }, ErrInvalidMaxDepth},
		{"negative max URLs", func(c *Config) { c.MaxURLs = -1 }, ErrInvalidMaxURLs},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative delay", func(c *Config) { c.CrawlDelay = -time.Second }, ErrInvalidCrawlDelay},
		{"negative body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestLoadConfigFile tests YAML parsing and the not-found path.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads site overrides", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, DefaultConfigFile)
		content := `
defaults:
  crawlDelay: 1s
sites:
  example.com:
    maxDepth: 3
    exclude:
      - /cart
      - /login
    stripTracking: false
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile failed: %v", err)
		}

		site := cf.GetSiteConfig("example.com")
		if site.MaxDepth != 3 {
			t.Errorf("MaxDepth = %d, want 3", site.MaxDepth)
		}
		if len(site.Exclude) != 2 {
			t.Errorf("Exclude = %v, want 2 entries", site.Exclude)
		}
		if site.StripTracking == nil || *site.StripTracking {
			t.Error("StripTracking override not applied")
		}
		if site.CrawlDelay.Std() != time.Second {
			t.Errorf("CrawlDelay = %v, want 1s (from defaults)", site.CrawlDelay)
		}
	})

	t.Run("returns ErrConfigNotFound for missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("unknown site falls back to defaults", func(t *testing.T) {
		t.Parallel()

		cf := &File{
			Defaults: SiteConfig{MaxDepth: 7},
			Sites:    map[string]SiteConfig{},
		}
		site := cf.GetSiteConfig("other.com")
		if site.MaxDepth != 7 {
			t.Errorf("MaxDepth = %d, want 7", site.MaxDepth)
		}
	})
}

// TestApplySiteOverrides merges file settings into the config.
func TestApplySiteOverrides(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if err := cfg.SetSeed("https://example.com"); err != nil {
		t.Fatalf("SetSeed failed: %v", err)
	}
	cfg.ExcludeSubstrings = []string{"/admin"}

	limit := 42
	robots := true
	cfg.SiteConfigs = &File{
		Sites: map[string]SiteConfig{
			"example.com": {
				MaxDepth:      2,
				MaxURLs:       &limit,
				Exclude:       []string{"/cart"},
				RespectRobots: &robots,
				UserAgent:     "CustomBot/1.0",
			},
		},
	}

	cfg.ApplySiteOverrides()

	if cfg.MaxDepth != 2 {
		t.Errorf("MaxDepth = %d, want 2", cfg.MaxDepth)
	}
	if cfg.MaxURLs != 42 {
		t.Errorf("MaxURLs = %d, want 42", cfg.MaxURLs)
	}
	if len(cfg.ExcludeSubstrings) != 2 {
		t.Errorf("ExcludeSubstrings = %v, want global plus site entry", cfg.ExcludeSubstrings)
	}
	if !cfg.RespectRobots {
		t.Error("RespectRobots override not applied")
	}
	if cfg.UserAgent != "CustomBot/1.0" {
		t.Errorf("UserAgent = %q, want CustomBot/1.0", cfg.UserAgent)
	}
}
