package robots

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

const testAgent = "SiteMapGeneratorBot/2.0"

// newTestPolicy creates an enabled Policy pointed at the test server.
func newTestPolicy(t *testing.T, server *httptest.Server) *Policy {
	t.Helper()

	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("failed to parse server URL: %v", err)
	}
	return New(server.Client(), testAgent, u.Scheme, u.Host, true, nil)
}

// TestPolicyAllowed covers rule evaluation and lazy loading.
func TestPolicyAllowed(t *testing.T) {
	t.Parallel()

	t.Run("disallows matching paths", func(t *testing.T) {
		t.Parallel()

		var robotsFetches int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/robots.txt" {
				robotsFetches++
				fmt.Fprintln(w, "User-agent: *")
				fmt.Fprintln(w, "Disallow: /private/")
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		p := newTestPolicy(t, server)
		ctx := context.Background()

		if p.Allowed(ctx, server.URL+"/private/data") {
			t.Error("expected /private/data to be disallowed")
		}
		if !p.Allowed(ctx, server.URL+"/public") {
			t.Error("expected /public to be allowed")
		}

		// Lazy load happens exactly once per crawl.
		if robotsFetches != 1 {
			t.Errorf("robots.txt fetched %d times, want 1", robotsFetches)
		}
	})

	t.Run("honors agent-specific groups", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/robots.txt" {
				fmt.Fprintln(w, "User-agent: SiteMapGeneratorBot")
				fmt.Fprintln(w, "Disallow: /")
				return
			}
		}))
		defer server.Close()

		p := newTestPolicy(t, server)
		if p.Allowed(context.Background(), server.URL+"/anything") {
			t.Error("expected agent-specific disallow to apply")
		}
	})

	t.Run("disabled policy never fetches", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/robots.txt" {
				t.Error("robots.txt fetched despite disabled policy")
			}
		}))
		defer server.Close()

		u, err := url.Parse(server.URL)
		if err != nil {
			t.Fatalf("failed to parse server URL: %v", err)
		}

		p := New(server.Client(), testAgent, u.Scheme, u.Host, false, nil)
		if !p.Allowed(context.Background(), server.URL+"/private/") {
			t.Error("disabled policy must allow everything")
		}
	})
}

// TestPolicyFailsOpen verifies the crawl never blocks on robots.txt problems.
func TestPolicyFailsOpen(t *testing.T) {
	t.Parallel()

	t.Run("missing robots.txt allows all", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer server.Close()

		p := newTestPolicy(t, server)
		if !p.Allowed(context.Background(), server.URL+"/private/") {
			t.Error("404 robots.txt must fail open")
		}
	})

	t.Run("server error allows all", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		p := newTestPolicy(t, server)
		if !p.Allowed(context.Background(), server.URL+"/anything") {
			t.Error("500 robots.txt must fail open")
		}
	})

	t.Run("unreachable host allows all", func(t *testing.T) {
		t.Parallel()

		// Closed server: connections are refused.
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		serverURL := server.URL
		server.Close()

		u, err := url.Parse(serverURL)
		if err != nil {
			t.Fatalf("failed to parse server URL: %v", err)
		}

		p := New(http.DefaultClient, testAgent, u.Scheme, u.Host, true, nil)
		if !p.Allowed(context.Background(), serverURL+"/page") {
			t.Error("unreachable robots.txt must fail open")
		}
	})
}

// TestPolicyQueryString verifies query strings participate in matching.
func TestPolicyQueryString(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			body := strings.Join([]string{
				"User-agent: *",
				"Disallow: /search?",
			}, "\n")
			fmt.Fprintln(w, body)
		}
	}))
	defer server.Close()

	p := newTestPolicy(t, server)
	if p.Allowed(context.Background(), server.URL+"/search?q=x") {
		t.Error("expected /search?q=x to be disallowed")
	}
	if !p.Allowed(context.Background(), server.URL+"/search-tips") {
		t.Error("expected /search-tips to be allowed")
	}
}
