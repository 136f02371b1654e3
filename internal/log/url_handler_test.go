package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestMaskURL tests query-parameter masking.
func TestMaskURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "masks session parameter",
			in:   "https://example.com/page?session=abc123",
			want: "https://example.com/page?session=REDACTED",
		},
		{
			name: "masks only sensitive parameters",
			in:   "https://example.com/?page=2&token=xyz&id=7",
			want: "https://example.com/?page=2&token=REDACTED&id=7",
		},
		{
			name: "case-insensitive parameter names",
			in:   "https://example.com/?Token=xyz",
			want: "https://example.com/?Token=REDACTED",
		},
		{
			name: "no query string untouched",
			in:   "https://example.com/page",
			want: "https://example.com/page",
		},
		{
			name: "preserves fragment",
			in:   "https://example.com/?api_key=k#top",
			want: "https://example.com/?api_key=REDACTED#top",
		},
		{
			name: "valueless parameter untouched",
			in:   "https://example.com/?token",
			want: "https://example.com/?token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := MaskURL(tt.in); got != tt.want {
				t.Errorf("MaskURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestURLHandler verifies masking happens through the slog pipeline.
func TestURLHandler(t *testing.T) {
	t.Parallel()

	t.Run("masks url attributes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewURLHandler(slog.NewTextHandler(&buf, nil)))

		logger.Info("fetched",
			"url", "https://example.com/cb?token=secret123&page=1",
			"status", 200,
		)

		out := buf.String()
		if strings.Contains(out, "secret123") {
			t.Errorf("sensitive value leaked into log output: %s", out)
		}
		if !strings.Contains(out, "token="+MaskValue) {
			t.Errorf("expected masked token in output: %s", out)
		}
		if !strings.Contains(out, "page=1") {
			t.Errorf("non-sensitive parameter should survive: %s", out)
		}
	})

	t.Run("non-url strings pass through", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewURLHandler(slog.NewTextHandler(&buf, nil)))

		logger.Info("skip", "reason", "robots.txt disallows")
		if !strings.Contains(buf.String(), "robots.txt disallows") {
			t.Errorf("plain string attribute was altered: %s", buf.String())
		}
	})

	t.Run("masks attributes added via With", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewURLHandler(slog.NewTextHandler(&buf, nil)))

		logger.With("seed", "https://example.com/?sig=deadbeef").Info("start")
		if strings.Contains(buf.String(), "deadbeef") {
			t.Errorf("With attribute leaked: %s", buf.String())
		}
	})
}

// TestNewLogger checks level configuration.
func TestNewLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	quiet := NewLogger(&buf, false)
	quiet.Debug("hidden")
	quiet.Info("also hidden")
	if buf.Len() != 0 {
		t.Errorf("non-verbose logger should suppress info/debug: %s", buf.String())
	}

	verbose := NewLogger(&buf, true)
	verbose.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("verbose logger should emit debug: %s", buf.String())
	}
}
