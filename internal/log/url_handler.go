package log

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// sensitiveParams contains query parameter names whose values must never
// appear in log output. Matching is case-insensitive.
var sensitiveParams = map[string]bool{
	"token":        true,
	"access_token": true,
	"api_key":      true,
	"apikey":       true,
	"key":          true,
	"secret":       true,
	"password":     true,
	"passwd":       true,
	"auth":         true,
	"session":      true,
	"session_id":   true,
	"sessionid":    true,
	"sid":          true,
	"jsessionid":   true,
	"signature":    true,
	"sig":          true,
}

// MaskValue is the string used to replace sensitive parameter values.
const MaskValue = "REDACTED"

// URLHandler wraps an slog.Handler and masks credential-bearing query
// parameters in any string attribute that looks like an HTTP(S) URL.
//
// Design decision: Masking lives in a handler wrapper, not at call sites,
// because:
//  1. Every logged URL passes through one choke point
//  2. Call sites keep using plain slog with no sanitize helper to forget
//  3. The wrapper composes with any downstream handler
type URLHandler struct {
	// handler is the underlying slog handler that receives masked records.
	handler slog.Handler
}

// NewURLHandler creates a URLHandler wrapping the given handler.
// If handler is nil, the returned URLHandler uses slog.Default().Handler().
func NewURLHandler(handler slog.Handler) *URLHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &URLHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *URLHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's attributes and passes it to the underlying
// handler.
func (h *URLHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(h.maskAttr(a))
		return true
	})

	return h.handler.Handle(ctx, masked)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are masked before being added.
func (h *URLHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	maskedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		maskedAttrs[i] = h.maskAttr(a)
	}
	return &URLHandler{handler: h.handler.WithAttrs(maskedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *URLHandler) WithGroup(name string) slog.Handler {
	return &URLHandler{handler: h.handler.WithGroup(name)}
}

// maskAttr masks a single attribute, recursively handling groups.
func (h *URLHandler) maskAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		maskedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			maskedAttrs[i] = h.maskAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(maskedAttrs...)}
	}

	if a.Value.Kind() == slog.KindString {
		val := a.Value.String()
		if looksLikeURL(val) {
			return slog.String(a.Key, MaskURL(val))
		}
	}

	return a
}

// looksLikeURL reports whether a string value is plausibly an HTTP(S) URL
// with a query string worth inspecting.
func looksLikeURL(s string) bool {
	return (strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")) &&
		strings.Contains(s, "?")
}

// MaskURL replaces the values of sensitive query parameters in rawURL with
// MaskValue. The rewrite is purely textual on the query part so that a
// malformed URL still gets masked instead of being logged verbatim.
func MaskURL(rawURL string) string {
	base, query, found := strings.Cut(rawURL, "?")
	if !found || query == "" {
		return rawURL
	}

	// Keep any fragment out of the parameter scan.
	query, fragment, hasFragment := strings.Cut(query, "#")

	parts := strings.Split(query, "&")
	for i, part := range parts {
		name, _, hasValue := strings.Cut(part, "=")
		if hasValue && sensitiveParams[strings.ToLower(name)] {
			parts[i] = name + "=" + MaskValue
		}
	}

	masked := base + "?" + strings.Join(parts, "&")
	if hasFragment {
		masked += "#" + fragment
	}
	return masked
}

// NewLogger creates a text-format slog.Logger on w whose output masks
// sensitive URL parameters. Verbose enables debug-level records; the
// default level is warning so normal crawls stay quiet.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	return slog.New(NewURLHandler(textHandler))
}
