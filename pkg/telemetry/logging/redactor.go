package logging

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// Redactor scrubs personal data from log values. Patterns run on string
// values; sensitive key names mask the value entirely.
type Redactor struct {
	patterns []*redactPattern
}

type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// NewRedactor creates a redactor with the built-in pattern set.
func NewRedactor() *Redactor {
	r := &Redactor{}
	add := func(name, regex, replacement string) {
		r.patterns = append(r.patterns, &redactPattern{
			name:        name,
			regex:       regexp.MustCompile(regex),
			replacement: replacement,
		})
	}

	// Email addresses.
	add("email", `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`, "***@***")

	// US social security numbers.
	add("ssn", `\b\d{3}-\d{2}-\d{4}\b`, "***-**-****")

	// Phone numbers.
	add("phone", `\b(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]\d{3}[-.\s]?\d{4}\b`, "***-***-****")

	// IPv4 addresses.
	add("ipv4", `\b(?:\d{1,3}\.){3}\d{1,3}\b`, "*.*.*.*")

	// Bearer tokens.
	add("bearer_token", `Bearer\s+[a-zA-Z0-9\-._~+/]+=*`, "Bearer ***")

	return r
}

// RedactString applies every pattern to a string value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// RedactAttr redacts a single attribute. Values under sensitive keys
// are masked whole; other string values go through the pattern set.
// Groups are redacted member by member.
func (r *Redactor) RedactAttr(attr slog.Attr) slog.Attr {
	if isSensitiveKey(attr.Key) {
		return slog.String(attr.Key, maskValue(attr.Value.String()))
	}

	switch attr.Value.Kind() {
	case slog.KindString:
		return slog.String(attr.Key, r.RedactString(attr.Value.String()))
	case slog.KindGroup:
		members := attr.Value.Group()
		redacted := make([]any, 0, len(members))
		for _, m := range members {
			redacted = append(redacted, r.RedactAttr(m))
		}
		return slog.Group(attr.Key, redacted...)
	default:
		return attr
	}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{
		"password", "secret", "token", "api_key", "apikey",
		"authorization", "ssn", "national_id", "private_key",
	} {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}

// maskValue keeps a short prefix so operators can still correlate
// entries without seeing the full value.
func maskValue(value string) string {
	if len(value) <= 4 {
		return "***"
	}
	return value[:4] + "***"
}

// redactHandler wraps a slog.Handler and redacts records before they
// reach the inner handler.
type redactHandler struct {
	inner    slog.Handler
	redactor *Redactor
}

func (h *redactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *redactHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, h.redactor.RedactString(rec.Message), rec.PC)
	rec.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(h.redactor.RedactAttr(attr))
		return true
	})
	return h.inner.Handle(ctx, out)
}

func (h *redactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		redacted[i] = h.redactor.RedactAttr(attr)
	}
	return &redactHandler{inner: h.inner.WithAttrs(redacted), redactor: h.redactor}
}

func (h *redactHandler) WithGroup(name string) slog.Handler {
	return &redactHandler{inner: h.inner.WithGroup(name), redactor: h.redactor}
}
