// Package logging builds the structured slog logger used by the
// long-lived custody service.
//
// Evidence metadata and custody actors routinely carry personal data
// (emails, phone numbers, national identifiers of subjects and
// witnesses). The logger therefore supports value redaction: a handler
// wrapper scrubs known PII patterns from attribute values and fully
// masks values logged under sensitive keys before they reach the
// output.
//
// Usage:
//
//	logger, err := logging.New(logging.Config{
//		Level:        "info",
//		Format:       "json",
//		RedactValues: true,
//	})
//	slog.SetDefault(logger)
package logging
