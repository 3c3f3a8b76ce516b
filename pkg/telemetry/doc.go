// Package telemetry groups Custodia's operational subpackages.
//
// Subpackages:
//   - metrics: Prometheus collectors and the /metrics handler
//   - health: liveness/readiness checks and their HTTP endpoints
//   - logging: structured slog setup with metadata redaction
//
// These are only active in `custodia run` mode; one-shot commands run
// without an HTTP surface.
package telemetry
