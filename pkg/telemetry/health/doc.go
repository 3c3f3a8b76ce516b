// Package health provides liveness and readiness checks for the
// long-lived custody service, plus the HTTP handlers that expose them.
//
// Liveness is a constant "the process is up" answer. Readiness runs the
// registered component checks (storage reachability, for one) and turns
// any failure into a 503 so an orchestrator stops routing to the
// instance.
//
// Usage:
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("storage", store.Ping)
//	health.Register(mux, checker, version, commit, buildDate)
package health
