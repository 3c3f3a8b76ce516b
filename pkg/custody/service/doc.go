// Package service is the orchestration facade over the custody core. It
// exposes the operation groups the surrounding request layer consumes:
// register, verify, timeline, access/export/archive, and case operations.
//
// Register is the only compound write: it fingerprints the content stream,
// creates the registry record, logs the REGISTERED custody event, then
// computes and stores the initial admissibility score. The registry itself
// emits no events; keeping event logging here keeps registry logic pure.
//
// The service receives every request parameter — including the acting
// user — explicitly. Nothing is read from ambient request state.
package service
