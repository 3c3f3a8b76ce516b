// Package registry implements the evidence registry: one record per
// evidence item, identity uniqueness, and parent/child derivation validity.
//
// Registration is linearizable per id. The store's unique key makes
// concurrent registrations with the same id resolve to exactly one winner;
// every loser receives *custody.DuplicateEvidenceIDError and no partial
// record is ever visible.
//
// Derivation is validated at write time: a declared parent fingerprint must
// resolve to an existing record, and the ancestor chain is walked to reject
// any registration that would close a cycle in the derivation graph.
//
// The registry emits no custody events itself; the service layer logs
// REGISTERED after a successful registration so the registry stays pure.
package registry
