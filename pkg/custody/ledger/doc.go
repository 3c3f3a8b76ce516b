// Package ledger implements the append-only custody ledger: a per-evidence
// ordered log of every action taken on an evidence item.
//
// # Ordering
//
// Events for one evidence id are totally ordered by a per-id sequence
// number assigned under a per-id lock, so concurrent appends for the same
// id are serialized and no event is ever lost. Appends for different
// evidence ids never block each other.
//
// Timestamps within one id's sequence are non-decreasing and match append
// order exactly: each event's timestamp is the wall clock or the previous
// event's timestamp, whichever is later, so clock skew can never reorder a
// timeline. After a process restart the sequence counter is reseeded from
// the last persisted event.
//
// Events are immutable once appended; the ledger exposes no mutation or
// deletion of any kind.
package ledger
