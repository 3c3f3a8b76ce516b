// Package storage provides persistence backends for the custody core: the
// evidence table, the append-only custody log, and the case index.
//
// Two backends are available:
//
//   - MemoryStorage: mutex-guarded in-memory maps. Intended for tests and
//     ephemeral tooling; state does not survive process restart.
//   - SQLiteStorage: durable storage on a single SQLite database file with
//     WAL mode and transactional inserts, so a crash mid-write never leaves
//     a partially visible record or event.
//
// Both backends implement custody.EvidenceStore, custody.EventStore and
// custody.CaseStore and are safe for concurrent use. Registration is
// first-writer-wins: the evidence id is the primary key and a second insert
// with the same id fails with *custody.DuplicateEvidenceIDError.
//
// Custody events are ordered by (evidenceId, seq); neither backend exposes
// any way to mutate or delete an appended event.
package storage
