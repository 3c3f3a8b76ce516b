// Package custody provides the evidentiary integrity and chain-of-custody
// core: evidence registration with cryptographic fingerprints, an append-only
// custody ledger, tamper-detection verification, admissibility scoring, and
// case-level corroboration.
//
// # Architecture
//
// The custody system consists of six components layered over shared storage:
//
//  1. Fingerprint Engine - Streams evidence bytes into a SHA-256 digest
//  2. Evidence Registry  - One record per evidence item, parent/child derivation
//  3. Custody Ledger     - Append-only, per-item ordered log of custody events
//  4. Integrity Verifier - Recomputes digests and classifies INTACT/TAMPERED
//  5. Admissibility Scorer - Source weight + custody completeness, 0-100
//  6. Case Index         - Groups evidence into cases, corroboration scoring
//
// # Evidence Records
//
// Each evidence record captures:
//   - Identity (caller-assigned or generated id)
//   - Cryptographic fingerprint (SHA-256, immutable once set)
//   - Source type and uploader
//   - Optional parent fingerprint (derivation, e.g. an edited copy)
//   - Free-form metadata
//   - Admissibility score (unset until computed)
//
// # Custody Events
//
// Every action taken on an evidence item is recorded as an immutable custody
// event (REGISTERED, ACCESSED, VERIFIED, EXPORTED, ARCHIVED). Events for one
// evidence item are totally ordered: the timeline returns them in append
// order with non-decreasing timestamps. Events are never mutated or deleted;
// retention is a legal requirement.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
//	    Path: "data/custody.db",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	svc := service.New(store, store, store, scoring.NewScorer(nil), nil)
//
//	// Register evidence (fingerprints the stream, logs REGISTERED, scores)
//	result, err := svc.Register(ctx, &service.RegisterRequest{
//	    EvidenceID: "EVD-001",
//	    Content:    file,
//	    SourceType: "bodycam",
//	    Uploader:   "officer-billings",
//	})
//
//	// Later: re-verify the same bytes
//	verdict, err := svc.Verify(ctx, "EVD-001", file, "auditor-chen")
//	if verdict.Status == custody.StatusTampered {
//	    // the content no longer matches the registered fingerprint
//	}
package custody
