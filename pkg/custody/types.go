package custody

import (
	"context"
	"time"
)

// Action identifies the kind of custody event recorded for an evidence item.
type Action string

// Custody actions. REGISTERED and VERIFIED form the expected lifecycle used
// for custody-completeness scoring; the rest record access and disposition.
const (
	ActionRegistered Action = "REGISTERED"
	ActionAccessed   Action = "ACCESSED"
	ActionVerified   Action = "VERIFIED"
	ActionExported   Action = "EXPORTED"
	ActionArchived   Action = "ARCHIVED"
)

// IsValid reports whether a is one of the known custody actions.
func (a Action) IsValid() bool {
	switch a {
	case ActionRegistered, ActionAccessed, ActionVerified, ActionExported, ActionArchived:
		return true
	}
	return false
}

// EvidenceRecord is the registry entry for a single evidence item. The
// fingerprint is immutable once set; the admissibility score is the only
// field that may change after registration.
type EvidenceRecord struct {
	ID                string            `json:"id"`
	Fingerprint       string            `json:"fingerprint"` // hex-encoded SHA-256
	SourceType        string            `json:"sourceType"`
	Uploader          string            `json:"uploader"`
	ParentFingerprint string            `json:"parentFingerprint,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`

	// AdmissibilityScore is nil until first computed. It is always
	// recomputable from registry + ledger state and never the sole
	// source of truth.
	AdmissibilityScore *int `json:"admissibilityScore"`

	RegisteredAt time.Time `json:"registeredAt"`
}

// Clone returns a deep copy of the record so callers can never mutate
// stored state through a returned pointer.
func (r *EvidenceRecord) Clone() *EvidenceRecord {
	cp := *r
	if r.Metadata != nil {
		cp.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			cp.Metadata[k] = v
		}
	}
	if r.AdmissibilityScore != nil {
		score := *r.AdmissibilityScore
		cp.AdmissibilityScore = &score
	}
	return &cp
}

// CustodyEvent is one immutable entry in an evidence item's chain of custody.
// Events for a given evidence id are never mutated or deleted after append.
type CustodyEvent struct {
	EntryID    string `json:"entryId"` // UUID v4
	EvidenceID string `json:"evidenceId"`

	// Seq is the position of this event within its evidence id's
	// sequence, starting at 1. Timeline order is (evidenceId, seq).
	Seq int64 `json:"seq"`

	Action Action `json:"action"`
	Actor  string `json:"actor"`
	Detail string `json:"detail,omitempty"`

	// Timestamp is non-decreasing within one evidence id's sequence,
	// matching append order exactly even under wall-clock skew.
	Timestamp time.Time `json:"timestamp"`
}

// Case groups evidence items for corroboration analysis. It holds only
// evidence ids, never copies of evidence data.
type Case struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`

	// EvidenceIDs preserves insertion order; adding an already-present
	// id is a no-op.
	EvidenceIDs []string `json:"evidenceIds"`
}

// Contains reports whether the case already references the evidence id.
func (c *Case) Contains(evidenceID string) bool {
	for _, id := range c.EvidenceIDs {
		if id == evidenceID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the case.
func (c *Case) Clone() *Case {
	cp := *c
	cp.EvidenceIDs = append([]string(nil), c.EvidenceIDs...)
	return &cp
}

// VerificationStatus classifies the outcome of an integrity check.
type VerificationStatus string

const (
	// StatusIntact means the recomputed fingerprint exactly equals the
	// stored fingerprint over the full digest.
	StatusIntact VerificationStatus = "INTACT"

	// StatusTampered means the digests differ anywhere.
	StatusTampered VerificationStatus = "TAMPERED"
)

// VerificationResult is the outcome of re-verifying an evidence item
// against freshly supplied content.
type VerificationResult struct {
	Status             VerificationStatus `json:"status"`
	StoredFingerprint  string             `json:"storedFingerprint"`
	CurrentFingerprint string             `json:"currentFingerprint"`
}

// EvidenceStore persists evidence records. Implementations must be safe for
// concurrent use and must make Put atomic: under concurrent Put calls with
// the same id exactly one succeeds and the rest fail with
// *DuplicateEvidenceIDError, with no partial record ever visible.
type EvidenceStore interface {
	// Put persists a new evidence record. Returns *DuplicateEvidenceIDError
	// if a record with the same id already exists.
	Put(ctx context.Context, record *EvidenceRecord) error

	// Get retrieves a record by id. Returns (nil, nil) if absent; callers
	// translate absence into *EvidenceNotFoundError.
	Get(ctx context.Context, id string) (*EvidenceRecord, error)

	// GetByFingerprint retrieves a record whose fingerprint matches
	// exactly. Returns (nil, nil) if no record matches.
	GetByFingerprint(ctx context.Context, fingerprint string) (*EvidenceRecord, error)

	// UpdateScore sets the admissibility score for an existing record.
	// Returns false if the id is unknown. This is the only mutation
	// permitted after registration.
	UpdateScore(ctx context.Context, id string, score int) (bool, error)

	// ListIDs returns the ids of every registered record, in no
	// particular order. Used by scheduled rescoring sweeps.
	ListIDs(ctx context.Context) ([]string, error)
}

// EventStore persists custody events. Appends must be atomic and durable;
// a crash mid-append must never leave a partial event visible.
type EventStore interface {
	// Append persists one custody event. The caller has already assigned
	// EntryID, Seq and Timestamp.
	Append(ctx context.Context, event *CustodyEvent) error

	// Timeline returns all events for an evidence id ordered by Seq
	// ascending. An id with no events yields an empty slice, not an error.
	Timeline(ctx context.Context, evidenceID string) ([]*CustodyEvent, error)

	// LastEvent returns the most recent event for an evidence id, or
	// (nil, nil) if none exist. Used to reseed sequence counters after a
	// process restart.
	LastEvent(ctx context.Context, evidenceID string) (*CustodyEvent, error)
}

// CaseStore persists cases.
type CaseStore interface {
	// PutCase persists a new case. Returns an error if the id is taken.
	PutCase(ctx context.Context, c *Case) error

	// GetCase retrieves a case by id. Returns (nil, nil) if absent.
	GetCase(ctx context.Context, id string) (*Case, error)

	// AddCaseEvidence appends an evidence id to a case's member list.
	// Adding an id that is already present is a no-op.
	AddCaseEvidence(ctx context.Context, caseID, evidenceID string) error
}
