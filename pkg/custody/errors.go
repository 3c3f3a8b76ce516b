package custody

import (
	"fmt"
	"strings"
)

// DuplicateEvidenceIDError is returned when registering an evidence id that
// is already present in the registry. Exactly one concurrent registration
// attempt for a given id ever succeeds; all others receive this error.
type DuplicateEvidenceIDError struct {
	EvidenceID string
}

// Error implements the error interface.
func (e *DuplicateEvidenceIDError) Error() string {
	return fmt.Sprintf("evidence id %q is already registered", e.EvidenceID)
}

// NewDuplicateEvidenceIDError creates a new DuplicateEvidenceIDError.
func NewDuplicateEvidenceIDError(evidenceID string) *DuplicateEvidenceIDError {
	return &DuplicateEvidenceIDError{EvidenceID: evidenceID}
}

// EvidenceNotFoundError is returned when one or more referenced evidence ids
// are not present in the registry. For case operations it lists every
// missing id so the caller can act on all of them at once.
type EvidenceNotFoundError struct {
	EvidenceIDs []string
}

// Error implements the error interface.
func (e *EvidenceNotFoundError) Error() string {
	if len(e.EvidenceIDs) == 1 {
		return fmt.Sprintf("evidence %q not found", e.EvidenceIDs[0])
	}
	return fmt.Sprintf("evidence not found: %s", strings.Join(e.EvidenceIDs, ", "))
}

// NewEvidenceNotFoundError creates a new EvidenceNotFoundError.
func NewEvidenceNotFoundError(evidenceIDs ...string) *EvidenceNotFoundError {
	return &EvidenceNotFoundError{EvidenceIDs: evidenceIDs}
}

// CaseNotFoundError is returned when a referenced case id is unknown.
type CaseNotFoundError struct {
	CaseID string
}

// Error implements the error interface.
func (e *CaseNotFoundError) Error() string {
	return fmt.Sprintf("case %q not found", e.CaseID)
}

// NewCaseNotFoundError creates a new CaseNotFoundError.
func NewCaseNotFoundError(caseID string) *CaseNotFoundError {
	return &CaseNotFoundError{CaseID: caseID}
}

// DanglingParentError is returned when a registration declares a parent
// fingerprint that matches no existing record. Derivation validity is
// enforced at write time, never lazily.
type DanglingParentError struct {
	EvidenceID        string
	ParentFingerprint string
}

// Error implements the error interface.
func (e *DanglingParentError) Error() string {
	return fmt.Sprintf("evidence %q declares parent fingerprint %q which matches no registered record",
		e.EvidenceID, e.ParentFingerprint)
}

// NewDanglingParentError creates a new DanglingParentError.
func NewDanglingParentError(evidenceID, parentFingerprint string) *DanglingParentError {
	return &DanglingParentError{EvidenceID: evidenceID, ParentFingerprint: parentFingerprint}
}

// DerivationCycleError is returned when a registration would close a cycle
// in the derivation graph. The parent/child graph must stay acyclic.
type DerivationCycleError struct {
	EvidenceID  string
	Fingerprint string
}

// Error implements the error interface.
func (e *DerivationCycleError) Error() string {
	return fmt.Sprintf("evidence %q with fingerprint %q would create a derivation cycle",
		e.EvidenceID, e.Fingerprint)
}

// NewDerivationCycleError creates a new DerivationCycleError.
func NewDerivationCycleError(evidenceID, fingerprint string) *DerivationCycleError {
	return &DerivationCycleError{EvidenceID: evidenceID, Fingerprint: fingerprint}
}

// StorageError represents a persistence I/O failure. The service layer
// retries a failed write exactly once; a StorageError that reaches the
// caller means the retry failed too and the operation did not take effect.
type StorageError struct {
	Backend   string // Storage backend type ("sqlite", "memory", etc.)
	Operation string // Operation that failed ("put", "append", "timeline", etc.)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// StreamError represents a failure to fully read an evidence byte stream
// while fingerprinting. No partial digest is ever produced.
type StreamError struct {
	Cause error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	return fmt.Sprintf("stream error: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StreamError) Unwrap() error {
	return e.Cause
}

// NewStreamError creates a new StreamError.
func NewStreamError(cause error) *StreamError {
	return &StreamError{Cause: cause}
}
