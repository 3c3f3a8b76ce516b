package export

import (
	"context"
	"fmt"
	"io"

	"custodia-hq/custodia/pkg/custody"
)

// Dossier bundles an evidence record with its custody timeline. This is
// the unit of export: a reviewer always receives the record and the full
// chain of custody together.
type Dossier struct {
	Evidence *custody.EvidenceRecord `json:"evidence"`
	Timeline []*custody.CustodyEvent `json:"timeline"`
}

// Exporter writes one dossier to a writer in a specific format.
type Exporter interface {
	// Export writes the dossier. Returns a *Error if the write fails.
	Export(ctx context.Context, dossier *Dossier, w io.Writer) error

	// Format returns the exporter's format name ("json", "csv").
	Format() string
}

// Error represents a failure during dossier export.
type Error struct {
	Format     string // Export format ("json", "csv")
	EvidenceID string // Evidence being exported
	Cause      error  // Underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("export error [format=%s, evidence_id=%s]: %v", e.Format, e.EvidenceID, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new export Error.
func NewError(format, evidenceID string, cause error) *Error {
	return &Error{
		Format:     format,
		EvidenceID: evidenceID,
		Cause:      cause,
	}
}
