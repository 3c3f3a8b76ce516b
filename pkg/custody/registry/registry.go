package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"custodia-hq/custodia/pkg/custody"
	"custodia-hq/custodia/pkg/custody/fingerprint"
)

// maxDerivationDepth bounds the ancestor walk during cycle detection so a
// corrupted store can never send the registry into an unbounded loop.
const maxDerivationDepth = 1000

// RegisterParams describes a registration request. Fingerprint must be a
// complete hex-encoded digest; ID may be empty, in which case the registry
// generates one.
type RegisterParams struct {
	ID                string
	Fingerprint       string
	SourceType        string
	Uploader          string
	ParentFingerprint string
	Metadata          map[string]string
}

// Registry enforces identity uniqueness and derivation validity for
// evidence records. It is safe for concurrent use.
type Registry struct {
	store  custody.EvidenceStore
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the registry's time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// New creates a registry backed by the given evidence store.
func New(store custody.EvidenceStore, opts ...Option) *Registry {
	r := &Registry{
		store:  store,
		now:    time.Now,
		logger: slog.Default().With("component", "custody.registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register creates a new evidence record. It fails with
// *custody.DuplicateEvidenceIDError if the id is taken,
// *custody.DanglingParentError if the declared parent fingerprint matches
// no existing record, and *custody.DerivationCycleError if the registration
// would close a cycle in the derivation graph.
//
// The returned record has no admissibility score; scoring happens after the
// REGISTERED custody event is logged so the score reflects the timeline.
func (r *Registry) Register(ctx context.Context, params RegisterParams) (*custody.EvidenceRecord, error) {
	if len(params.Fingerprint) != fingerprint.DigestLength {
		return nil, fmt.Errorf("invalid fingerprint length %d, want %d",
			len(params.Fingerprint), fingerprint.DigestLength)
	}

	id := params.ID
	if id == "" {
		id = uuid.New().String()
	}

	if params.ParentFingerprint != "" {
		if err := r.validateDerivation(ctx, id, params.Fingerprint, params.ParentFingerprint); err != nil {
			return nil, err
		}
	}

	record := &custody.EvidenceRecord{
		ID:                id,
		Fingerprint:       params.Fingerprint,
		SourceType:        params.SourceType,
		Uploader:          params.Uploader,
		ParentFingerprint: params.ParentFingerprint,
		Metadata:          params.Metadata,
		RegisteredAt:      r.now().UTC(),
	}

	err := custody.RetryStorage(func() error {
		return r.store.Put(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("evidence registered",
		"evidence_id", record.ID,
		"source_type", record.SourceType,
		"uploader", record.Uploader,
		"derived", record.ParentFingerprint != "",
	)

	return record.Clone(), nil
}

// validateDerivation checks that the declared parent exists and that adding
// this record would keep the derivation graph acyclic. The walk follows
// parent fingerprints upward; if the new record's own fingerprint appears
// anywhere among its ancestors, registering it would close a cycle.
func (r *Registry) validateDerivation(ctx context.Context, id, fp, parentFP string) error {
	parent, err := r.store.GetByFingerprint(ctx, parentFP)
	if err != nil {
		return err
	}
	if parent == nil {
		return custody.NewDanglingParentError(id, parentFP)
	}

	ancestor := parent
	for depth := 0; ancestor != nil && depth < maxDerivationDepth; depth++ {
		if ancestor.Fingerprint == fp {
			return custody.NewDerivationCycleError(id, fp)
		}
		if ancestor.ParentFingerprint == "" {
			return nil
		}
		ancestor, err = r.store.GetByFingerprint(ctx, ancestor.ParentFingerprint)
		if err != nil {
			return err
		}
	}
	if ancestor != nil {
		return custody.NewDerivationCycleError(id, fp)
	}
	return nil
}

// Get retrieves an evidence record by id. Fails with
// *custody.EvidenceNotFoundError if the id is unknown.
func (r *Registry) Get(ctx context.Context, id string) (*custody.EvidenceRecord, error) {
	record, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, custody.NewEvidenceNotFoundError(id)
	}
	return record, nil
}

// ListIDs returns every registered evidence id, in no particular order.
func (r *Registry) ListIDs(ctx context.Context) ([]string, error) {
	return r.store.ListIDs(ctx)
}

// SetScore updates the admissibility score of an existing record. This is
// the only mutation permitted after registration. Fails with
// *custody.EvidenceNotFoundError if the id is unknown.
func (r *Registry) SetScore(ctx context.Context, id string, score int) error {
	var updated bool
	err := custody.RetryStorage(func() error {
		var updateErr error
		updated, updateErr = r.store.UpdateScore(ctx, id, score)
		return updateErr
	})
	if err != nil {
		return err
	}
	if !updated {
		return custody.NewEvidenceNotFoundError(id)
	}
	return nil
}
