// Package caseindex groups evidence items into cases and computes
// case-level corroboration: the share of a case's members whose current
// risk classification is LOW or MEDIUM.
//
// The index only holds evidence ids; evidence data stays owned by the
// registry. Corroboration is a read-only aggregation over registry and
// ledger state — scores are recomputed live, never trusted from a cache.
package caseindex

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"custodia-hq/custodia/pkg/custody"
	"custodia-hq/custodia/pkg/custody/ledger"
	"custodia-hq/custodia/pkg/custody/registry"
	"custodia-hq/custodia/pkg/custody/scoring"
)

// EvidenceDetail is the per-member slice of a corroboration report.
type EvidenceDetail struct {
	EvidenceID         string            `json:"evidenceId"`
	SourceType         string            `json:"sourceType"`
	AdmissibilityScore int               `json:"admissibilityScore"`
	Risk               scoring.RiskLevel `json:"risk"`
}

// CorroborationResult aggregates the risk posture of a case's evidence.
type CorroborationResult struct {
	CaseID            string           `json:"caseId"`
	PerEvidenceDetail []EvidenceDetail `json:"perEvidenceDetail"`

	// CorroborationScore is the percentage of member evidence at LOW or
	// MEDIUM risk, rounded to two decimals. A case with no members
	// scores 0.
	CorroborationScore float64 `json:"corroborationScore"`
}

// Index manages cases. It is safe for concurrent use.
type Index struct {
	store    custody.CaseStore
	registry *registry.Registry
	ledger   *ledger.Ledger
	scorer   *scoring.Scorer
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithClock overrides the index's time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(i *Index) { i.now = now }
}

// New creates a case index over the given store, registry, ledger and scorer.
func New(store custody.CaseStore, reg *registry.Registry, led *ledger.Ledger, scorer *scoring.Scorer, opts ...Option) *Index {
	i := &Index{
		store:    store,
		registry: reg,
		ledger:   led,
		scorer:   scorer,
		now:      time.Now,
		logger:   slog.Default().With("component", "custody.caseindex"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// CreateCase creates a case referencing the given evidence ids. The id may
// be empty, in which case one is generated. It fails with
// *custody.EvidenceNotFoundError listing every missing id if any
// referenced evidence is unregistered. Duplicate ids in the input are
// collapsed, preserving first appearance order.
func (i *Index) CreateCase(ctx context.Context, id, title, createdBy string, evidenceIDs []string) (*custody.Case, error) {
	if id == "" {
		id = uuid.New().String()
	}

	var missing []string
	seen := make(map[string]bool, len(evidenceIDs))
	members := make([]string, 0, len(evidenceIDs))
	for _, evidenceID := range evidenceIDs {
		if seen[evidenceID] {
			continue
		}
		seen[evidenceID] = true

		record, err := i.registry.Get(ctx, evidenceID)
		if err != nil {
			var notFound *custody.EvidenceNotFoundError
			if errors.As(err, &notFound) {
				missing = append(missing, evidenceID)
				continue
			}
			return nil, err
		}
		members = append(members, record.ID)
	}
	if len(missing) > 0 {
		return nil, custody.NewEvidenceNotFoundError(missing...)
	}

	c := &custody.Case{
		ID:          id,
		Title:       title,
		CreatedBy:   createdBy,
		CreatedAt:   i.now().UTC(),
		EvidenceIDs: members,
	}
	err := custody.RetryStorage(func() error {
		return i.store.PutCase(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	i.logger.Info("case created",
		"case_id", c.ID,
		"created_by", createdBy,
		"evidence_count", len(members),
	)

	return c.Clone(), nil
}

// GetCase retrieves a case by id. Fails with *custody.CaseNotFoundError if
// the id is unknown.
func (i *Index) GetCase(ctx context.Context, caseID string) (*custody.Case, error) {
	c, err := i.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, custody.NewCaseNotFoundError(caseID)
	}
	return c, nil
}

// AddEvidence adds a registered evidence id to an existing case. Adding an
// id that is already a member is a no-op, not an error.
func (i *Index) AddEvidence(ctx context.Context, caseID, evidenceID string) error {
	if _, err := i.GetCase(ctx, caseID); err != nil {
		return err
	}

	if _, err := i.registry.Get(ctx, evidenceID); err != nil {
		return err
	}

	return custody.RetryStorage(func() error {
		return i.store.AddCaseEvidence(ctx, caseID, evidenceID)
	})
}

// Corroborate recomputes the admissibility score of every member from
// registry and ledger state and reports the percentage at LOW or MEDIUM
// risk, rounded to two decimals. Fails with *custody.CaseNotFoundError if
// the case id is unknown.
func (i *Index) Corroborate(ctx context.Context, caseID string) (*CorroborationResult, error) {
	c, err := i.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	result := &CorroborationResult{
		CaseID:            c.ID,
		PerEvidenceDetail: make([]EvidenceDetail, 0, len(c.EvidenceIDs)),
	}

	admissible := 0
	for _, evidenceID := range c.EvidenceIDs {
		record, err := i.registry.Get(ctx, evidenceID)
		if err != nil {
			return nil, err
		}
		timeline, err := i.ledger.Timeline(ctx, evidenceID)
		if err != nil {
			return nil, err
		}

		score := i.scorer.ScoreEvidence(record, timeline)
		risk := scoring.Classify(score)
		if risk.Admissible() {
			admissible++
		}

		result.PerEvidenceDetail = append(result.PerEvidenceDetail, EvidenceDetail{
			EvidenceID:         record.ID,
			SourceType:         record.SourceType,
			AdmissibilityScore: score,
			Risk:               risk,
		})
	}

	if len(c.EvidenceIDs) > 0 {
		pct := float64(admissible) / float64(len(c.EvidenceIDs)) * 100
		result.CorroborationScore = math.Round(pct*100) / 100
	}

	return result, nil
}
