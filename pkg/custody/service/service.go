package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"custodia-hq/custodia/pkg/custody"
	"custodia-hq/custodia/pkg/custody/caseindex"
	"custodia-hq/custodia/pkg/custody/fingerprint"
	"custodia-hq/custodia/pkg/custody/ledger"
	"custodia-hq/custodia/pkg/custody/registry"
	"custodia-hq/custodia/pkg/custody/scoring"
	"custodia-hq/custodia/pkg/custody/verifier"
	"custodia-hq/custodia/pkg/telemetry/metrics"
)

// Stores bundles the persistence backends the service runs on. A single
// backend (MemoryStorage, SQLiteStorage) typically implements all three.
type Stores struct {
	Evidence custody.EvidenceStore
	Events   custody.EventStore
	Cases    custody.CaseStore
}

// RegisterRequest carries everything needed to register one evidence item.
type RegisterRequest struct {
	// EvidenceID is the caller-assigned id; empty means generate one.
	EvidenceID string

	// Content is the evidence byte stream. It is consumed to EOF.
	Content io.Reader

	SourceType        string
	Uploader          string
	ParentFingerprint string
	Metadata          map[string]string
}

// RegisterResult is the outcome of a successful registration.
type RegisterResult struct {
	EvidenceID         string `json:"evidenceId"`
	Fingerprint        string `json:"fingerprint"`
	AdmissibilityScore int    `json:"admissibilityScore"`
}

// Service orchestrates the custody core components.
type Service struct {
	registry *registry.Registry
	ledger   *ledger.Ledger
	verifier *verifier.Verifier
	scorer   *scoring.Scorer
	cases    *caseindex.Index
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// New wires the custody components over the given stores. scorer may be
// nil to use the default weight table; collector may be nil to disable
// metrics.
func New(stores Stores, scorer *scoring.Scorer, collector *metrics.Collector) *Service {
	if scorer == nil {
		scorer = scoring.NewScorer(nil)
	}
	reg := registry.New(stores.Evidence)
	led := ledger.New(stores.Events)

	return &Service{
		registry: reg,
		ledger:   led,
		verifier: verifier.New(reg, led),
		scorer:   scorer,
		cases:    caseindex.New(stores.Cases, reg, led, scorer),
		metrics:  collector,
		logger:   slog.Default().With("component", "custody.service"),
	}
}

// Scorer returns the service's scorer, e.g. to attach a weights watcher.
func (s *Service) Scorer() *scoring.Scorer {
	return s.scorer
}

// Register fingerprints the content stream, creates the evidence record,
// logs the REGISTERED custody event and stores the initial admissibility
// score. If the caller's context is cancelled before persistence, nothing
// becomes visible.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*RegisterResult, error) {
	digest, err := fingerprint.Digest(req.Content)
	if err != nil {
		s.metrics.RecordRegistration(req.SourceType, "error")
		return nil, err
	}

	record, err := s.registry.Register(ctx, registry.RegisterParams{
		ID:                req.EvidenceID,
		Fingerprint:       digest,
		SourceType:        req.SourceType,
		Uploader:          req.Uploader,
		ParentFingerprint: req.ParentFingerprint,
		Metadata:          req.Metadata,
	})
	if err != nil {
		var dup *custody.DuplicateEvidenceIDError
		if errors.As(err, &dup) {
			s.metrics.RecordRegistration(req.SourceType, "duplicate")
		} else {
			s.metrics.RecordRegistration(req.SourceType, "invalid")
		}
		return nil, err
	}

	detail := fmt.Sprintf("registered by %s (source=%s)", req.Uploader, req.SourceType)
	if _, err := s.append(ctx, record.ID, custody.ActionRegistered, req.Uploader, detail); err != nil {
		return nil, err
	}

	score, err := s.rescore(ctx, record)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRegistration(req.SourceType, "ok")

	return &RegisterResult{
		EvidenceID:         record.ID,
		Fingerprint:        record.Fingerprint,
		AdmissibilityScore: score,
	}, nil
}

// Verify recomputes the fingerprint of content and classifies the evidence
// as INTACT or TAMPERED, appending a VERIFIED custody event either way.
func (s *Service) Verify(ctx context.Context, evidenceID string, content io.Reader, actor string) (*custody.VerificationResult, error) {
	result, err := s.verifier.Verify(ctx, evidenceID, content, actor)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordCustodyEvent(string(custody.ActionVerified))
	s.metrics.RecordVerification(string(result.Status))

	// The VERIFIED event changed custody completeness; refresh the score
	// so the stored value tracks its derivable inputs.
	record, err := s.registry.Get(ctx, evidenceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.rescore(ctx, record); err != nil {
		return nil, err
	}

	return result, nil
}

// Timeline returns the ordered custody events for an evidence item. It is
// read-only and records nothing.
func (s *Service) Timeline(ctx context.Context, evidenceID string) ([]*custody.CustodyEvent, error) {
	return s.ledger.Timeline(ctx, evidenceID)
}

// Access returns an evidence record and logs an ACCESSED custody event
// attributed to the actor.
func (s *Service) Access(ctx context.Context, evidenceID, actor string) (*custody.EvidenceRecord, error) {
	record, err := s.registry.Get(ctx, evidenceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.append(ctx, evidenceID, custody.ActionAccessed, actor, ""); err != nil {
		return nil, err
	}
	return record, nil
}

// Get returns an evidence record without recording an access event.
func (s *Service) Get(ctx context.Context, evidenceID string) (*custody.EvidenceRecord, error) {
	return s.registry.Get(ctx, evidenceID)
}

// MarkExported logs an EXPORTED custody event after the caller has written
// the evidence or its timeline to an external destination.
func (s *Service) MarkExported(ctx context.Context, evidenceID, actor, detail string) error {
	if _, err := s.registry.Get(ctx, evidenceID); err != nil {
		return err
	}
	_, err := s.append(ctx, evidenceID, custody.ActionExported, actor, detail)
	return err
}

// Archive logs an ARCHIVED custody event. The record itself is retained;
// archival is a custody fact, not a deletion.
func (s *Service) Archive(ctx context.Context, evidenceID, actor, detail string) error {
	if _, err := s.registry.Get(ctx, evidenceID); err != nil {
		return err
	}
	_, err := s.append(ctx, evidenceID, custody.ActionArchived, actor, detail)
	return err
}

// Rescore recomputes and stores the admissibility score for one evidence
// item from current registry and ledger state.
func (s *Service) Rescore(ctx context.Context, evidenceID string) (int, error) {
	record, err := s.registry.Get(ctx, evidenceID)
	if err != nil {
		return 0, err
	}
	return s.rescore(ctx, record)
}

// ListEvidenceIDs returns the ids of all registered evidence.
func (s *Service) ListEvidenceIDs(ctx context.Context) ([]string, error) {
	return s.registry.ListIDs(ctx)
}

// RescoreAll recomputes scores for every registered evidence item and
// returns the number of items rescored. Used by the scheduled sweep.
func (s *Service) RescoreAll(ctx context.Context) (int, error) {
	ids, err := s.registry.ListIDs(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if _, err := s.Rescore(ctx, id); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// CreateCase creates a case referencing registered evidence.
func (s *Service) CreateCase(ctx context.Context, id, title, createdBy string, evidenceIDs []string) (*custody.Case, error) {
	return s.cases.CreateCase(ctx, id, title, createdBy, evidenceIDs)
}

// AddCaseEvidence adds a registered evidence item to a case; idempotent.
func (s *Service) AddCaseEvidence(ctx context.Context, caseID, evidenceID string) error {
	return s.cases.AddEvidence(ctx, caseID, evidenceID)
}

// Corroborate reports the case's per-evidence risk detail and the share of
// members at LOW or MEDIUM risk.
func (s *Service) Corroborate(ctx context.Context, caseID string) (*caseindex.CorroborationResult, error) {
	return s.cases.Corroborate(ctx, caseID)
}

// append logs one custody event and counts it.
func (s *Service) append(ctx context.Context, evidenceID string, action custody.Action, actor, detail string) (*custody.CustodyEvent, error) {
	event, err := s.ledger.Append(ctx, evidenceID, action, actor, detail)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordCustodyEvent(string(action))
	return event, nil
}

// rescore computes the score from the record's timeline and stores it.
func (s *Service) rescore(ctx context.Context, record *custody.EvidenceRecord) (int, error) {
	timeline, err := s.ledger.Timeline(ctx, record.ID)
	if err != nil {
		return 0, err
	}
	score := s.scorer.ScoreEvidence(record, timeline)
	if err := s.registry.SetScore(ctx, record.ID, score); err != nil {
		return 0, err
	}
	s.metrics.ObserveAdmissibilityScore(score)
	return score, nil
}
