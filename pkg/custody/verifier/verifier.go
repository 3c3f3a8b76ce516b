// Package verifier implements tamper detection: it recomputes the
// fingerprint of freshly supplied content and classifies it against the
// registered fingerprint.
//
// The comparison covers the entire digest in constant time. A prefix or
// substring match is never sufficient; any difference anywhere in the
// digest classifies the evidence as TAMPERED.
//
// Every verification, intact or tampered, appends a VERIFIED event to the
// custody ledger with the outcome in its detail field, so the timeline
// retains every past verdict even when the current state flips between
// intact and tampered on subsequent calls.
package verifier

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"log/slog"

	"custodia-hq/custodia/pkg/custody"
	"custodia-hq/custodia/pkg/custody/fingerprint"
	"custodia-hq/custodia/pkg/custody/ledger"
	"custodia-hq/custodia/pkg/custody/registry"
)

// Verifier re-verifies evidence content against the registry.
type Verifier struct {
	registry *registry.Registry
	ledger   *ledger.Ledger
	logger   *slog.Logger
}

// New creates a verifier over the given registry and ledger.
func New(reg *registry.Registry, led *ledger.Ledger) *Verifier {
	return &Verifier{
		registry: reg,
		ledger:   led,
		logger:   slog.Default().With("component", "custody.verifier"),
	}
}

// Verify recomputes the fingerprint of content and classifies it against
// the stored record. It fails with *custody.EvidenceNotFoundError if the
// evidence id is unknown and *custody.StreamError if the content cannot be
// fully read. On success it appends a VERIFIED custody event recording the
// outcome, regardless of status.
func (v *Verifier) Verify(ctx context.Context, evidenceID string, content io.Reader, actor string) (*custody.VerificationResult, error) {
	record, err := v.registry.Get(ctx, evidenceID)
	if err != nil {
		return nil, err
	}

	// Hash before taking any lock; large inputs must not block appends
	// for unrelated evidence ids.
	current, err := fingerprint.Digest(content)
	if err != nil {
		return nil, err
	}

	result := &custody.VerificationResult{
		Status:             classify(record.Fingerprint, current),
		StoredFingerprint:  record.Fingerprint,
		CurrentFingerprint: current,
	}

	detail := fmt.Sprintf("integrity check: %s (stored=%s current=%s)",
		result.Status, result.StoredFingerprint, result.CurrentFingerprint)
	if _, err := v.ledger.Append(ctx, evidenceID, custody.ActionVerified, actor, detail); err != nil {
		return nil, err
	}

	if result.Status == custody.StatusTampered {
		v.logger.Warn("evidence tampering detected",
			"evidence_id", evidenceID,
			"actor", actor,
			"stored_fingerprint", result.StoredFingerprint,
			"current_fingerprint", result.CurrentFingerprint,
		)
	} else {
		v.logger.Info("evidence verified intact",
			"evidence_id", evidenceID,
			"actor", actor,
		)
	}

	return result, nil
}

// classify compares two hex digests over their full length in constant
// time. Length mismatch is an immediate TAMPERED; equal-length digests go
// through subtle.ConstantTimeCompare.
func classify(stored, current string) custody.VerificationStatus {
	if len(stored) != len(current) {
		return custody.StatusTampered
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(current)) == 1 {
		return custody.StatusIntact
	}
	return custody.StatusTampered
}
