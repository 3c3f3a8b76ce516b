package caseindex

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"custodia-hq/custodia/pkg/custody"
	"custodia-hq/custodia/pkg/custody/fingerprint"
	"custodia-hq/custodia/pkg/custody/ledger"
	"custodia-hq/custodia/pkg/custody/registry"
	"custodia-hq/custodia/pkg/custody/scoring"
	"custodia-hq/custodia/pkg/custody/storage"
)

type fixture struct {
	index  *Index
	reg    *registry.Registry
	led    *ledger.Ledger
	scorer *scoring.Scorer
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewMemoryStorage()
	reg := registry.New(store)
	led := ledger.New(store)
	scorer := scoring.NewScorer(nil)
	return &fixture{
		index:  New(store, reg, led, scorer),
		reg:    reg,
		led:    led,
		scorer: scorer,
	}
}

// registerEvidence registers an item and optionally logs lifecycle events
// to shape its custody completeness.
func (f *fixture) registerEvidence(t *testing.T, id, sourceType string, actions ...custody.Action) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.reg.Register(ctx, registry.RegisterParams{
		ID:          id,
		Fingerprint: fingerprint.DigestBytes([]byte(id)),
		SourceType:  sourceType,
		Uploader:    "u",
	}); err != nil {
		t.Fatalf("register %s: %v", id, err)
	}
	for _, action := range actions {
		if _, err := f.led.Append(ctx, id, action, "u", ""); err != nil {
			t.Fatalf("append %s %s: %v", id, action, err)
		}
	}
}

func TestCreateCase(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.registerEvidence(t, "ev-1", "cctv")
	f.registerEvidence(t, "ev-2", "mobile")

	c, err := f.index.CreateCase(ctx, "case-1", "Warehouse break-in", "det-oh", []string{"ev-1", "ev-2"})
	if err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}
	if c.ID != "case-1" {
		t.Errorf("ID = %q, want %q", c.ID, "case-1")
	}
	if c.Title != "Warehouse break-in" {
		t.Errorf("Title = %q, want %q", c.Title, "Warehouse break-in")
	}
	if len(c.EvidenceIDs) != 2 {
		t.Errorf("len(EvidenceIDs) = %d, want 2", len(c.EvidenceIDs))
	}
	if c.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestCreateCaseGeneratesID(t *testing.T) {
	f := setup(t)

	c, err := f.index.CreateCase(context.Background(), "", "Untitled", "det-oh", nil)
	if err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}
	if c.ID == "" {
		t.Error("CreateCase() should generate an id when none is given")
	}
}

func TestCreateCaseCollapsesDuplicateInput(t *testing.T) {
	f := setup(t)
	f.registerEvidence(t, "ev-1", "cctv")

	c, err := f.index.CreateCase(context.Background(), "case-1", "t", "u",
		[]string{"ev-1", "ev-1", "ev-1"})
	if err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}
	if len(c.EvidenceIDs) != 1 {
		t.Errorf("len(EvidenceIDs) = %d, want 1", len(c.EvidenceIDs))
	}
}

func TestCreateCaseListsAllMissingIDs(t *testing.T) {
	f := setup(t)
	f.registerEvidence(t, "ev-1", "cctv")

	_, err := f.index.CreateCase(context.Background(), "case-1", "t", "u",
		[]string{"ev-1", "ghost-a", "ghost-b"})
	var notFound *custody.EvidenceNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("CreateCase() error = %v, want EvidenceNotFoundError", err)
	}

	got := append([]string(nil), notFound.EvidenceIDs...)
	sort.Strings(got)
	want := []string{"ghost-a", "ghost-b"}
	if len(got) != len(want) {
		t.Fatalf("missing ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("missing ids = %v, want %v", got, want)
			break
		}
	}
}

func TestAddEvidence(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.registerEvidence(t, "ev-1", "cctv")
	f.registerEvidence(t, "ev-2", "cctv")

	if _, err := f.index.CreateCase(ctx, "case-1", "t", "u", []string{"ev-1"}); err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}

	if err := f.index.AddEvidence(ctx, "case-1", "ev-2"); err != nil {
		t.Fatalf("AddEvidence() error = %v", err)
	}

	c, err := f.index.GetCase(ctx, "case-1")
	if err != nil {
		t.Fatalf("GetCase() error = %v", err)
	}
	if len(c.EvidenceIDs) != 2 {
		t.Errorf("len(EvidenceIDs) = %d, want 2", len(c.EvidenceIDs))
	}
}

func TestAddEvidenceIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.registerEvidence(t, "ev-1", "cctv")

	if _, err := f.index.CreateCase(ctx, "case-1", "t", "u", []string{"ev-1"}); err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}

	// Re-adding a member changes nothing and reports no error.
	for i := 0; i < 3; i++ {
		if err := f.index.AddEvidence(ctx, "case-1", "ev-1"); err != nil {
			t.Fatalf("AddEvidence() attempt %d error = %v", i, err)
		}
	}

	c, _ := f.index.GetCase(ctx, "case-1")
	if len(c.EvidenceIDs) != 1 {
		t.Errorf("len(EvidenceIDs) = %d, want 1", len(c.EvidenceIDs))
	}
}

func TestAddEvidenceUnknownCase(t *testing.T) {
	f := setup(t)
	f.registerEvidence(t, "ev-1", "cctv")

	err := f.index.AddEvidence(context.Background(), "missing", "ev-1")
	var notFound *custody.CaseNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("AddEvidence() error = %v, want CaseNotFoundError", err)
	}
}

func TestAddEvidenceUnknownEvidence(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	if _, err := f.index.CreateCase(ctx, "case-1", "t", "u", nil); err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}

	err := f.index.AddEvidence(ctx, "case-1", "ghost")
	var notFound *custody.EvidenceNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("AddEvidence() error = %v, want EvidenceNotFoundError", err)
	}
}

func TestCorroborateAllAdmissible(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// cctv with full lifecycle: score 100, LOW.
	f.registerEvidence(t, "ev-1", "cctv", custody.ActionRegistered, custody.ActionVerified)
	// mobile with full lifecycle: score 75, LOW.
	f.registerEvidence(t, "ev-2", "mobile", custody.ActionRegistered, custody.ActionVerified)

	if _, err := f.index.CreateCase(ctx, "case-1", "t", "u", []string{"ev-1", "ev-2"}); err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}

	result, err := f.index.Corroborate(ctx, "case-1")
	if err != nil {
		t.Fatalf("Corroborate() error = %v", err)
	}
	if result.CorroborationScore != 100 {
		t.Errorf("CorroborationScore = %v, want 100", result.CorroborationScore)
	}
	if len(result.PerEvidenceDetail) != 2 {
		t.Fatalf("len(PerEvidenceDetail) = %d, want 2", len(result.PerEvidenceDetail))
	}
	for _, detail := range result.PerEvidenceDetail {
		if detail.Risk != scoring.RiskLow {
			t.Errorf("%s: Risk = %q, want LOW", detail.EvidenceID, detail.Risk)
		}
	}
}

func TestCorroborateMixedRisk(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// LOW: cctv, full lifecycle -> 100.
	f.registerEvidence(t, "ev-1", "cctv", custody.ActionRegistered, custody.ActionVerified)
	// HIGH: user-submitted, registered only -> 0.4*50 + 0.5*50 = 45.
	f.registerEvidence(t, "ev-2", "user-submitted", custody.ActionRegistered)
	// VERY HIGH: user-submitted with no lifecycle events -> 20.
	f.registerEvidence(t, "ev-3", "user-submitted")

	if _, err := f.index.CreateCase(ctx, "case-1", "t", "u",
		[]string{"ev-1", "ev-2", "ev-3"}); err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}

	result, err := f.index.Corroborate(ctx, "case-1")
	if err != nil {
		t.Fatalf("Corroborate() error = %v", err)
	}
	// 1 of 3 admissible = 33.33%.
	if result.CorroborationScore != 33.33 {
		t.Errorf("CorroborationScore = %v, want 33.33", result.CorroborationScore)
	}

	wantRisk := map[string]scoring.RiskLevel{
		"ev-1": scoring.RiskLow,
		"ev-2": scoring.RiskHigh,
		"ev-3": scoring.RiskVeryHigh,
	}
	for _, detail := range result.PerEvidenceDetail {
		if detail.Risk != wantRisk[detail.EvidenceID] {
			t.Errorf("%s: Risk = %q, want %q", detail.EvidenceID, detail.Risk, wantRisk[detail.EvidenceID])
		}
	}
}

func TestCorroborateEmptyCase(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, err := f.index.CreateCase(ctx, "case-1", "t", "u", nil); err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}

	result, err := f.index.Corroborate(ctx, "case-1")
	if err != nil {
		t.Fatalf("Corroborate() error = %v", err)
	}
	if result.CorroborationScore != 0 {
		t.Errorf("CorroborationScore = %v, want 0 for an empty case", result.CorroborationScore)
	}
	if len(result.PerEvidenceDetail) != 0 {
		t.Errorf("len(PerEvidenceDetail) = %d, want 0", len(result.PerEvidenceDetail))
	}
}

func TestCorroborateUnknownCase(t *testing.T) {
	f := setup(t)

	_, err := f.index.Corroborate(context.Background(), "missing")
	var notFound *custody.CaseNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Corroborate() error = %v, want CaseNotFoundError", err)
	}
}

func TestCorroborateTracksWeightReload(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.registerEvidence(t, "ev-1", "drone", custody.ActionRegistered, custody.ActionVerified)
	if _, err := f.index.CreateCase(ctx, "case-1", "t", "u", []string{"ev-1"}); err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}

	// Unknown source type -> default 0.5 weight -> 75, LOW.
	result, _ := f.index.Corroborate(ctx, "case-1")
	if result.CorroborationScore != 100 {
		t.Fatalf("CorroborationScore = %v, want 100 before reload", result.CorroborationScore)
	}

	// Tighten the table; corroboration recomputes from live state. Zero
	// weight and half completeness score 25, HIGH risk.
	f.scorer.Reload(&scoring.Config{
		Weights:       map[string]float64{"drone": 0.0},
		DefaultWeight: 0.5,
		ExpectedActions: []custody.Action{
			custody.ActionRegistered, custody.ActionVerified,
			custody.ActionExported, custody.ActionArchived,
		},
	})
	result, _ = f.index.Corroborate(ctx, "case-1")
	if result.CorroborationScore != 0 {
		t.Errorf("CorroborationScore = %v, want 0 after reload", result.CorroborationScore)
	}
}

func TestWithClock(t *testing.T) {
	store := storage.NewMemoryStorage()
	fixed := time.Date(2031, 3, 14, 9, 26, 53, 0, time.UTC)
	index := New(store, registry.New(store), ledger.New(store), scoring.NewScorer(nil),
		WithClock(func() time.Time { return fixed }))

	c, err := index.CreateCase(context.Background(), "case-1", "t", "u", nil)
	if err != nil {
		t.Fatalf("CreateCase() error = %v", err)
	}
	if !c.CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", c.CreatedAt, fixed)
	}
}
