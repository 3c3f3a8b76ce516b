package verifier

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"custodia-hq/custodia/pkg/custody"
	"custodia-hq/custodia/pkg/custody/fingerprint"
	"custodia-hq/custodia/pkg/custody/ledger"
	"custodia-hq/custodia/pkg/custody/registry"
	"custodia-hq/custodia/pkg/custody/storage"
)

func setup(t *testing.T) (*Verifier, *registry.Registry, *ledger.Ledger) {
	t.Helper()
	store := storage.NewMemoryStorage()
	reg := registry.New(store)
	led := ledger.New(store)
	return New(reg, led), reg, led
}

func register(t *testing.T, reg *registry.Registry, id string, content []byte) {
	t.Helper()
	_, err := reg.Register(context.Background(), registry.RegisterParams{
		ID:          id,
		Fingerprint: fingerprint.DigestBytes(content),
		SourceType:  "cctv",
		Uploader:    "officer-41",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
}

func TestVerifyIntact(t *testing.T) {
	v, reg, led := setup(t)
	content := []byte("surveillance frame 0419")
	register(t, reg, "ev-1", content)

	result, err := v.Verify(context.Background(), "ev-1", bytes.NewReader(content), "analyst-7")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if result.Status != custody.StatusIntact {
		t.Errorf("Status = %q, want %q", result.Status, custody.StatusIntact)
	}
	if result.StoredFingerprint != result.CurrentFingerprint {
		t.Errorf("fingerprints differ for intact content: stored=%s current=%s",
			result.StoredFingerprint, result.CurrentFingerprint)
	}

	timeline, err := led.Timeline(context.Background(), "ev-1")
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	if len(timeline) != 1 {
		t.Fatalf("len(timeline) = %d, want 1", len(timeline))
	}
	event := timeline[0]
	if event.Action != custody.ActionVerified {
		t.Errorf("Action = %q, want %q", event.Action, custody.ActionVerified)
	}
	if event.Actor != "analyst-7" {
		t.Errorf("Actor = %q, want %q", event.Actor, "analyst-7")
	}
	if !strings.Contains(event.Detail, string(custody.StatusIntact)) {
		t.Errorf("Detail = %q, should record the INTACT outcome", event.Detail)
	}
}

func TestVerifySingleByteFlip(t *testing.T) {
	v, reg, led := setup(t)
	content := []byte("surveillance frame 0419")
	register(t, reg, "ev-1", content)

	tampered := bytes.Clone(content)
	tampered[5] ^= 0x01

	result, err := v.Verify(context.Background(), "ev-1", bytes.NewReader(tampered), "analyst-7")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if result.Status != custody.StatusTampered {
		t.Errorf("Status = %q, want %q for a single flipped byte", result.Status, custody.StatusTampered)
	}
	if result.StoredFingerprint == result.CurrentFingerprint {
		t.Error("fingerprints should differ for tampered content")
	}

	// The tampered verdict still lands in the timeline.
	timeline, _ := led.Timeline(context.Background(), "ev-1")
	if len(timeline) != 1 {
		t.Fatalf("len(timeline) = %d, want 1", len(timeline))
	}
	if !strings.Contains(timeline[0].Detail, string(custody.StatusTampered)) {
		t.Errorf("Detail = %q, should record the TAMPERED outcome", timeline[0].Detail)
	}
}

func TestVerifyRepeatedVerdictsAccumulate(t *testing.T) {
	v, reg, led := setup(t)
	content := []byte("original")
	register(t, reg, "ev-1", content)

	ctx := context.Background()
	if _, err := v.Verify(ctx, "ev-1", bytes.NewReader(content), "a"); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if _, err := v.Verify(ctx, "ev-1", strings.NewReader("swapped"), "a"); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if _, err := v.Verify(ctx, "ev-1", bytes.NewReader(content), "a"); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	timeline, _ := led.Timeline(ctx, "ev-1")
	if len(timeline) != 3 {
		t.Fatalf("len(timeline) = %d, want 3", len(timeline))
	}
	wantOutcomes := []custody.VerificationStatus{
		custody.StatusIntact, custody.StatusTampered, custody.StatusIntact,
	}
	for i, want := range wantOutcomes {
		if !strings.Contains(timeline[i].Detail, string(want)) {
			t.Errorf("event %d: Detail = %q, want outcome %q", i, timeline[i].Detail, want)
		}
	}
}

func TestVerifyUnknownEvidence(t *testing.T) {
	v, _, _ := setup(t)

	_, err := v.Verify(context.Background(), "missing", strings.NewReader("x"), "a")
	var notFound *custody.EvidenceNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Verify() error = %v, want EvidenceNotFoundError", err)
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) {
	return 0, errors.New("device unplugged")
}

func TestVerifyStreamFailure(t *testing.T) {
	v, reg, led := setup(t)
	register(t, reg, "ev-1", []byte("content"))

	_, err := v.Verify(context.Background(), "ev-1", errReader{}, "a")
	var streamErr *custody.StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("Verify() error = %v, want StreamError", err)
	}

	// A failed read records no verdict.
	timeline, _ := led.Timeline(context.Background(), "ev-1")
	if len(timeline) != 0 {
		t.Errorf("len(timeline) = %d, want 0 after stream failure", len(timeline))
	}
}
