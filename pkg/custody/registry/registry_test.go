package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"custodia-hq/custodia/pkg/custody"
	"custodia-hq/custodia/pkg/custody/fingerprint"
	"custodia-hq/custodia/pkg/custody/storage"
)

func fp(content string) string {
	return fingerprint.DigestBytes([]byte(content))
}

func TestRegisterBasic(t *testing.T) {
	reg := New(storage.NewMemoryStorage())
	ctx := context.Background()

	record, err := reg.Register(ctx, RegisterParams{
		ID:          "ev-1",
		Fingerprint: fp("clip"),
		SourceType:  "cctv",
		Uploader:    "officer-41",
		Metadata:    map[string]string{"camera": "4F"},
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if record.ID != "ev-1" {
		t.Errorf("ID = %q, want %q", record.ID, "ev-1")
	}
	if record.Fingerprint != fp("clip") {
		t.Errorf("Fingerprint = %q, want %q", record.Fingerprint, fp("clip"))
	}
	if record.SourceType != "cctv" {
		t.Errorf("SourceType = %q, want %q", record.SourceType, "cctv")
	}
	if record.AdmissibilityScore != nil {
		t.Errorf("AdmissibilityScore = %v, want nil before scoring", *record.AdmissibilityScore)
	}
	if record.RegisteredAt.IsZero() {
		t.Error("RegisteredAt should be set")
	}
	if record.RegisteredAt.Location() != time.UTC {
		t.Errorf("RegisteredAt location = %v, want UTC", record.RegisteredAt.Location())
	}
}

func TestRegisterGeneratesID(t *testing.T) {
	reg := New(storage.NewMemoryStorage())

	record, err := reg.Register(context.Background(), RegisterParams{
		Fingerprint: fp("clip"),
		SourceType:  "cctv",
		Uploader:    "officer-41",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if record.ID == "" {
		t.Error("Register() should generate an id when none is given")
	}
}

func TestRegisterInvalidFingerprint(t *testing.T) {
	reg := New(storage.NewMemoryStorage())

	tests := []struct {
		name        string
		fingerprint string
	}{
		{"empty", ""},
		{"truncated", fp("clip")[:16]},
		{"too long", fp("clip") + "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Register(context.Background(), RegisterParams{
				ID:          "ev-1",
				Fingerprint: tt.fingerprint,
				SourceType:  "cctv",
				Uploader:    "officer-41",
			})
			if err == nil {
				t.Fatal("Register() should reject an invalid fingerprint")
			}
		})
	}
}

func TestRegisterDuplicateID(t *testing.T) {
	reg := New(storage.NewMemoryStorage())
	ctx := context.Background()

	params := RegisterParams{
		ID:          "ev-1",
		Fingerprint: fp("clip"),
		SourceType:  "cctv",
		Uploader:    "officer-41",
	}
	if _, err := reg.Register(ctx, params); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	// Same id again, even with different content.
	params.Fingerprint = fp("other")
	_, err := reg.Register(ctx, params)
	var dup *custody.DuplicateEvidenceIDError
	if !errors.As(err, &dup) {
		t.Fatalf("second Register() error = %v, want DuplicateEvidenceIDError", err)
	}
	if dup.EvidenceID != "ev-1" {
		t.Errorf("EvidenceID = %q, want %q", dup.EvidenceID, "ev-1")
	}

	// First registration stays intact.
	record, err := reg.Get(ctx, "ev-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if record.Fingerprint != fp("clip") {
		t.Errorf("first-writer record was overwritten: fingerprint = %q", record.Fingerprint)
	}
}

func TestRegisterDanglingParent(t *testing.T) {
	reg := New(storage.NewMemoryStorage())

	_, err := reg.Register(context.Background(), RegisterParams{
		ID:                "ev-2",
		Fingerprint:       fp("derived"),
		SourceType:        "cctv",
		Uploader:          "lab-3",
		ParentFingerprint: fp("never registered"),
	})
	var dangling *custody.DanglingParentError
	if !errors.As(err, &dangling) {
		t.Fatalf("Register() error = %v, want DanglingParentError", err)
	}
	if dangling.EvidenceID != "ev-2" {
		t.Errorf("EvidenceID = %q, want %q", dangling.EvidenceID, "ev-2")
	}
}

func TestRegisterDerivationChain(t *testing.T) {
	reg := New(storage.NewMemoryStorage())
	ctx := context.Background()

	if _, err := reg.Register(ctx, RegisterParams{
		ID: "ev-a", Fingerprint: fp("a"), SourceType: "cctv", Uploader: "u",
	}); err != nil {
		t.Fatalf("register ev-a: %v", err)
	}
	if _, err := reg.Register(ctx, RegisterParams{
		ID: "ev-b", Fingerprint: fp("b"), SourceType: "cctv", Uploader: "u",
		ParentFingerprint: fp("a"),
	}); err != nil {
		t.Fatalf("register ev-b: %v", err)
	}
	// Grandchild of a: still fine.
	if _, err := reg.Register(ctx, RegisterParams{
		ID: "ev-c", Fingerprint: fp("c"), SourceType: "cctv", Uploader: "u",
		ParentFingerprint: fp("b"),
	}); err != nil {
		t.Fatalf("register ev-c: %v", err)
	}
}

func TestRegisterDerivationCycle(t *testing.T) {
	reg := New(storage.NewMemoryStorage())
	ctx := context.Background()

	if _, err := reg.Register(ctx, RegisterParams{
		ID: "ev-a", Fingerprint: fp("a"), SourceType: "cctv", Uploader: "u",
	}); err != nil {
		t.Fatalf("register ev-a: %v", err)
	}
	if _, err := reg.Register(ctx, RegisterParams{
		ID: "ev-b", Fingerprint: fp("b"), SourceType: "cctv", Uploader: "u",
		ParentFingerprint: fp("a"),
	}); err != nil {
		t.Fatalf("register ev-b: %v", err)
	}

	// A record carrying ev-a's fingerprint that claims descent from ev-b
	// would make ev-a its own ancestor.
	_, err := reg.Register(ctx, RegisterParams{
		ID: "ev-cycle", Fingerprint: fp("a"), SourceType: "cctv", Uploader: "u",
		ParentFingerprint: fp("b"),
	})
	var cycle *custody.DerivationCycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("Register() error = %v, want DerivationCycleError", err)
	}
}

func TestRegisterSelfParent(t *testing.T) {
	reg := New(storage.NewMemoryStorage())
	ctx := context.Background()

	if _, err := reg.Register(ctx, RegisterParams{
		ID: "ev-a", Fingerprint: fp("a"), SourceType: "cctv", Uploader: "u",
	}); err != nil {
		t.Fatalf("register ev-a: %v", err)
	}

	// Same fingerprint declaring itself as parent closes a length-1 cycle.
	_, err := reg.Register(ctx, RegisterParams{
		ID: "ev-self", Fingerprint: fp("a"), SourceType: "cctv", Uploader: "u",
		ParentFingerprint: fp("a"),
	})
	var cycle *custody.DerivationCycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("Register() error = %v, want DerivationCycleError", err)
	}
}

func TestGetNotFound(t *testing.T) {
	reg := New(storage.NewMemoryStorage())

	_, err := reg.Get(context.Background(), "missing")
	var notFound *custody.EvidenceNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Get() error = %v, want EvidenceNotFoundError", err)
	}
}

func TestSetScore(t *testing.T) {
	store := storage.NewMemoryStorage()
	reg := New(store)
	ctx := context.Background()

	if _, err := reg.Register(ctx, RegisterParams{
		ID: "ev-1", Fingerprint: fp("clip"), SourceType: "cctv", Uploader: "u",
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := reg.SetScore(ctx, "ev-1", 90); err != nil {
		t.Fatalf("SetScore() error = %v", err)
	}

	record, err := reg.Get(ctx, "ev-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if record.AdmissibilityScore == nil || *record.AdmissibilityScore != 90 {
		t.Errorf("AdmissibilityScore = %v, want 90", record.AdmissibilityScore)
	}
}

func TestSetScoreNotFound(t *testing.T) {
	reg := New(storage.NewMemoryStorage())

	err := reg.SetScore(context.Background(), "missing", 50)
	var notFound *custody.EvidenceNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("SetScore() error = %v, want EvidenceNotFoundError", err)
	}
}

func TestListIDs(t *testing.T) {
	reg := New(storage.NewMemoryStorage())
	ctx := context.Background()

	for _, id := range []string{"ev-1", "ev-2", "ev-3"} {
		if _, err := reg.Register(ctx, RegisterParams{
			ID: id, Fingerprint: fp(id), SourceType: "cctv", Uploader: "u",
		}); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}

	ids, err := reg.ListIDs(ctx)
	if err != nil {
		t.Fatalf("ListIDs() error = %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("len(ids) = %d, want 3", len(ids))
	}
}

// flakyEvidenceStore fails the first N writes with a StorageError.
type flakyEvidenceStore struct {
	custody.EvidenceStore
	failures int
}

func (s *flakyEvidenceStore) Put(ctx context.Context, record *custody.EvidenceRecord) error {
	if s.failures > 0 {
		s.failures--
		return custody.NewStorageError("memory", "put", errors.New("transient failure"))
	}
	return s.EvidenceStore.Put(ctx, record)
}

func TestRegisterRetriesTransientFailure(t *testing.T) {
	store := &flakyEvidenceStore{EvidenceStore: storage.NewMemoryStorage(), failures: 1}
	reg := New(store)

	_, err := reg.Register(context.Background(), RegisterParams{
		ID: "ev-1", Fingerprint: fp("clip"), SourceType: "cctv", Uploader: "u",
	})
	if err != nil {
		t.Fatalf("Register() should succeed on retry, got %v", err)
	}
}

func TestRegisterSurfacesPersistentFailure(t *testing.T) {
	store := &flakyEvidenceStore{EvidenceStore: storage.NewMemoryStorage(), failures: 2}
	reg := New(store)

	_, err := reg.Register(context.Background(), RegisterParams{
		ID: "ev-1", Fingerprint: fp("clip"), SourceType: "cctv", Uploader: "u",
	})
	var storageErr *custody.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("Register() error = %v, want StorageError after failed retry", err)
	}
}

func TestWithClock(t *testing.T) {
	fixed := time.Date(2031, 3, 14, 9, 26, 53, 0, time.UTC)
	reg := New(storage.NewMemoryStorage(), WithClock(func() time.Time { return fixed }))

	record, err := reg.Register(context.Background(), RegisterParams{
		ID: "ev-1", Fingerprint: fp("clip"), SourceType: "cctv", Uploader: "u",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if !record.RegisteredAt.Equal(fixed) {
		t.Errorf("RegisteredAt = %v, want %v", record.RegisteredAt, fixed)
	}
}
