package storage

import (
	"context"
	"fmt"
	"sync"

	"custodia-hq/custodia/pkg/custody"
)

// MemoryStorage implements the custody store interfaces using in-memory
// maps. This implementation is intended for testing and ephemeral tooling;
// nothing survives process restart.
type MemoryStorage struct {
	mu       sync.RWMutex
	records  map[string]*custody.EvidenceRecord
	events   map[string][]*custody.CustodyEvent // evidenceID -> append order
	cases    map[string]*custody.Case
	caseSeen map[string]map[string]bool // caseID -> evidenceID set
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records:  make(map[string]*custody.EvidenceRecord),
		events:   make(map[string][]*custody.CustodyEvent),
		cases:    make(map[string]*custody.Case),
		caseSeen: make(map[string]map[string]bool),
	}
}

// Put persists a new evidence record. The check-and-insert happens under a
// single lock, so exactly one concurrent Put for a given id succeeds.
func (s *MemoryStorage) Put(ctx context.Context, record *custody.EvidenceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return custody.NewDuplicateEvidenceIDError(record.ID)
	}
	s.records[record.ID] = record.Clone()
	return nil
}

// Get retrieves an evidence record by id, or (nil, nil) if absent.
func (s *MemoryStorage) Get(ctx context.Context, id string) (*custody.EvidenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	return record.Clone(), nil
}

// GetByFingerprint retrieves a record whose fingerprint matches exactly,
// or (nil, nil) if none does.
func (s *MemoryStorage) GetByFingerprint(ctx context.Context, fingerprint string) (*custody.EvidenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.records {
		if record.Fingerprint == fingerprint {
			return record.Clone(), nil
		}
	}
	return nil, nil
}

// UpdateScore sets the admissibility score for an existing record.
func (s *MemoryStorage) UpdateScore(ctx context.Context, id string, score int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return false, nil
	}
	record.AdmissibilityScore = &score
	return true, nil
}

// ListIDs returns the ids of all registered records.
func (s *MemoryStorage) ListIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	return ids, nil
}

// Append persists one custody event in append order.
func (s *MemoryStorage) Append(ctx context.Context, event *custody.CustodyEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *event
	s.events[event.EvidenceID] = append(s.events[event.EvidenceID], &cp)
	return nil
}

// Timeline returns all events for an evidence id in append order. An id
// with no events yields an empty slice.
func (s *MemoryStorage) Timeline(ctx context.Context, evidenceID string) ([]*custody.CustodyEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.events[evidenceID]
	timeline := make([]*custody.CustodyEvent, 0, len(stored))
	for _, event := range stored {
		cp := *event
		timeline = append(timeline, &cp)
	}
	return timeline, nil
}

// LastEvent returns the most recently appended event for an evidence id,
// or (nil, nil) if none exist.
func (s *MemoryStorage) LastEvent(ctx context.Context, evidenceID string) (*custody.CustodyEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.events[evidenceID]
	if len(stored) == 0 {
		return nil, nil
	}
	cp := *stored[len(stored)-1]
	return &cp, nil
}

// PutCase persists a new case.
func (s *MemoryStorage) PutCase(ctx context.Context, c *custody.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.cases[c.ID]; exists {
		return custody.NewStorageError("memory", "put_case",
			fmt.Errorf("case %q already exists", c.ID))
	}
	s.cases[c.ID] = c.Clone()

	seen := make(map[string]bool, len(c.EvidenceIDs))
	for _, id := range c.EvidenceIDs {
		seen[id] = true
	}
	s.caseSeen[c.ID] = seen
	return nil
}

// GetCase retrieves a case by id, or (nil, nil) if absent.
func (s *MemoryStorage) GetCase(ctx context.Context, id string) (*custody.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cases[id]
	if !ok {
		return nil, nil
	}
	return c.Clone(), nil
}

// AddCaseEvidence appends an evidence id to a case's member list. Adding an
// already-present id is a no-op.
func (s *MemoryStorage) AddCaseEvidence(ctx context.Context, caseID, evidenceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[caseID]
	if !ok {
		return custody.NewCaseNotFoundError(caseID)
	}
	if s.caseSeen[caseID][evidenceID] {
		return nil
	}
	c.EvidenceIDs = append(c.EvidenceIDs, evidenceID)
	s.caseSeen[caseID][evidenceID] = true
	return nil
}

// Close releases resources held by the storage backend.
// Ping always succeeds; the maps are process-local.
func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*custody.EvidenceRecord)
	s.events = make(map[string][]*custody.CustodyEvent)
	s.cases = make(map[string]*custody.Case)
	s.caseSeen = make(map[string]map[string]bool)
	return nil
}

// Size returns the number of evidence records in storage (for testing).
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}
