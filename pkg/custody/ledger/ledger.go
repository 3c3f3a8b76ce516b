package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"custodia-hq/custodia/pkg/custody"
)

// sequence tracks append state for one evidence id. Guarded by its own
// mutex so distinct ids append concurrently.
type sequence struct {
	mu      sync.Mutex
	seeded  bool
	lastSeq int64
	lastTS  time.Time
}

// Ledger is the append-only custody log. It is safe for concurrent use.
type Ledger struct {
	store  custody.EventStore
	now    func() time.Time
	logger *slog.Logger

	mu        sync.Mutex
	sequences map[string]*sequence
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the ledger's time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates a ledger backed by the given event store.
func New(store custody.EventStore, opts ...Option) *Ledger {
	l := &Ledger{
		store:     store,
		now:       time.Now,
		logger:    slog.Default().With("component", "custody.ledger"),
		sequences: make(map[string]*sequence),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// sequenceFor returns the sequence state for an evidence id, creating it on
// first use. Only the map lookup holds the ledger-wide lock.
func (l *Ledger) sequenceFor(evidenceID string) *sequence {
	l.mu.Lock()
	defer l.mu.Unlock()

	seq, ok := l.sequences[evidenceID]
	if !ok {
		seq = &sequence{}
		l.sequences[evidenceID] = seq
	}
	return seq
}

// Append records one custody event for an evidence id and returns the
// persisted event. The entry id is a fresh UUID; the sequence number and
// timestamp are assigned under the id's lock so that timeline order equals
// append order with non-decreasing timestamps, even under clock skew.
//
// Append does not check that the evidence id is registered; the service
// layer validates existence on the operations that need it.
func (l *Ledger) Append(ctx context.Context, evidenceID string, action custody.Action, actor, detail string) (*custody.CustodyEvent, error) {
	if !action.IsValid() {
		return nil, fmt.Errorf("unknown custody action %q", action)
	}

	seq := l.sequenceFor(evidenceID)
	seq.mu.Lock()
	defer seq.mu.Unlock()

	if !seq.seeded {
		last, err := l.store.LastEvent(ctx, evidenceID)
		if err != nil {
			return nil, err
		}
		if last != nil {
			seq.lastSeq = last.Seq
			seq.lastTS = last.Timestamp
		}
		seq.seeded = true
	}

	ts := l.now().UTC()
	if ts.Before(seq.lastTS) {
		ts = seq.lastTS
	}

	event := &custody.CustodyEvent{
		EntryID:    uuid.New().String(),
		EvidenceID: evidenceID,
		Seq:        seq.lastSeq + 1,
		Action:     action,
		Actor:      actor,
		Detail:     detail,
		Timestamp:  ts,
	}

	err := custody.RetryStorage(func() error {
		return l.store.Append(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	seq.lastSeq = event.Seq
	seq.lastTS = event.Timestamp

	l.logger.Debug("custody event appended",
		"evidence_id", evidenceID,
		"action", string(action),
		"actor", actor,
		"seq", event.Seq,
	)

	cp := *event
	return &cp, nil
}

// Timeline returns every custody event for an evidence id in append order.
// An id with no recorded actions yields an empty slice, not an error.
func (l *Ledger) Timeline(ctx context.Context, evidenceID string) ([]*custody.CustodyEvent, error) {
	return l.store.Timeline(ctx, evidenceID)
}
