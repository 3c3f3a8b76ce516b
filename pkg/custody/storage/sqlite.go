package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // driver "sqlite3" (cgo)
	_ "modernc.org/sqlite"          // driver "sqlite" (pure Go)

	"custodia-hq/custodia/pkg/custody"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver selects the SQL driver: "sqlite3" (mattn, cgo) or
	// "sqlite" (modernc, pure Go). Default: "sqlite3".
	Driver string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/custody.db",
		Driver:       "sqlite3",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements the custody store interfaces using SQLite. All
// writes run in transactions so a crash mid-write never leaves a partially
// visible record or event.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage creates a new SQLite storage backend.
// It initializes the database schema and enables WAL mode if configured.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = "sqlite3"
	}

	logger := slog.Default().With("component", "custody.storage.sqlite")

	db, err := sql.Open(config.Driver, config.Path)
	if err != nil {
		return nil, custody.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", config.Path,
		"driver", config.Driver,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return custody.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return custody.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return custody.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return custody.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return custody.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return custody.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure. Both drivers surface the engine's message text, so a substring
// check works without importing driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Put persists a new evidence record in a single transaction. The primary
// key on the id column makes registration first-writer-wins: a concurrent
// insert with the same id fails with *custody.DuplicateEvidenceIDError.
func (s *SQLiteStorage) Put(ctx context.Context, record *custody.EvidenceRecord) error {
	metadata, err := json.Marshal(record.Metadata)
	if err != nil {
		return custody.NewStorageError("sqlite", "put", err)
	}

	var parent interface{}
	if record.ParentFingerprint != "" {
		parent = record.ParentFingerprint
	}
	var score interface{}
	if record.AdmissibilityScore != nil {
		score = *record.AdmissibilityScore
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO evidence (
			id, fingerprint, sourceType, uploader,
			parentFingerprint, metadata, admissibilityScore, registeredAt
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID, record.Fingerprint, record.SourceType, record.Uploader,
		parent, string(metadata), score, record.RegisteredAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return custody.NewDuplicateEvidenceIDError(record.ID)
		}
		return custody.NewStorageError("sqlite", "put", err)
	}

	return nil
}

// Get retrieves an evidence record by id, or (nil, nil) if absent.
func (s *SQLiteStorage) Get(ctx context.Context, id string) (*custody.EvidenceRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, fingerprint, sourceType, uploader,
		       parentFingerprint, metadata, admissibilityScore, registeredAt
		FROM evidence WHERE id = ?
	`, id)
	return s.scanEvidence(row)
}

// GetByFingerprint retrieves a record whose fingerprint matches exactly,
// or (nil, nil) if none does.
func (s *SQLiteStorage) GetByFingerprint(ctx context.Context, fingerprint string) (*custody.EvidenceRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, fingerprint, sourceType, uploader,
		       parentFingerprint, metadata, admissibilityScore, registeredAt
		FROM evidence WHERE fingerprint = ? LIMIT 1
	`, fingerprint)
	return s.scanEvidence(row)
}

// scanEvidence scans a single evidence row.
func (s *SQLiteStorage) scanEvidence(row *sql.Row) (*custody.EvidenceRecord, error) {
	var record custody.EvidenceRecord
	var parent sql.NullString
	var metadata sql.NullString
	var score sql.NullInt64

	err := row.Scan(
		&record.ID, &record.Fingerprint, &record.SourceType, &record.Uploader,
		&parent, &metadata, &score, &record.RegisteredAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, custody.NewStorageError("sqlite", "scan", err)
	}

	if parent.Valid {
		record.ParentFingerprint = parent.String
	}
	if metadata.Valid && metadata.String != "" && metadata.String != "null" {
		if err := json.Unmarshal([]byte(metadata.String), &record.Metadata); err != nil {
			return nil, custody.NewStorageError("sqlite", "scan", err)
		}
	}
	if score.Valid {
		v := int(score.Int64)
		record.AdmissibilityScore = &v
	}

	return &record, nil
}

// UpdateScore sets the admissibility score for an existing record.
func (s *SQLiteStorage) UpdateScore(ctx context.Context, id string, score int) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE evidence SET admissibilityScore = ? WHERE id = ?`, score, id)
	if err != nil {
		return false, custody.NewStorageError("sqlite", "update_score", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, custody.NewStorageError("sqlite", "update_score", err)
	}
	return affected > 0, nil
}

// ListIDs returns the ids of all registered records.
func (s *SQLiteStorage) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM evidence`)
	if err != nil {
		return nil, custody.NewStorageError("sqlite", "list_ids", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, custody.NewStorageError("sqlite", "list_ids", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, custody.NewStorageError("sqlite", "list_ids", err)
	}
	return ids, nil
}

// Append persists one custody event. The insert is a single statement and
// therefore atomic; the unique (evidenceId, seq) constraint rejects any
// sequencing race instead of silently reordering the log.
func (s *SQLiteStorage) Append(ctx context.Context, event *custody.CustodyEvent) error {
	var detail interface{}
	if event.Detail != "" {
		detail = event.Detail
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO custody_log (entryId, evidenceId, seq, action, actor, detail, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		event.EntryID, event.EvidenceID, event.Seq,
		string(event.Action), event.Actor, detail, event.Timestamp,
	)
	if err != nil {
		return custody.NewStorageError("sqlite", "append", err)
	}
	return nil
}

// Timeline returns all events for an evidence id ordered by seq ascending.
func (s *SQLiteStorage) Timeline(ctx context.Context, evidenceID string) ([]*custody.CustodyEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entryId, evidenceId, seq, action, actor, detail, timestamp
		FROM custody_log WHERE evidenceId = ? ORDER BY seq ASC
	`, evidenceID)
	if err != nil {
		return nil, custody.NewStorageError("sqlite", "timeline", err)
	}
	defer rows.Close()

	timeline := []*custody.CustodyEvent{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		timeline = append(timeline, event)
	}
	if err := rows.Err(); err != nil {
		return nil, custody.NewStorageError("sqlite", "timeline", err)
	}
	return timeline, nil
}

// LastEvent returns the most recently appended event for an evidence id,
// or (nil, nil) if none exist.
func (s *SQLiteStorage) LastEvent(ctx context.Context, evidenceID string) (*custody.CustodyEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entryId, evidenceId, seq, action, actor, detail, timestamp
		FROM custody_log WHERE evidenceId = ? ORDER BY seq DESC LIMIT 1
	`, evidenceID)
	if err != nil {
		return nil, custody.NewStorageError("sqlite", "last_event", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, custody.NewStorageError("sqlite", "last_event", err)
		}
		return nil, nil
	}
	return scanEvent(rows)
}

// scanEvent scans a custody log row.
func scanEvent(rows *sql.Rows) (*custody.CustodyEvent, error) {
	var event custody.CustodyEvent
	var action string
	var detail sql.NullString

	err := rows.Scan(
		&event.EntryID, &event.EvidenceID, &event.Seq,
		&action, &event.Actor, &detail, &event.Timestamp,
	)
	if err != nil {
		return nil, custody.NewStorageError("sqlite", "scan", err)
	}

	event.Action = custody.Action(action)
	if detail.Valid {
		event.Detail = detail.String
	}
	return &event, nil
}

// PutCase persists a new case and its initial members in one transaction.
func (s *SQLiteStorage) PutCase(ctx context.Context, c *custody.Case) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return custody.NewStorageError("sqlite", "put_case", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cases (id, title, createdBy, createdAt) VALUES (?, ?, ?, ?)
	`, c.ID, c.Title, c.CreatedBy, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return custody.NewStorageError("sqlite", "put_case",
				fmt.Errorf("case %q already exists", c.ID))
		}
		return custody.NewStorageError("sqlite", "put_case", err)
	}

	for i, evidenceID := range c.EvidenceIDs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO case_evidence (caseId, evidenceId, position) VALUES (?, ?, ?)
		`, c.ID, evidenceID, i+1)
		if err != nil {
			return custody.NewStorageError("sqlite", "put_case", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return custody.NewStorageError("sqlite", "put_case", err)
	}
	return nil
}

// GetCase retrieves a case and its members, or (nil, nil) if absent.
func (s *SQLiteStorage) GetCase(ctx context.Context, id string) (*custody.Case, error) {
	var c custody.Case
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, createdBy, createdAt FROM cases WHERE id = ?
	`, id).Scan(&c.ID, &c.Title, &c.CreatedBy, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, custody.NewStorageError("sqlite", "get_case", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT evidenceId FROM case_evidence WHERE caseId = ? ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, custody.NewStorageError("sqlite", "get_case", err)
	}
	defer rows.Close()

	c.EvidenceIDs = []string{}
	for rows.Next() {
		var evidenceID string
		if err := rows.Scan(&evidenceID); err != nil {
			return nil, custody.NewStorageError("sqlite", "get_case", err)
		}
		c.EvidenceIDs = append(c.EvidenceIDs, evidenceID)
	}
	if err := rows.Err(); err != nil {
		return nil, custody.NewStorageError("sqlite", "get_case", err)
	}

	return &c, nil
}

// AddCaseEvidence appends an evidence id to a case's member list. The
// primary key on (caseId, evidenceId) makes re-adding a member a no-op.
func (s *SQLiteStorage) AddCaseEvidence(ctx context.Context, caseID, evidenceID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO case_evidence (caseId, evidenceId, position)
		VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM case_evidence WHERE caseId = ?))
	`, caseID, evidenceID, caseID)
	if err != nil {
		return custody.NewStorageError("sqlite", "add_case_evidence", err)
	}
	return nil
}

// Close releases resources held by the storage backend.
// Ping reports whether the database is reachable.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return custody.NewStorageError("sqlite", "ping", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return custody.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite storage closed")
	return nil
}
