package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the custody database schema.
// Column names follow the record field names so any reporting layer built on
// top of the database can consume them directly.
const Schema = `
-- Evidence table: one row per registered evidence item
CREATE TABLE IF NOT EXISTS evidence (
    id TEXT PRIMARY KEY,
    fingerprint TEXT NOT NULL,
    sourceType TEXT NOT NULL,
    uploader TEXT NOT NULL,
    parentFingerprint TEXT,
    metadata TEXT,
    admissibilityScore INTEGER,
    registeredAt TIMESTAMP NOT NULL
);

-- Append-only custody log, ordered by (evidenceId, seq)
CREATE TABLE IF NOT EXISTS custody_log (
    entryId TEXT PRIMARY KEY,
    evidenceId TEXT NOT NULL,
    seq INTEGER NOT NULL,
    action TEXT NOT NULL,
    actor TEXT NOT NULL,
    detail TEXT,
    timestamp TIMESTAMP NOT NULL,
    UNIQUE (evidenceId, seq)
);

-- Cases and their evidence membership
CREATE TABLE IF NOT EXISTS cases (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    createdBy TEXT NOT NULL,
    createdAt TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS case_evidence (
    caseId TEXT NOT NULL,
    evidenceId TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (caseId, evidenceId)
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common lookups
CREATE INDEX IF NOT EXISTS idx_evidence_fingerprint ON evidence(fingerprint);
CREATE INDEX IF NOT EXISTS idx_custody_log_evidence ON custody_log(evidenceId, seq);
CREATE INDEX IF NOT EXISTS idx_case_evidence_case ON case_evidence(caseId, position);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
