package archive

// schemaSQL defines the three archive tables.
//
// Payload columns from the upstream export are stored as one canonical JSON
// object per row; bookkeeping columns are first-class so constraints and
// indexes can see them. current is unique on material_id (exactly one
// active row per item), history on row_id only (one row per superseded
// version), final_data on material_id (reviewer-facing, no versioning).
const schemaSQL = `
CREATE TABLE IF NOT EXISTS current (
    row_id                TEXT PRIMARY KEY,
    material_id           TEXT NOT NULL UNIQUE,
    faculty               TEXT NOT NULL DEFAULT '',
    payload               TEXT NOT NULL DEFAULT '{}',
    retrieved_from_source TEXT NOT NULL DEFAULT '',
    last_modified         TEXT NOT NULL,
    previous_version      TEXT,
    workflow_status       TEXT NOT NULL DEFAULT '',
    workflow_remarks      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_current_faculty ON current(faculty);

CREATE TABLE IF NOT EXISTS history (
    row_id                TEXT PRIMARY KEY,
    material_id           TEXT NOT NULL,
    faculty               TEXT NOT NULL DEFAULT '',
    payload               TEXT NOT NULL DEFAULT '{}',
    retrieved_from_source TEXT NOT NULL DEFAULT '',
    last_modified         TEXT NOT NULL,
    previous_version      TEXT,
    workflow_status       TEXT NOT NULL DEFAULT '',
    workflow_remarks      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_history_material ON history(material_id);

CREATE TABLE IF NOT EXISTS final_data (
    material_id           TEXT PRIMARY KEY,
    faculty               TEXT NOT NULL DEFAULT '',
    payload               TEXT NOT NULL DEFAULT '{}',
    retrieved_from_source TEXT NOT NULL DEFAULT '',
    last_modified         TEXT NOT NULL,
    workflow_status       TEXT NOT NULL DEFAULT '',
    workflow_remarks      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_final_faculty ON final_data(faculty);
`
