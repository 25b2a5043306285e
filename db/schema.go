// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return eris.Wrap(err, "failed to create schema")
		}
	}
	return nil
}

// Column types are limited to TEXT and INTEGER so the same DDL runs on
// sqlite and postgres. Timestamps are RFC 3339 text.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS wizard_session (
    id TEXT PRIMARY KEY,
    state TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`,

	`CREATE TABLE IF NOT EXISTS submission (
    id TEXT PRIMARY KEY,
    reference TEXT NOT NULL UNIQUE,
    session_id TEXT NOT NULL,
    platform TEXT NOT NULL DEFAULT '',
    target INTEGER NOT NULL DEFAULT 0,
    available INTEGER NOT NULL,
    matched INTEGER NOT NULL,
    criteria TEXT NOT NULL,
    criteria_complete INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'submitted' CHECK (status IN ('submitted', 'approved', 'rejected')),
    reviewer TEXT,
    decision_note TEXT,
    ip_hash TEXT,
    submitted_at TEXT NOT NULL,
    decided_at TEXT
)`,

	`CREATE INDEX IF NOT EXISTS idx_submission_status ON submission(status)`,
	`CREATE INDEX IF NOT EXISTS idx_submission_session_id ON submission(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_submission_submitted_at ON submission(submitted_at)`,
	`CREATE INDEX IF NOT EXISTS idx_wizard_session_updated_at ON wizard_session(updated_at)`,
}
