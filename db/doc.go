// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Connecting

Open accepts the two supported drivers, sqlite (modernc.org/sqlite) and
postgres (lib/pq), and pings before returning:

	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)

SQLite connections run in WAL mode with a busy timeout and a single open
connection.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(ctx, conn); err != nil {
		return err
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - wizard_session: One row per researcher session, state stored as JSON
  - submission: Submitted feasibility requests awaiting review

	wizard_session 1──* submission (by session_id)

# Placeholders

Queries are written with ? placeholders. Rebind converts them for
postgres:

	q := db.Rebind(cfg.DatabaseType, `SELECT state FROM wizard_session WHERE id = ?`)
	// postgres: SELECT state FROM wizard_session WHERE id = $1
*/
package db
