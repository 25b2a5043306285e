// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"github.com/danielhkuo/recruit-feasibility/db"
	"github.com/danielhkuo/recruit-feasibility/models"
)

var ErrNotFound = errors.New("session not found")

// Store persists wizard state by session ID.
type Store interface {
	Load(ctx context.Context, id string) (*models.WizardState, error)
	Save(ctx context.Context, id string, state *models.WizardState) error
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// SQLStore keeps each session as a JSON document in wizard_session.
type SQLStore struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

func NewSQLStore(conn *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: conn, driver: driver, now: time.Now}
}

// Load returns ErrNotFound when the session has never been saved or has
// been purged.
func (s *SQLStore) Load(ctx context.Context, id string) (*models.WizardState, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		db.Rebind(s.driver, `SELECT state FROM wizard_session WHERE id = ?`), id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "session: load")
	}

	state := models.NewWizardState()
	if err := json.Unmarshal([]byte(raw), state); err != nil {
		return nil, eris.Wrapf(err, "session: decode %s", id)
	}
	if state.Status == nil {
		state.Status = map[string]string{}
	}
	return state, nil
}

func (s *SQLStore) Save(ctx context.Context, id string, state *models.WizardState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return eris.Wrap(err, "session: encode")
	}
	now := db.FormatTime(s.now())
	_, err = s.db.ExecContext(ctx, db.Rebind(s.driver, `
		INSERT INTO wizard_session (id, state, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at
	`), id, string(raw), now, now)
	return eris.Wrap(err, "session: save")
}

// Purge deletes sessions not saved since before and returns how many.
func (s *SQLStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		db.Rebind(s.driver, `DELETE FROM wizard_session WHERE updated_at < ?`), db.FormatTime(before))
	if err != nil {
		return 0, eris.Wrap(err, "session: purge")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "session: purge rows")
}
