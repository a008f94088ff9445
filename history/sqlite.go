/*
 * sqlite.go, part of janus.
 *
 * Copyright 2024 The janus authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS steps (
	session TEXT NOT NULL,
	run     INTEGER NOT NULL,
	time    TEXT NOT NULL,
	scheme  TEXT NOT NULL,
	energy  REAL NOT NULL,
	record  TEXT NOT NULL,
	PRIMARY KEY (session, run)
);`

// SQLiteStore keeps one row per step. The scalar fields have their own columns,
// the full record is stored as JSON.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens, or creates, the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("history: creating directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("history: opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: creating schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file path.
func (S *SQLiteStore) Path() string { return S.path }

func (S *SQLiteStore) Save(ctx context.Context, r *Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("history: encoding run %d: %w", r.RunID, err)
	}
	_, err = S.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO steps (session, run, time, scheme, energy, record) VALUES (?, ?, ?, ?, ?, ?)`,
		r.Session, r.RunID, r.Time.UTC().Format("2006-01-02T15:04:05.000000000Z"), r.Scheme, r.Energy, string(data))
	if err != nil {
		return fmt.Errorf("history: saving run %d: %w", r.RunID, err)
	}
	return nil
}

func (S *SQLiteStore) Load(ctx context.Context, session string, runID int) (*Record, error) {
	var data string
	err := S.db.QueryRowContext(ctx, `SELECT record FROM steps WHERE session = ? AND run = ?`, session, runID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s run %d: %w", session, runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("history: loading run %d: %w", runID, err)
	}
	r := new(Record)
	if err := json.Unmarshal([]byte(data), r); err != nil {
		return nil, fmt.Errorf("history: decoding run %d: %w", runID, err)
	}
	return r, nil
}

func (S *SQLiteStore) List(ctx context.Context, session string) ([]*Record, error) {
	query := `SELECT record FROM steps ORDER BY session, run`
	args := []any{}
	if session != "" {
		query = `SELECT record FROM steps WHERE session = ? ORDER BY run`
		args = append(args, session)
	}
	rows, err := S.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: listing: %w", err)
	}
	defer rows.Close()
	var ret []*Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("history: listing: %w", err)
		}
		r := new(Record)
		if err := json.Unmarshal([]byte(data), r); err != nil {
			return nil, fmt.Errorf("history: decoding: %w", err)
		}
		ret = append(ret, r)
	}
	return ret, rows.Err()
}

func (S *SQLiteStore) Close() error {
	return S.db.Close()
}
