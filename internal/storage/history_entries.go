/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// language=SQL
// dialect=SQLite
const insertHistorySQL = `INSERT INTO history(board, op, ts, blob) VALUES (?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestHistorySQL = `SELECT id, op, ts, blob FROM history WHERE board = ? ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listHistorySQL = `SELECT id, op, ts, blob FROM history WHERE board = ? ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneHistorySQL = `DELETE FROM history WHERE board = ? AND id NOT IN (
	SELECT id FROM history WHERE board = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// tsLayout is fixed width so text order in SQLite matches time order.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// HistoryEntry is one saved element snapshot.
type HistoryEntry struct {
	ID   int64
	Op   string
	TS   time.Time
	Blob []byte
}

// SaveHistory records a snapshot blob for the board with a timestamp.
func SaveHistory(ctx context.Context, h *BoardHandle, op string, blob []byte, ts time.Time) error {
	if h == nil {
		return errors.New("nil BoardHandle")
	}
	db, err := InitOrOpenHistory(h.Dir)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, insertHistorySQL, h.Key(), op, ts.UTC().Format(tsLayout), blob)
	return err
}

// LatestHistory returns the newest entry for the board; ok is false when there is none.
func LatestHistory(ctx context.Context, h *BoardHandle) (HistoryEntry, bool, error) {
	if h == nil {
		return HistoryEntry{}, false, errors.New("nil BoardHandle")
	}
	db, err := InitOrOpenHistory(h.Dir)
	if err != nil {
		return HistoryEntry{}, false, err
	}
	defer func() { _ = db.Close() }()
	e, err := scanEntry(db.QueryRowContext(ctx, selectLatestHistorySQL, h.Key()))
	if errors.Is(err, sql.ErrNoRows) {
		return HistoryEntry{}, false, nil
	}
	if err != nil {
		return HistoryEntry{}, false, err
	}
	return e, true, nil
}

// ListHistory returns up to limit most recent entries for the board, newest first.
func ListHistory(ctx context.Context, h *BoardHandle, limit int) ([]HistoryEntry, error) {
	if h == nil {
		return nil, errors.New("nil BoardHandle")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenHistory(h.Dir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listHistorySQL, h.Key(), limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []HistoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PruneHistory keeps at most keepLast entries for the board and deletes older ones.
func PruneHistory(ctx context.Context, h *BoardHandle, keepLast int) (int64, error) {
	if h == nil {
		return 0, errors.New("nil BoardHandle")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenHistory(h.Dir)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneHistorySQL, h.Key(), h.Key(), keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (HistoryEntry, error) {
	var e HistoryEntry
	var tsStr string
	if err := r.Scan(&e.ID, &e.Op, &tsStr, &e.Blob); err != nil {
		return HistoryEntry{}, err
	}
	// keep the blob even if the timestamp is unreadable
	e.TS, _ = time.Parse(time.RFC3339Nano, tsStr)
	return e, nil
}
