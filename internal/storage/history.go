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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "agentcanvas/internal/log"
	"agentcanvas/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// HistoryDirName stores per-folder history data next to the boards.
	HistoryDirName  = ".acv"
	HistoryFileName = "history.sqlite"

	// schemaVersion tracks the local SQLite schema.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2
)

// HistoryPath returns the history database path for boards stored in dir.
func HistoryPath(dir string) string {
	return filepath.Join(dir, HistoryDirName, HistoryFileName)
}

// InitOrOpenHistory ensures that the SQLite history exists at <dir>/.acv/history.sqlite,
// opens the database, enables WAL mode and brings the schema up to date.
// Callers close the returned *sql.DB.
func InitOrOpenHistory(dir string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "history_init").With(
		slog.String("dir", dir),
	)
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("board dir is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, HistoryDirName), 0o755); err != nil {
		l.Error("create .acv dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .acv dir: %w", err)
	}

	path := HistoryPath(dir)
	// Forward slashes for the SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureHistorySchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure history schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("history ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	ts := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// A fresh database starts at schema 1 and migrates up.
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, ts, ts); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, ts); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureHistorySchema creates the schema-1 tables.
func ensureHistorySchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS history (
		id    INTEGER PRIMARY KEY AUTOINCREMENT,
		board TEXT NOT NULL,
		op    TEXT NOT NULL,
		ts    TEXT NOT NULL,
		blob  BLOB NOT NULL
	);`)
	if err != nil {
		return fmt.Errorf("create history table: %w", err)
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// Do not downgrade
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_history_board_ts ON history(board, ts);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// DetectAndResetHistory checks the history database of dir and, if it cannot be
// opened or fails an integrity check, moves it to .acv/backups and starts an
// empty one. It reports whether a reset happened.
func DetectAndResetHistory(ctx context.Context, dir string) (bool, error) {
	path := HistoryPath(dir)
	db, err := InitOrOpenHistory(dir)
	if err == nil {
		needs := false
		var chk string
		if qerr := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); qerr != nil || !strings.Contains(strings.ToLower(chk), "ok") {
			needs = true
		}
		if !needs {
			if _, qerr := db.ExecContext(ctx, `SELECT 1 FROM history LIMIT 1;`); qerr != nil {
				needs = true
			}
		}
		_ = db.Close()
		if !needs {
			return false, nil
		}
	}
	applog.WithComponent("storage").Warn("history unusable, resetting", slog.String("path", path), slog.Any("err", err))
	backupHistoryFile(path)
	for _, suffix := range []string{"", "-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}
	fresh, ferr := InitOrOpenHistory(dir)
	if ferr != nil {
		return false, fmt.Errorf("recreate history: %w (open err: %v)", ferr, err)
	}
	return true, fresh.Close()
}

func backupHistoryFile(path string) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(path), stamp))
	if data, err := os.ReadFile(path); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}
