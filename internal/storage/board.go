/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"agentcanvas/internal/domain"
)

const BackupsDirName = "backups"

var (
	// ErrNotFound is returned when neither the board file nor a backup exists.
	ErrNotFound = errors.New("board not found")
	// ErrInvalidDocument marks board JSON that fails validation.
	ErrInvalidDocument = errors.New("invalid board document")
)

// now is the clock used for UpdatedAt and backup stamps.
var now = time.Now

// BoardHandle keeps track of a board loaded/saved from disk.
// Path is the board JSON file; backups and history live next to it in Dir.
type BoardHandle struct {
	Path string
	Dir  string
	Doc  domain.Document
	// Recovered is set when Open had to fall back to a backup.
	Recovered bool
}

// Key identifies the board in the history database.
func (h *BoardHandle) Key() string { return filepath.Base(h.Path) }

func newHandle(path string, doc domain.Document) *BoardHandle {
	return &BoardHandle{Path: path, Dir: filepath.Dir(path), Doc: doc}
}

// InitBoard creates a new board file at path (creating parent folders) and
// writes doc transactionally. An existing file is not overwritten.
func InitBoard(path string, doc domain.Document) (*BoardHandle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("board path is required")
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("board %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create board dir: %w", err)
	}
	if doc.Version == 0 {
		doc.Version = domain.DocumentVersion
	}
	if doc.Elements == nil {
		doc.Elements = []domain.Element{}
	}
	h := newHandle(path, doc)
	if err := Save(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Open loads an existing board. If the file cannot be read, parsed or
// validated, the latest backup is tried instead.
func Open(path string) (*BoardHandle, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		doc, berr := openFromLatestBackup(path)
		if berr != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
			}
			return nil, fmt.Errorf("open board: %w; backup attempt: %v", err, berr)
		}
		h := newHandle(path, *doc)
		h.Recovered = true
		return h, nil
	}
	doc, perr := decode(b)
	if perr != nil {
		bdoc, berr := openFromLatestBackup(path)
		if berr != nil {
			return nil, fmt.Errorf("parse board: %w; backup attempt: %v", perr, berr)
		}
		h := newHandle(path, *bdoc)
		h.Recovered = true
		return h, nil
	}
	return newHandle(path, doc), nil
}

func decode(b []byte) (domain.Document, error) {
	if err := Validate(b); err != nil {
		return domain.Document{}, err
	}
	var doc domain.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Elements == nil {
		doc.Elements = []domain.Element{}
	}
	return doc, nil
}

// Save writes h.Doc to disk with transactional semantics and a timestamped
// backup of the previous file (if present). UpdatedAt is stamped.
func Save(h *BoardHandle) error {
	if h == nil {
		return errors.New("nil BoardHandle")
	}
	if h.Path == "" {
		return errors.New("invalid BoardHandle: missing path")
	}
	if h.Dir == "" {
		h.Dir = filepath.Dir(h.Path)
	}
	if h.Doc.CreatedAt.IsZero() {
		h.Doc.CreatedAt = now().UTC()
	}
	h.Doc.UpdatedAt = now().UTC()
	// Marshal in human-readable form
	data, err := json.MarshalIndent(h.Doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal board: %w", err)
	}
	data = append(data, '\n')
	if err := Validate(data); err != nil {
		return err
	}

	bdir := filepath.Join(h.Dir, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}

	// If a current file exists, copy it to a timestamped backup before replacing
	if _, statErr := os.Stat(h.Path); statErr == nil {
		stamp := now().Format("20060102-150405.000000000")
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(h.Path), stamp))
		if cerr := copyFile(h.Path, bpath); cerr != nil {
			return fmt.Errorf("backup current board: %w", cerr)
		}
	}

	// Transactional write: to temp file in same directory, then rename over target
	base := filepath.Base(h.Path)
	temp := filepath.Join(h.Dir, fmt.Sprintf(".%s.tmp-%d-%d", base, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp board: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(h.Path); err == nil {
		_ = os.Remove(h.Path)
	}
	if rerr := os.Rename(temp, h.Path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace board: %w", rerr)
	}
	h.Recovered = false
	return nil
}

// SaveAs writes the board to a new path and updates the handle.
func SaveAs(h *BoardHandle, newPath string) error {
	if h == nil {
		return errors.New("nil BoardHandle")
	}
	if newPath == "" {
		return errors.New("new path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return fmt.Errorf("create board dir: %w", err)
	}
	h.Path = newPath
	h.Dir = filepath.Dir(newPath)
	return Save(h)
}

// Backups lists the backup files of the board at path, oldest first.
func Backups(path string) ([]string, error) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// openFromLatestBackup walks backups newest first and returns the first one that decodes.
func openFromLatestBackup(path string) (*domain.Document, error) {
	candidates, err := Backups(path)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, errors.New("no backups found")
	}
	var lastErr error
	for i := len(candidates) - 1; i >= 0; i-- {
		b, err := os.ReadFile(candidates[i])
		if err != nil {
			lastErr = fmt.Errorf("read backup: %w", err)
			continue
		}
		doc, err := decode(b)
		if err != nil {
			lastErr = fmt.Errorf("parse backup %s: %w", filepath.Base(candidates[i]), err)
			continue
		}
		return &doc, nil
	}
	return nil, lastErr
}
