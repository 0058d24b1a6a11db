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
	"os"
	"path/filepath"
)

// AutosaveCrashSnapshot writes the in-memory document to a crash file in the
// backups folder without touching the board file, and returns its path.
// It skips validation: a crashing editor may hold a document Save would refuse.
func AutosaveCrashSnapshot(h *BoardHandle) (string, error) {
	if h == nil {
		return "", errors.New("nil BoardHandle")
	}
	dir := h.Dir
	if dir == "" {
		dir = filepath.Dir(h.Path)
	}
	bdir := filepath.Join(dir, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	data, err := json.MarshalIndent(h.Doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal board: %w", err)
	}
	stamp := now().Format("20060102-150405")
	path := filepath.Join(bdir, fmt.Sprintf("%s.crash-%s.json", filepath.Base(h.Path), stamp))
	if err := writeFileSync(path, append(data, '\n')); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return path, nil
}
