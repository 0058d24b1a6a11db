/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"agentcanvas/internal/domain"
	"agentcanvas/internal/storage"
)

func silenceStderr(t *testing.T) {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stderr = w
	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(io.Discard, r)
		close(done)
	}()
	t.Cleanup(func() {
		_ = w.Close()
		<-done
		os.Stderr = old
	})
}

func findBackup(t *testing.T, dir, prefix, suffix string) string {
	t.Helper()
	bdir := filepath.Join(dir, storage.BackupsDirName)
	files, _ := os.ReadDir(bdir)
	for _, f := range files {
		if strings.HasPrefix(f.Name(), prefix) && strings.HasSuffix(f.Name(), suffix) {
			return filepath.Join(bdir, f.Name())
		}
	}
	return ""
}

// Recover must write a report and an autosave of the live document and call exitFn(2).
func TestRecover_WritesReportAndAutosave(t *testing.T) {
	silenceStderr(t)

	called := 0
	oldExit := exitFn
	exitFn = func(code int) { called = code }
	defer func() { exitFn = oldExit }()

	dir := t.TempDir()
	saved := domain.NewDocument("Plan", time.Now())
	h := &storage.BoardHandle{Path: filepath.Join(dir, "plan.acv.json"), Dir: dir, Doc: saved}
	live := func() domain.Document {
		d := saved
		d.Elements = []domain.Element{{ID: "node-1", Type: "node"}}
		return d
	}

	func() {
		defer Recover(h, live)
		panic("boom")
	}()

	if called != 2 {
		t.Fatalf("expected exit code 2, got %d", called)
	}
	report := findBackup(t, dir, "crash-", ".log")
	if report == "" {
		t.Fatalf("expected crash report file under backups dir")
	}
	b, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.Contains(b, []byte("Panic: boom")) || !bytes.Contains(b, []byte("Elements: 1")) {
		t.Fatalf("report content unexpected: %s", string(b))
	}

	snap := findBackup(t, dir, "plan.acv.json.crash-", ".json")
	if snap == "" {
		t.Fatalf("expected autosave snapshot")
	}
	raw, _ := os.ReadFile(snap)
	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("snapshot json: %v", err)
	}
	if len(doc.Elements) != 1 || doc.Elements[0].ID != "node-1" {
		t.Fatalf("autosave should hold the live elements, got %+v", doc.Elements)
	}
}

func TestRecover_LiveDocumentPanics(t *testing.T) {
	silenceStderr(t)
	oldExit := exitFn
	exitFn = func(int) {}
	defer func() { exitFn = oldExit }()

	dir := t.TempDir()
	h := &storage.BoardHandle{Path: filepath.Join(dir, "b.acv.json"), Dir: dir, Doc: domain.NewDocument("B", time.Now())}
	func() {
		defer Recover(h, func() domain.Document { panic("again") })
		panic("first")
	}()
	if h.Doc.Name != "B" {
		t.Fatalf("saved document should be kept, got %q", h.Doc.Name)
	}
	if findBackup(t, dir, "b.acv.json.crash-", ".json") == "" {
		t.Fatalf("expected autosave snapshot of the saved state")
	}
}

func TestRecover_NoPanicIsNoop(t *testing.T) {
	called := false
	oldExit := exitFn
	exitFn = func(int) { called = true }
	defer func() { exitFn = oldExit }()
	func() {
		defer Recover(nil, nil)
	}()
	if called {
		t.Fatalf("exit must not be called without a panic")
	}
}

func TestGuard_RecoversTrackedBoard(t *testing.T) {
	silenceStderr(t)
	called := 0
	oldExit := exitFn
	exitFn = func(code int) { called = code }
	defer func() { exitFn = oldExit }()

	dir := t.TempDir()
	var g Guard
	func() {
		defer g.Recover()
		h := &storage.BoardHandle{Path: filepath.Join(dir, "g.acv.json"), Dir: dir, Doc: domain.NewDocument("G", time.Now())}
		g.Track(h, nil)
		panic("late")
	}()
	if called != 2 {
		t.Fatalf("expected exit code 2, got %d", called)
	}
	if findBackup(t, dir, "g.acv.json.crash-", ".json") == "" {
		t.Fatalf("expected autosave of the tracked board")
	}
}
