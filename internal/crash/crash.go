/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report plus an autosave of the open board.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"agentcanvas/internal/domain"
	applog "agentcanvas/internal/log"
	"agentcanvas/internal/storage"
	"agentcanvas/internal/telemetry"
	"agentcanvas/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// LiveDocument returns the in-memory state of the board, which may be ahead of h.Doc.
type LiveDocument func() domain.Document

// Recover captures a panic, logs an error with stacktrace,
// writes an error report file, and attempts a crash-safe autosave
// of the open board (if provided). live may be nil.
//
// Usage: defer crash.Recover(h, live)
func Recover(h *storage.BoardHandle, live LiveDocument) {
	if r := recover(); r != nil {
		handle(r, h, live)
	}
}

// Guard tracks the board that is open right now, for hosts that open and
// close boards after their deferred Recover was set up.
//
// Usage: defer g.Recover()
type Guard struct {
	mu   sync.Mutex
	h    *storage.BoardHandle
	live LiveDocument
}

// Track sets the board to autosave on a crash; a nil handle clears it.
func (g *Guard) Track(h *storage.BoardHandle, live LiveDocument) {
	g.mu.Lock()
	g.h, g.live = h, live
	g.mu.Unlock()
}

// Recover behaves like the package Recover for the tracked board.
func (g *Guard) Recover() {
	if r := recover(); r != nil {
		g.mu.Lock()
		h, live := g.h, g.live
		g.mu.Unlock()
		handle(r, h, live)
	}
}

func handle(r any, h *storage.BoardHandle, live LiveDocument) {
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	if h != nil && live != nil {
		refresh(h, live, l)
	}
	reportPath, err := writeReport(h, r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if h != nil {
		if path, err := storage.AutosaveCrashSnapshot(h); err != nil {
			l.Error("autosave crash snapshot failed", slog.Any("err", err))
		} else {
			l.Info("autosave crash snapshot written", slog.String("path", path))
		}
	}

	if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	_, _ = fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

// refresh copies the live document into h. A second panic keeps the last saved state.
func refresh(h *storage.BoardHandle, live LiveDocument, l *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			l.Warn("live document unavailable, autosaving last saved state", slog.Any("panic", r))
		}
	}()
	h.Doc = live()
}

func writeReport(h *storage.BoardHandle, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if h != nil && h.Dir != "" {
		dir = filepath.Join(h.Dir, storage.BackupsDirName)
		_ = os.MkdirAll(dir, 0o755)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "agentcanvas Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if h != nil {
		_, _ = fmt.Fprintf(&buf, "Board: %s\n", h.Path)
		_, _ = fmt.Fprintf(&buf, "Name: %s\n", h.Doc.Name)
		_, _ = fmt.Fprintf(&buf, "Elements: %d\n", len(h.Doc.Elements))
		_, _ = fmt.Fprintf(&buf, "View: pan=(%g,%g) zoom=%g\n", h.Doc.View.Pan.X, h.Doc.View.Pan.Y, h.Doc.View.Zoom)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, fmt.Errorf("write crash report: %w", err)
	}

	// optionally upload the crash report (opt-in via env)
	telemetry.UploadCrash(buf.Bytes())
	return path, nil
}
