/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestMultiEnabledIfAnyHandlerIs(t *testing.T) {
	var info, errs bytes.Buffer
	m := &multi{hs: []slog.Handler{
		&prettyTextHandler{level: slog.LevelInfo, w: &info, mu: &sync.Mutex{}},
		&prettyTextHandler{level: slog.LevelError, w: &errs, mu: &sync.Mutex{}},
	}}
	ctx := context.Background()
	if m.Enabled(ctx, slog.LevelDebug) {
		t.Fatalf("debug should be disabled on both handlers")
	}
	if !m.Enabled(ctx, slog.LevelInfo) || !m.Enabled(ctx, slog.LevelError) {
		t.Fatalf("info and error should be enabled")
	}

	l := slog.New(m)
	l.Info("autosaved")
	l.Error("save failed")
	if !strings.Contains(info.String(), "autosaved") || !strings.Contains(info.String(), "save failed") {
		t.Fatalf("info handler output = %q", info.String())
	}
	if strings.Contains(errs.String(), "autosaved") || !strings.Contains(errs.String(), "save failed") {
		t.Fatalf("error handler output = %q", errs.String())
	}
}

func TestNewWritesConsoleAndFileWithBoardContext(t *testing.T) {
	var console bytes.Buffer
	fpath := filepath.Join(t.TempDir(), "acv.log")
	l := New(Options{Level: "info", Format: "console", Console: &console, File: fpath})
	ctx := WithBoard(context.Background(), "demo.board.json")

	WithOperation(l.With(slog.String("component", "storage")), "save").InfoContext(ctx, "board saved", slog.Int("elements", 3))
	l.Debug("hidden")

	out := console.String()
	for _, want := range []string{"INF board saved", "component=storage", "op=save", "elements=3", "board=demo.board.json", "app=agentcanvas"} {
		if !strings.Contains(out, want) {
			t.Fatalf("console missing %q: %q", want, out)
		}
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record passed an info logger: %q", out)
	}

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 1 {
		t.Fatalf("file lines = %q", lines)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &m); err != nil {
		t.Fatalf("unmarshal json log: %v", err)
	}
	if m["msg"] != "board saved" || m["board"] != "demo.board.json" || m["op"] != "save" || m["elements"] != float64(3) {
		t.Fatalf("file record = %v", m)
	}
}

func TestWithoutBoardContextNoBoardAttr(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Format: "json", Console: &buf})
	l.InfoContext(WithBoard(context.Background(), ""), "empty path")
	l.Info("no context")
	if strings.Contains(buf.String(), `"board"`) {
		t.Fatalf("unexpected board attr: %q", buf.String())
	}
}

func TestInitInstallsDefault(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "debug", Format: "json", Console: &buf})
	t.Cleanup(func() { Init(Options{}) })

	WithComponent("viewstate").Debug("zoom clamped")
	slog.Warn("via slog default")

	out := buf.String()
	if !strings.Contains(out, `"component":"viewstate"`) || !strings.Contains(out, "zoom clamped") {
		t.Fatalf("component logger output = %q", out)
	}
	if !strings.Contains(out, "via slog default") {
		t.Fatalf("slog.Default not installed: %q", out)
	}
}
