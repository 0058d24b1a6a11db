/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package session binds a board file on disk to a live board: it restores the
// saved view and elements, tracks unsaved changes and writes them back.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"agentcanvas/internal/board"
	"agentcanvas/internal/config"
	"agentcanvas/internal/domain"
	applog "agentcanvas/internal/log"
	"agentcanvas/internal/storage"
	"agentcanvas/internal/undo"
	"agentcanvas/internal/viewstate"
)

// Options configure a session.
type Options struct {
	Settings config.CanvasSettings
	// Undo receives board snapshots; nil disables undo.
	Undo *undo.Manager
	// History records every save in the board's SQLite history.
	History bool
	// KeepHistory prunes the history to this many entries after a save; 0 keeps all.
	KeepHistory int
	// Now stamps history entries; defaults to time.Now.
	Now func() time.Time
}

// Session is one open board.
type Session struct {
	Handle *storage.BoardHandle
	Store  *viewstate.Store
	Board  *board.Board

	opts   Options
	dirty  atomic.Bool
	cancel func()
	log    *slog.Logger
}

// Create writes a new empty board named name at path and opens it.
func Create(path, name string, opts Options) (*Session, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	h, err := storage.InitBoard(path, domain.NewDocument(name, now()))
	if err != nil {
		return nil, err
	}
	return attach(h, opts), nil
}

// Open loads the board at path. When the file was unreadable and a backup was
// used instead, the session starts dirty so the next save repairs the file.
func Open(path string, opts Options) (*Session, error) {
	h, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	s := attach(h, opts)
	if h.Recovered {
		s.log.Warn("board recovered from backup", slog.String("path", h.Path))
		s.dirty.Store(true)
	}
	return s, nil
}

func attach(h *storage.BoardHandle, opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Session{
		Handle: h,
		opts:   opts,
		log:    applog.WithComponent("session").With(slog.String("board", h.Key())),
	}
	s.Store = viewstate.NewStore(opts.Settings.Store)
	restoreView(s.Store, h.Doc.View)

	bo := opts.Settings.Board
	bo.ID = h.Key()
	bo.Undo = opts.Undo
	onElements, onSelection := bo.OnElementsChange, bo.OnSelectionChange
	bo.OnElementsChange = func(els []domain.Element) {
		s.dirty.Store(true)
		if onElements != nil {
			onElements(els)
		}
	}
	bo.OnSelectionChange = func(ids []string) {
		s.dirty.Store(true)
		if onSelection != nil {
			onSelection(ids)
		}
	}
	s.Board = board.New(s.Store, bo)
	s.Board.SetElements(h.Doc.Elements)
	s.Board.Select(h.Doc.Selected...)
	s.cancel = s.Store.Subscribe(func(viewstate.State) { s.dirty.Store(true) })
	s.dirty.Store(false)
	return s
}

// A saved zoom of zero is treated as absent and leaves the store's default.
func restoreView(st *viewstate.Store, v domain.View) {
	if t := viewstate.Tool(v.Tool); t.Valid() {
		st.SetTool(t)
	}
	if v.Zoom > 0 {
		st.Apply(v.Zoom, v.Pan)
	} else {
		st.SetPan(v.Pan.X, v.Pan.Y)
	}
}

// Document returns the board's current state as a document.
func (s *Session) Document() domain.Document {
	doc := s.Handle.Doc
	st := s.Store.Get()
	doc.View = domain.View{Pan: st.Pan, Zoom: st.Zoom, Tool: string(st.Tool)}
	doc.Elements = domain.CloneElements(s.Board.Elements())
	doc.Selected = s.Board.Selection()
	if len(doc.Selected) == 0 {
		doc.Selected = nil
	}
	return doc
}

// Dirty reports whether the board changed since it was opened or saved.
func (s *Session) Dirty() bool { return s.dirty.Load() }

// Save writes the current state to disk. op names the change for the history table.
// History failures are logged and do not fail the save.
func (s *Session) Save(ctx context.Context, op string) error {
	s.Handle.Doc = s.Document()
	if err := storage.Save(s.Handle); err != nil {
		return fmt.Errorf("save board: %w", err)
	}
	s.dirty.Store(false)
	s.log.Info("board saved", slog.String("op", op), slog.Int("elements", len(s.Handle.Doc.Elements)))
	if s.opts.History {
		s.record(ctx, op)
	}
	return nil
}

func (s *Session) record(ctx context.Context, op string) {
	l := applog.WithOperation(s.log, "history")
	blob, err := json.Marshal(s.Handle.Doc)
	if err != nil {
		l.Warn("marshal history entry failed", slog.Any("err", err))
		return
	}
	if err := storage.SaveHistory(ctx, s.Handle, op, blob, s.opts.Now()); err != nil {
		l.Warn("history write failed", slog.Any("err", err))
		return
	}
	if s.opts.KeepHistory > 0 {
		if n, err := storage.PruneHistory(ctx, s.Handle, s.opts.KeepHistory); err != nil {
			l.Warn("history prune failed", slog.Any("err", err))
		} else if n > 0 {
			l.Debug("history pruned", slog.Int64("removed", n))
		}
	}
}

// Revert replaces the board with the document stored in a history entry.
// The change is not saved.
func (s *Session) Revert(e storage.HistoryEntry) error {
	var doc domain.Document
	if err := json.Unmarshal(e.Blob, &doc); err != nil {
		return fmt.Errorf("decode history entry %d: %w", e.ID, err)
	}
	restoreView(s.Store, doc.View)
	s.Board.SetElements(doc.Elements)
	s.Board.Select(doc.Selected...)
	s.dirty.Store(true)
	return nil
}

// Close detaches the session from its store.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
