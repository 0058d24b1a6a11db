/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
	"time"
)

// Snapshot is a reversible state blob for one board (an encoded element list).
// Blob content is opaque to the manager; its size is len(Blob).
type Snapshot struct {
	Board string
	Op    string // what produced the state, e.g. "drag", "add"
	Blob  []byte
	TS    time.Time
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; the oldest entries across boards are pruned when exceeded.
	MaxBytes int
	// MaxPerBoard limits undo depth per board (0 means unlimited).
	MaxPerBoard int
	// MinInterval coalesces snapshots of the same board and op captured within
	// the interval, replacing the previous one instead of pushing a new entry.
	MinInterval time.Duration
}

// Manager is an in-memory undo/redo stack per board. It is safe for concurrent use.
type Manager struct {
	cfg  Config
	mu   sync.Mutex
	undo map[string][]Snapshot
	redo map[string][]Snapshot

	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 8 * 1024 * 1024
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	return &Manager{cfg: cfg, undo: make(map[string][]Snapshot), redo: make(map[string][]Snapshot)}
}

// Push records s as the newest state of its board and clears that board's redo stack.
func (m *Manager) Push(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[s.Board]
	m.redo[s.Board] = nil
	if n := len(stack); n > 0 && m.cfg.MinInterval > 0 {
		last := stack[n-1]
		if last.Op == s.Op && s.TS.Sub(last.TS) < m.cfg.MinInterval {
			m.totalBytes += len(s.Blob) - len(last.Blob)
			stack[n-1] = s
			m.enforceCapsLocked(s.Board)
			return
		}
	}
	m.undo[s.Board] = append(stack, s)
	m.totalBytes += len(s.Blob)
	m.enforceCapsLocked(s.Board)
}

// Undo moves the newest snapshot of board onto its redo stack and returns the
// snapshot now on top, i.e. the state to restore. ok is false when there is
// nothing older to go back to.
func (m *Manager) Undo(board string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[board]
	if len(stack) < 2 {
		return Snapshot{}, false
	}
	top := stack[len(stack)-1]
	m.undo[board] = stack[:len(stack)-1]
	m.totalBytes -= len(top.Blob)
	m.redo[board] = append(m.redo[board], top)
	return stack[len(stack)-2], true
}

// Redo re-applies the most recently undone snapshot and returns it.
func (m *Manager) Redo(board string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[board]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[board] = r[:len(r)-1]
	m.undo[board] = append(m.undo[board], s)
	m.totalBytes += len(s.Blob)
	m.enforceCapsLocked(board)
	return s, true
}

// CanUndo and CanRedo report stack availability for a board.
func (m *Manager) CanUndo(board string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo[board]) > 1
}

func (m *Manager) CanRedo(board string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo[board]) > 0
}

// Clear drops both stacks of a board.
func (m *Manager) Clear(board string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.undo[board] {
		m.totalBytes -= len(s.Blob)
	}
	delete(m.undo, board)
	delete(m.redo, board)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, boards int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	boards = len(m.undo)
	for _, v := range m.undo {
		totalSnapshots += len(v)
	}
	return m.totalBytes, boards, totalSnapshots
}

func (m *Manager) enforceCapsLocked(board string) {
	if m.cfg.MaxPerBoard > 0 {
		stack := m.undo[board]
		if extra := len(stack) - m.cfg.MaxPerBoard; extra > 0 {
			for i := 0; i < extra; i++ {
				m.totalBytes -= len(stack[i].Blob)
			}
			m.undo[board] = append([]Snapshot{}, stack[extra:]...)
		}
	}
	// Global cap: prune the oldest entry across boards, but never a board's current state.
	for m.totalBytes > m.cfg.MaxBytes {
		oldest := ""
		found := false
		var oldestTS time.Time
		for b, stack := range m.undo {
			if len(stack) < 2 {
				continue
			}
			if !found || stack[0].TS.Before(oldestTS) {
				oldest, oldestTS, found = b, stack[0].TS, true
			}
		}
		if !found {
			break
		}
		stack := m.undo[oldest]
		m.totalBytes -= len(stack[0].Blob)
		m.undo[oldest] = stack[1:]
	}
}
