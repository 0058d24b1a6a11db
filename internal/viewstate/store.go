/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package viewstate holds the pan/zoom/tool record shared by a canvas's
// renderer and interaction handlers. Each canvas owns its own Store; nothing
// here is process global, so independent canvases do not interfere.
package viewstate

import (
	"math"
	"sync"

	"agentcanvas/internal/geom"
)

// Tool is the active drawing tool.
type Tool string

const (
	ToolPen    Tool = "pen"
	ToolEraser Tool = "eraser"
)

// Valid reports whether t is a known tool.
func (t Tool) Valid() bool { return t == ToolPen || t == ToolEraser }

// Default zoom bounds.
const (
	DefaultMinZoom = 0.1
	DefaultMaxZoom = 5.0
)

// zoomedInThreshold mirrors the editor's "zoomed in" indicator.
const zoomedInThreshold = 1.5

// State is a snapshot of the view.
type State struct {
	Pan  geom.Pt
	Zoom float64
	Tool Tool
}

// Options configures a Store. Zero values fall back to defaults.
type Options struct {
	MinZoom     float64
	MaxZoom     float64
	DefaultPan  geom.Pt
	DefaultZoom float64
	DefaultTool Tool
}

// Store is the single owner of a canvas's State. All mutations are serialized;
// subscribers run after the lock is released, once per mutation.
type Store struct {
	mu       sync.Mutex
	min, max float64
	defaults State
	cur      State

	subsMu sync.Mutex
	nextID int
	subs   map[int]func(State)
}

// NewStore builds a Store, repairing inconsistent options instead of failing:
// non-finite or non-positive bounds use defaults, inverted bounds are swapped,
// and the default zoom is clamped into range.
func NewStore(opts Options) *Store {
	lo, hi := opts.MinZoom, opts.MaxZoom
	if !(lo > 0) || math.IsInf(lo, 0) {
		lo = DefaultMinZoom
	}
	if !(hi > 0) || math.IsInf(hi, 0) {
		hi = DefaultMaxZoom
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	z := opts.DefaultZoom
	if !(z > 0) || math.IsInf(z, 0) {
		z = 1
	}
	pan := opts.DefaultPan
	if !pan.Finite() {
		pan = geom.Pt{}
	}
	tool := opts.DefaultTool
	if !tool.Valid() {
		tool = ToolPen
	}
	def := State{Pan: pan, Zoom: geom.Clamp(z, lo, hi), Tool: tool}
	return &Store{min: lo, max: hi, defaults: def, cur: def, subs: make(map[int]func(State))}
}

// Bounds returns the zoom clamp bounds.
func (s *Store) Bounds() (minZoom, maxZoom float64) { return s.min, s.max }

// Defaults returns the state Reset restores.
func (s *Store) Defaults() State { return s.defaults }

// Get returns the current state.
func (s *Store) Get() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Zoom returns the current zoom.
func (s *Store) Zoom() float64 { return s.Get().Zoom }

// Pan returns the current pan.
func (s *Store) Pan() geom.Pt { return s.Get().Pan }

// ZoomedIn reports whether the view is noticeably magnified.
func (s *Store) ZoomedIn() bool { return s.Zoom() > zoomedInThreshold }

// ClampZoom limits z to the store's bounds. NaN is mapped to the lower bound.
func (s *Store) ClampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return s.min
	}
	return geom.Clamp(z, s.min, s.max)
}

// SetTool changes the active tool. Unknown tools are ignored.
func (s *Store) SetTool(t Tool) {
	if !t.Valid() {
		return
	}
	s.update(func(st *State) { st.Tool = t })
}

// SetZoom stores z clamped to [min, max].
func (s *Store) SetZoom(z float64) {
	z = s.ClampZoom(z)
	s.update(func(st *State) { st.Zoom = z })
}

// SetPan replaces the pan. Pan is unbounded.
func (s *Store) SetPan(x, y float64) {
	s.update(func(st *State) { st.Pan = geom.Pt{X: x, Y: y} })
}

// UpdatePan adds (dx, dy) to the pan.
func (s *Store) UpdatePan(dx, dy float64) {
	s.update(func(st *State) { st.Pan = st.Pan.Add(geom.Pt{X: dx, Y: dy}) })
}

// Apply writes zoom and pan as one update; readers never observe one without the other.
func (s *Store) Apply(zoom float64, pan geom.Pt) {
	zoom = s.ClampZoom(zoom)
	s.update(func(st *State) {
		st.Zoom = zoom
		st.Pan = pan
	})
}

// Modify runs fn against the current state under the store lock and commits
// the result. fn must be quick and must not call back into the store.
func (s *Store) Modify(fn func(cur State) State) {
	s.update(func(st *State) {
		next := fn(*st)
		next.Zoom = s.ClampZoom(next.Zoom)
		if !next.Tool.Valid() {
			next.Tool = st.Tool
		}
		*st = next
	})
}

// Reset restores the default tool, zoom and pan.
func (s *Store) Reset() {
	s.update(func(st *State) { *st = s.defaults })
}

// Subscribe registers fn to be called with the new state after every
// mutation. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subsMu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.cur)
	st := s.cur
	s.mu.Unlock()

	s.subsMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, f := range s.subs {
		fns = append(fns, f)
	}
	s.subsMu.Unlock()
	for _, f := range fns {
		f(st)
	}
}
