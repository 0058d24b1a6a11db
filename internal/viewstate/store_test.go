/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package viewstate

import (
	"math"
	"testing"

	"agentcanvas/internal/geom"
)

func TestSetZoomClamps(t *testing.T) {
	s := NewStore(Options{})
	for _, tc := range []struct{ in, want float64 }{
		{0, 0.1}, {-3, 0.1}, {0.05, 0.1}, {7, 5}, {math.Inf(1), 5}, {math.Inf(-1), 0.1}, {math.NaN(), 0.1},
		{0.1, 0.1}, {1, 1}, {2.75, 2.75}, {5, 5},
	} {
		s.SetZoom(tc.in)
		if got := s.Zoom(); got != tc.want {
			t.Fatalf("SetZoom(%v) stored %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNewStoreRepairsOptions(t *testing.T) {
	s := NewStore(Options{MinZoom: 4, MaxZoom: 0.5, DefaultZoom: 10, DefaultTool: "brush"})
	lo, hi := s.Bounds()
	if lo != 0.5 || hi != 4 {
		t.Fatalf("bounds = %v..%v, want swapped 0.5..4", lo, hi)
	}
	st := s.Get()
	if st.Zoom != 4 || st.Tool != ToolPen {
		t.Fatalf("defaults not repaired: %+v", st)
	}
	s2 := NewStore(Options{MinZoom: math.NaN(), MaxZoom: math.Inf(1), DefaultPan: geom.P(math.NaN(), 1)})
	if lo, hi := s2.Bounds(); lo != DefaultMinZoom || hi != DefaultMaxZoom {
		t.Fatalf("non-finite bounds not defaulted: %v..%v", lo, hi)
	}
	if s2.Pan() != (geom.Pt{}) {
		t.Fatalf("non-finite default pan kept: %v", s2.Pan())
	}
}

func TestPanSettersAndReset(t *testing.T) {
	s := NewStore(Options{DefaultPan: geom.P(5, 5), DefaultZoom: 2})
	s.SetPan(-1e6, 3e6)
	if s.Pan() != geom.P(-1e6, 3e6) {
		t.Fatalf("SetPan must be unclamped: %v", s.Pan())
	}
	s.UpdatePan(10, -20)
	if s.Pan() != geom.P(-1e6+10, 3e6-20) {
		t.Fatalf("UpdatePan: %v", s.Pan())
	}
	s.SetTool(ToolEraser)
	s.SetTool("laser")
	if s.Get().Tool != ToolEraser {
		t.Fatalf("tool = %v", s.Get().Tool)
	}
	s.SetZoom(3)
	s.Reset()
	if st := s.Get(); st != (State{Pan: geom.P(5, 5), Zoom: 2, Tool: ToolPen}) {
		t.Fatalf("Reset = %+v", st)
	}
}

func TestApplyNotifiesOnce(t *testing.T) {
	s := NewStore(Options{})
	var seen []State
	cancel := s.Subscribe(func(st State) { seen = append(seen, st) })
	s.Apply(9, geom.P(1, 2))
	if len(seen) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(seen))
	}
	if seen[0].Zoom != 5 || seen[0].Pan != geom.P(1, 2) {
		t.Fatalf("notified state = %+v", seen[0])
	}
	cancel()
	cancel()
	s.SetZoom(2)
	if len(seen) != 1 {
		t.Fatalf("cancelled subscriber still notified")
	}
}

func TestZoomedIn(t *testing.T) {
	s := NewStore(Options{})
	if s.ZoomedIn() {
		t.Fatalf("zoom 1 is not zoomed in")
	}
	s.SetZoom(1.6)
	if !s.ZoomedIn() {
		t.Fatalf("zoom 1.6 is zoomed in")
	}
}

func TestModifyClampsAndKeepsTool(t *testing.T) {
	s := NewStore(Options{})
	s.Modify(func(cur State) State {
		cur.Zoom = 0
		cur.Tool = "nope"
		cur.Pan = geom.P(4, 4)
		return cur
	})
	if st := s.Get(); st.Zoom != 0.1 || st.Tool != ToolPen || st.Pan != geom.P(4, 4) {
		t.Fatalf("Modify = %+v", st)
	}
}
