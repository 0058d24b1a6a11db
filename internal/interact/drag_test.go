/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interact

import (
	"math"
	"reflect"
	"testing"

	"agentcanvas/internal/geom"
	"agentcanvas/internal/viewstate"
)

type dragRecorder struct {
	moves  []geom.Pt
	clicks []string
	ends   []geom.Pt
}

func (r *dragRecorder) opts(o DragOptions) DragOptions {
	o.OnPositionChange = func(_ string, p geom.Pt) { r.moves = append(r.moves, p) }
	o.OnClick = func(id string, _ Modifiers) { r.clicks = append(r.clicks, id) }
	o.OnDragEnd = func(_ string, p geom.Pt) { r.ends = append(r.ends, p) }
	return o
}

func press(at geom.Pt) PointerEvent { return PointerEvent{Pos: at, Button: ButtonPrimary} }

func TestDragWithSnapScenario(t *testing.T) {
	s := viewstate.NewStore(viewstate.Options{})
	bus := NewPointerBus()
	var rec dragRecorder
	d := NewDragger(s, bus, rec.opts(DragOptions{SnapToGrid: true, GridSize: 20}))

	start := geom.P(250, 250)
	if disp := d.PointerDown("n1", geom.P(103, 58), press(start)); !disp.Consumed() {
		t.Fatalf("press must be consumed")
	}
	bus.DispatchMove(PointerEvent{Pos: start.Add(geom.P(37, -5))})
	bus.DispatchUp(PointerEvent{Pos: start.Add(geom.P(37, -5))})

	if len(rec.moves) != 1 || rec.moves[0] != geom.P(140, 60) {
		t.Fatalf("moves = %v, want [(140,60)]", rec.moves)
	}
	if len(rec.clicks) != 0 || len(rec.ends) != 1 {
		t.Fatalf("clicks=%v ends=%v", rec.clicks, rec.ends)
	}
	if bus.Active() != 0 {
		t.Fatalf("listeners leaked: %d", bus.Active())
	}
}

func TestDragRawPositionWithoutSnap(t *testing.T) {
	s := viewstate.NewStore(viewstate.Options{})
	bus := NewPointerBus()
	var rec dragRecorder
	d := NewDragger(s, bus, rec.opts(DragOptions{}))
	d.PointerDown("n1", geom.P(103, 58), press(geom.P(0, 0)))
	bus.DispatchMove(PointerEvent{Pos: geom.P(37, -5)})
	if len(rec.moves) != 1 || rec.moves[0] != geom.P(140, 53) {
		t.Fatalf("moves = %v, want [(140,53)]", rec.moves)
	}
}

func TestDragIsZoomCompensated(t *testing.T) {
	s := viewstate.NewStore(viewstate.Options{DefaultZoom: 2})
	bus := NewPointerBus()
	var rec dragRecorder
	d := NewDragger(s, bus, rec.opts(DragOptions{}))
	d.PointerDown("n1", geom.P(10, 10), press(geom.P(100, 100)))
	bus.DispatchMove(PointerEvent{Pos: geom.P(140, 120)})
	bus.DispatchMove(PointerEvent{Pos: geom.P(160, 80)})
	want := []geom.Pt{geom.P(30, 20), geom.P(40, 0)}
	if !reflect.DeepEqual(rec.moves, want) {
		t.Fatalf("moves = %v, want %v", rec.moves, want)
	}
}

func TestZeroMotionIsClick(t *testing.T) {
	s := viewstate.NewStore(viewstate.Options{})
	bus := NewPointerBus()
	var rec dragRecorder
	d := NewDragger(s, bus, rec.opts(DragOptions{SnapToGrid: true, GridSize: 20}))
	d.PointerDown("a", geom.P(103, 58), press(geom.P(40, 40)))
	bus.DispatchUp(PointerEvent{Pos: geom.P(40, 40)})
	if len(rec.clicks) != 1 || rec.clicks[0] != "a" {
		t.Fatalf("clicks = %v, want [a]", rec.clicks)
	}
	if len(rec.moves) != 0 || len(rec.ends) != 0 {
		t.Fatalf("zero-motion press produced moves=%v ends=%v", rec.moves, rec.ends)
	}
	if bus.Active() != 0 {
		t.Fatalf("listeners leaked")
	}
}

func TestDragSnappingBackToOriginFiresNothing(t *testing.T) {
	s := viewstate.NewStore(viewstate.Options{})
	bus := NewPointerBus()
	var rec dragRecorder
	d := NewDragger(s, bus, rec.opts(DragOptions{SnapToGrid: true, GridSize: 20}))
	d.PointerDown("a", geom.P(100, 100), press(geom.P(110, 110)))
	bus.DispatchMove(PointerEvent{Pos: geom.P(115, 110)})
	bus.DispatchUp(PointerEvent{Pos: geom.P(115, 110)})
	if len(rec.moves) != 0 || len(rec.ends) != 0 || len(rec.clicks) != 0 {
		t.Fatalf("moves=%v ends=%v clicks=%v, want none", rec.moves, rec.ends, rec.clicks)
	}
	if bus.Active() != 0 {
		t.Fatalf("listeners leaked")
	}
}

func TestDragReturningToOriginSkipsDragEnd(t *testing.T) {
	s := viewstate.NewStore(viewstate.Options{})
	bus := NewPointerBus()
	var rec dragRecorder
	d := NewDragger(s, bus, rec.opts(DragOptions{}))
	d.PointerDown("a", geom.P(100, 100), press(geom.P(0, 0)))
	bus.DispatchMove(PointerEvent{Pos: geom.P(30, 0)})
	bus.DispatchUp(PointerEvent{Pos: geom.P(0, 0)})
	want := []geom.Pt{geom.P(130, 100), geom.P(100, 100)}
	if !reflect.DeepEqual(rec.moves, want) {
		t.Fatalf("moves = %v, want %v", rec.moves, want)
	}
	if len(rec.ends) != 0 || len(rec.clicks) != 0 {
		t.Fatalf("ends=%v clicks=%v, want none", rec.ends, rec.clicks)
	}
}

func TestJitterBelowThresholdIsClick(t *testing.T) {
	s := viewstate.NewStore(viewstate.Options{})
	bus := NewPointerBus()
	var rec dragRecorder
	d := NewDragger(s, bus, rec.opts(DragOptions{}))
	d.PointerDown("a", geom.P(0, 0), press(geom.P(40, 40)))
	bus.DispatchMove(PointerEvent{Pos: geom.P(41, 41)})
	bus.DispatchUp(PointerEvent{Pos: geom.P(42, 40)})
	if len(rec.clicks) != 1 || len(rec.moves) != 0 {
		t.Fatalf("clicks=%v moves=%v", rec.clicks, rec.moves)
	}
}

func TestModifierPressDoesNotDrag(t *testing.T) {
	s := viewstate.NewStore(viewstate.Options{})
	bus := NewPointerBus()
	d := NewDragger(s, bus, DragOptions{})
	for _, m := range []Modifiers{ModShift, ModCtrl, ModAlt, ModMeta} {
		if d.PointerDown("a", geom.Pt{}, PointerEvent{Button: ButtonPrimary, Mods: m}).Handled() {
			t.Fatalf("modifier %v started a drag", m)
		}
	}
	if d.PointerDown("a", geom.Pt{}, PointerEvent{Button: ButtonMiddle}).Handled() {
		t.Fatalf("middle button started a drag")
	}
	if bus.Active() != 0 {
		t.Fatalf("listeners acquired for rejected presses")
	}
}

func TestCancelAndRepressReleaseListeners(t *testing.T) {
	s := viewstate.NewStore(viewstate.Options{})
	bus := NewPointerBus()
	var rec dragRecorder
	d := NewDragger(s, bus, rec.opts(DragOptions{}))

	d.PointerDown("a", geom.Pt{}, press(geom.Pt{}))
	d.PointerDown("b", geom.Pt{}, press(geom.Pt{}))
	if bus.Active() != 1 {
		t.Fatalf("second press should replace the first session, active=%d", bus.Active())
	}
	if id, _ := d.Active(); id != "b" {
		t.Fatalf("active = %q", id)
	}
	d.Cancel()
	if bus.Active() != 0 {
		t.Fatalf("cancel leaked listeners")
	}
	bus.DispatchUp(PointerEvent{})
	if len(rec.clicks) != 0 {
		t.Fatalf("cancelled gesture produced a click")
	}
}

func TestStaleListenerIgnored(t *testing.T) {
	s := viewstate.NewStore(viewstate.Options{})
	bus := NewPointerBus()
	var rec dragRecorder
	d := NewDragger(s, bus, rec.opts(DragOptions{}))

	d.PointerDown("a", geom.Pt{}, press(geom.Pt{}))
	old := d.session
	d.Cancel()
	d.PointerDown("b", geom.Pt{}, press(geom.Pt{}))
	d.move(old, PointerEvent{Pos: geom.P(100, 100)})
	d.up(old, PointerEvent{Pos: geom.P(100, 100)})
	if len(rec.moves) != 0 || len(rec.clicks) != 0 {
		t.Fatalf("stale session reached callbacks: %+v", rec)
	}
	if id, ok := d.Active(); !ok || id != "b" {
		t.Fatalf("stale up ended the live session")
	}
}

func TestSnappedDragPositionsAreOnGrid(t *testing.T) {
	s := viewstate.NewStore(viewstate.Options{DefaultZoom: 0.7})
	bus := NewPointerBus()
	var rec dragRecorder
	d := NewDragger(s, bus, rec.opts(DragOptions{SnapToGrid: true, GridSize: 25}))
	d.PointerDown("a", geom.P(13.3, -7.9), press(geom.Pt{}))
	for i := 1; i <= 60; i++ {
		bus.DispatchMove(PointerEvent{Pos: geom.P(float64(i)*7.3, float64(-i)*3.1)})
	}
	bus.DispatchUp(PointerEvent{Pos: geom.P(500, 500)})
	if len(rec.moves) == 0 {
		t.Fatalf("no moves")
	}
	for _, p := range rec.moves {
		if math.Mod(p.X, 25) != 0 || math.Mod(p.Y, 25) != 0 {
			t.Fatalf("off-grid position %v", p)
		}
	}
}
