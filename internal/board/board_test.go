/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package board

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"

	"agentcanvas/internal/domain"
	"agentcanvas/internal/geom"
	"agentcanvas/internal/interact"
	applog "agentcanvas/internal/log"
	"agentcanvas/internal/undo"
	"agentcanvas/internal/viewstate"
)

func sample() []domain.Element {
	return []domain.Element{
		{ID: "1", Type: "node", Position: geom.P(100, 100), Data: map[string]any{"label": "Node 1"}},
		{ID: "2", Type: "node", Position: geom.P(300, 200)},
	}
}

type recorder struct {
	changes    [][]domain.Element
	selections [][]string
}

func newBoard(t *testing.T, opts Options) (*Board, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts.OnElementsChange = func(els []domain.Element) { rec.changes = append(rec.changes, els) }
	opts.OnSelectionChange = func(ids []string) { rec.selections = append(rec.selections, ids) }
	b := New(viewstate.NewStore(viewstate.Options{}), opts)
	b.SetElements(sample())
	return b, rec
}

func primary(x, y float64) interact.PointerEvent {
	return interact.PointerEvent{Pos: geom.P(x, y), Button: interact.ButtonPrimary}
}

func TestDragMovesOnlyTheDraggedElement(t *testing.T) {
	b, rec := newBoard(t, Options{})
	before := b.Elements()
	if disp := b.PointerDown(primary(150, 130)); !disp.Consumed() {
		t.Fatalf("press on element must be consumed")
	}
	b.GlobalMove(primary(187, 125))
	if id, ok := b.Dragging(); !ok || id != "1" {
		t.Fatalf("dragging = %q,%v", id, ok)
	}
	b.GlobalUp(primary(187, 125))

	if len(rec.changes) != 1 {
		t.Fatalf("expected 1 elements change, got %d", len(rec.changes))
	}
	got := rec.changes[0]
	if got[0].Position != geom.P(137, 95) {
		t.Fatalf("moved position = %v", got[0].Position)
	}
	if got[1].Position != geom.P(300, 200) {
		t.Fatalf("other element moved: %v", got[1].Position)
	}
	if before[0].Position != geom.P(100, 100) {
		t.Fatalf("previous slice was mutated")
	}
	if len(rec.selections) != 0 {
		t.Fatalf("drag must not change selection: %v", rec.selections)
	}
	if b.Bus().Active() != 0 {
		t.Fatalf("listeners leaked")
	}
}

func TestSnappedDragReportsGridPositions(t *testing.T) {
	b, rec := newBoard(t, Options{SnapToGrid: true, GridSize: 20})
	b.PointerDown(primary(110, 110))
	// Moves past the click threshold but snaps back onto the origin.
	b.GlobalMove(primary(115, 112))
	if len(rec.changes) != 0 {
		t.Fatalf("unchanged snapped position must not be reported: %v", rec.changes)
	}
	b.GlobalMove(primary(147, 105))
	b.GlobalUp(primary(147, 105))
	if len(rec.changes) != 1 || rec.changes[0][0].Position != geom.P(140, 100) {
		t.Fatalf("changes = %v", rec.changes)
	}
}

func TestClickSelectionAndBackgroundClear(t *testing.T) {
	b, rec := newBoard(t, Options{})
	b.PointerDown(primary(150, 130))
	b.GlobalUp(primary(150, 130))
	if !reflect.DeepEqual(b.Selection(), []string{"1"}) {
		t.Fatalf("after click: %v", b.Selection())
	}

	shift := interact.PointerEvent{Pos: geom.P(320, 220), Button: interact.ButtonPrimary, Mods: interact.ModShift}
	if disp := b.PointerDown(shift); !disp.Consumed() {
		t.Fatalf("modifier click on element must be consumed")
	}
	if !reflect.DeepEqual(b.Selection(), []string{"1", "2"}) {
		t.Fatalf("after shift click: %v", b.Selection())
	}
	b.PointerDown(shift)
	if !reflect.DeepEqual(b.Selection(), []string{"1"}) {
		t.Fatalf("after second shift click: %v", b.Selection())
	}

	b.PointerDown(primary(700, 700))
	if b.Selection() != nil {
		t.Fatalf("background click must clear: %v", b.Selection())
	}
	if n := len(rec.selections); n != 4 {
		t.Fatalf("selection notifications = %d, want 4", n)
	}
	b.PointerDown(primary(700, 700))
	if n := len(rec.selections); n != 4 {
		t.Fatalf("clearing an empty selection must not notify")
	}
}

func TestCtrlPressOnElementPans(t *testing.T) {
	b, rec := newBoard(t, Options{})
	ev := interact.PointerEvent{Pos: geom.P(150, 130), Button: interact.ButtonPrimary, Mods: interact.ModCtrl}
	if disp := b.PointerDown(ev); disp&interact.PreventDefault == 0 {
		t.Fatalf("ctrl press should start a pan")
	}
	if !b.Panning() {
		t.Fatalf("not panning")
	}
	b.PointerMove(interact.PointerEvent{Pos: geom.P(160, 140)})
	b.PointerUp(interact.PointerEvent{Pos: geom.P(160, 140)})
	if got := b.Store().Pan(); got != geom.P(10, 10) {
		t.Fatalf("pan = %v", got)
	}
	if len(rec.selections) != 0 || len(rec.changes) != 0 {
		t.Fatalf("pan must not select or move")
	}
}

func TestHitTestTopMostAndZoomed(t *testing.T) {
	b, _ := newBoard(t, Options{})
	b.SetElements([]domain.Element{
		{ID: "under", Position: geom.P(0, 0)},
		{ID: "over", Position: geom.P(50, 20)},
	})
	if el, ok := b.HitTest(geom.P(60, 30)); !ok || el.ID != "over" {
		t.Fatalf("hit = %v,%v", el.ID, ok)
	}
	b.Store().Apply(2, geom.P(10, 0))
	// canvas (5,5) -> screen (30,10)
	if el, ok := b.HitTest(geom.P(30, 10)); !ok || el.ID != "under" {
		t.Fatalf("zoomed hit = %v,%v", el.ID, ok)
	}
	if _, ok := b.HitTest(geom.P(5, 5)); ok {
		t.Fatalf("expected miss left of the pan offset")
	}
}

func TestAddNodeIDsAndLabels(t *testing.T) {
	b, rec := newBoard(t, Options{})
	el := b.AddNode("")
	if el.ID != "node-3" || el.Label() != "New Node 3" || el.Position != NewNodePosition || el.Type != "node" {
		t.Fatalf("unexpected node: %+v", el)
	}
	if len(rec.changes) != 1 || len(rec.changes[0]) != 3 {
		t.Fatalf("add should publish 3 elements")
	}
	b.SetElements([]domain.Element{{ID: "a"}, {ID: "node-3"}})
	el = b.AddNode("hello")
	if !strings.HasPrefix(el.ID, "node-") || el.ID == "node-3" || len(el.ID) < len("node-")+32 {
		t.Fatalf("expected uuid id on collision, got %q", el.ID)
	}
	if _, dup := domain.DuplicateID(b.Elements()); dup {
		t.Fatalf("duplicate id after add")
	}
}

func TestRemoveSelectedUndoRedo(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { now = now.Add(time.Second); return now }
	b, _ := newBoard(t, Options{Undo: undo.NewManager(undo.Config{}), Now: clock})

	b.Select("2", "missing")
	if !reflect.DeepEqual(b.Selection(), []string{"2"}) {
		t.Fatalf("select = %v", b.Selection())
	}
	if n := b.RemoveSelected(); n != 1 || len(b.Elements()) != 1 {
		t.Fatalf("removed %d, left %d", n, len(b.Elements()))
	}
	if !b.Undo() || len(b.Elements()) != 2 {
		t.Fatalf("undo should restore the removed element")
	}
	if !b.Redo() || len(b.Elements()) != 1 {
		t.Fatalf("redo should remove it again")
	}
	if !b.Undo() {
		t.Fatalf("undo after redo")
	}

	b.PointerDown(primary(150, 130))
	b.GlobalMove(primary(200, 130))
	b.GlobalUp(primary(200, 130))
	if el, _ := b.Find("1"); el.Position != geom.P(150, 100) {
		t.Fatalf("drag result %v", el.Position)
	}
	if !b.Undo() {
		t.Fatalf("drag should be undoable")
	}
	if el, _ := b.Find("1"); el.Position != geom.P(100, 100) {
		t.Fatalf("undo drag = %v", el.Position)
	}
	if b.Undo() {
		t.Fatalf("history should be exhausted at the loaded state")
	}
}

func TestSnapBackDragAddsNoUndoStep(t *testing.T) {
	m := undo.NewManager(undo.Config{})
	b, rec := newBoard(t, Options{Undo: m, SnapToGrid: true, GridSize: 20})
	_, _, before := m.Stats()
	b.PointerDown(primary(110, 110))
	b.GlobalMove(primary(115, 110))
	b.GlobalUp(primary(115, 110))
	if _, _, after := m.Stats(); after != before {
		t.Fatalf("snapshots %d -> %d", before, after)
	}
	if b.Undo() {
		t.Fatalf("nothing to undo after a snap-back drag")
	}
	if len(rec.changes) != 0 || len(rec.selections) != 0 {
		t.Fatalf("changes=%v selections=%v", rec.changes, rec.selections)
	}
}

func TestUndoWithoutManager(t *testing.T) {
	b, _ := newBoard(t, Options{})
	if b.Undo() || b.Redo() {
		t.Fatalf("undo without a manager must report false")
	}
}

func TestRenderScreenBoundsAndSelection(t *testing.T) {
	b, _ := newBoard(t, Options{})
	b.Store().Apply(2, geom.P(10, 0))
	b.Select("2")
	var got []NodeProps
	b.Render(func(p NodeProps) { got = append(got, p) })
	if len(got) != 2 {
		t.Fatalf("render visited %d", len(got))
	}
	if got[0].Bounds != geom.R(220, 200, 200, 120) || got[0].Selected {
		t.Fatalf("node 1 props = %+v", got[0])
	}
	if !got[1].Selected {
		t.Fatalf("node 2 should render selected")
	}
	line := DefaultRender(got[1])
	if !strings.HasPrefix(line, "*") || !strings.Contains(line, `"Node 2"`) {
		t.Fatalf("default render = %q", line)
	}
}

func TestRenderWithoutRendererUsesDefault(t *testing.T) {
	var buf bytes.Buffer
	applog.Init(applog.Options{Level: "debug", Console: &buf})
	t.Cleanup(func() { applog.Init(applog.Options{}) })

	b, _ := newBoard(t, Options{})
	b.Render(nil)
	out := buf.String()
	if strings.Count(out, "DBG render") != 2 || !strings.Contains(out, `"Node 1"`) {
		t.Fatalf("default render log = %q", out)
	}
}

func TestTextRendererWritesOneLinePerElement(t *testing.T) {
	b, _ := newBoard(t, Options{})
	b.Select("1")
	var buf bytes.Buffer
	b.Render(TextRenderer(&buf))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.HasPrefix(lines[0], "*") || !strings.Contains(lines[0], `"Node 1"`) || strings.HasPrefix(lines[1], "*") {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestRenderPropsDriveBoard(t *testing.T) {
	b, rec := newBoard(t, Options{})
	b.Render(func(p NodeProps) {
		if p.Element.ID == "2" {
			p.OnPositionChange(p.Element.ID, geom.P(320, 240))
			p.OnClick(p.Element.ID, 0)
		}
	})
	if el, _ := b.Find("2"); el.Position != geom.P(320, 240) {
		t.Fatalf("position = %v", el.Position)
	}
	if len(rec.changes) != 1 || rec.changes[0][1].Position != geom.P(320, 240) {
		t.Fatalf("changes = %v", rec.changes)
	}
	if !reflect.DeepEqual(b.Selection(), []string{"2"}) || len(rec.selections) != 1 {
		t.Fatalf("selection = %v, notifications = %v", b.Selection(), rec.selections)
	}

	var props NodeProps
	b.Render(func(p NodeProps) {
		if p.Element.ID == "1" {
			props = p
		}
	})
	props.OnClick("1", interact.ModShift)
	if !reflect.DeepEqual(b.Selection(), []string{"2", "1"}) {
		t.Fatalf("shift click selection = %v", b.Selection())
	}
}

func TestWheelAndViewActions(t *testing.T) {
	b, _ := newBoard(t, Options{})
	if disp := b.Wheel(interact.WheelEvent{Pos: geom.P(100, 100), DeltaY: -100}); disp&interact.PreventDefault == 0 {
		t.Fatalf("wheel should prevent scroll by default")
	}
	if z := b.Store().Zoom(); z <= 1 {
		t.Fatalf("zoom did not grow: %v", z)
	}
	b.SetTool(viewstate.ToolEraser)
	b.ResetView()
	st := b.Store().Get()
	if st.Zoom != 1 || st.Pan != (geom.Pt{}) || st.Tool != viewstate.ToolPen {
		t.Fatalf("reset = %+v", st)
	}
}
