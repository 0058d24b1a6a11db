/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package board hosts a set of canvas elements: it owns the element list and
// selection, routes pointer input to the interaction controllers and applies
// what they propose.
package board

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"agentcanvas/internal/domain"
	"agentcanvas/internal/geom"
	"agentcanvas/internal/interact"
	applog "agentcanvas/internal/log"
	"agentcanvas/internal/undo"
	"agentcanvas/internal/viewstate"
)

// NewNodePosition is where AddNode places new nodes, in canvas space.
var NewNodePosition = geom.Pt{X: 200, Y: 200}

// Options configures a Board.
type Options struct {
	// ID keys the board's undo history. Defaults to "board".
	ID string

	SnapToGrid     bool
	GridSize       float64
	ClickThreshold float64
	PanZoom        interact.PanZoomOptions
	// ToggleModifier flips membership on click. Zero means Shift.
	ToggleModifier interact.Modifiers

	// Undo receives element-list snapshots. Nil disables history.
	Undo *undo.Manager

	OnElementsChange  func([]domain.Element)
	OnSelectionChange func([]string)

	// Now is the clock used for snapshot timestamps.
	Now func() time.Time
}

// Board is not safe for concurrent use; drive it from one event loop.
type Board struct {
	store *viewstate.Store
	bus   *interact.PointerBus
	pz    *interact.PanZoom
	drag  *interact.Dragger
	sel   *interact.Selection
	opts  Options
	log   *slog.Logger

	elements []domain.Element
}

// New returns an empty board bound to store.
func New(store *viewstate.Store, opts Options) *Board {
	if opts.ID == "" {
		opts.ID = "board"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	b := &Board{
		store: store,
		bus:   interact.NewPointerBus(),
		sel:   interact.NewSelection(),
		opts:  opts,
		log:   applog.WithComponent("board"),
	}
	b.pz = interact.NewPanZoom(store, opts.PanZoom)
	b.drag = interact.NewDragger(store, b.bus, interact.DragOptions{
		SnapToGrid:       opts.SnapToGrid,
		GridSize:         opts.GridSize,
		ClickThreshold:   opts.ClickThreshold,
		OnPositionChange: b.setPosition,
		OnClick:          b.click,
		OnDragEnd:        b.dragEnd,
	})
	return b
}

// Store returns the view-state store the board reads and writes.
func (b *Board) Store() *viewstate.Store { return b.store }

// Bus returns the window-level listener bus.
func (b *Board) Bus() *interact.PointerBus { return b.bus }

// Elements returns the current element list. Callers must not modify it.
func (b *Board) Elements() []domain.Element { return b.elements }

// SetElements replaces the element list and starts a new undo history.
// Selected ids that no longer exist are dropped.
func (b *Board) SetElements(els []domain.Element) {
	b.elements = domain.CloneElements(els)
	if b.elements == nil {
		b.elements = []domain.Element{}
	}
	if b.opts.Undo != nil {
		b.opts.Undo.Clear(b.opts.ID)
	}
	b.snapshot("load")
	b.pruneSelection()
}

// Selection returns the selected ids in selection order.
func (b *Board) Selection() []string { return b.sel.IDs() }

// Select replaces the selection with ids that exist on the board.
func (b *Board) Select(ids ...string) {
	b.sel.Clear()
	for _, id := range ids {
		if b.index(id) >= 0 && !b.sel.Contains(id) {
			b.sel.Toggle(id)
		}
	}
	b.selectionChanged()
}

// Find returns the element with id.
func (b *Board) Find(id string) (domain.Element, bool) {
	if i := b.index(id); i >= 0 {
		return b.elements[i], true
	}
	return domain.Element{}, false
}

// HitTest returns the top-most element under the surface position p.
// Later elements are drawn above earlier ones.
func (b *Board) HitTest(p geom.Pt) (domain.Element, bool) {
	st := b.store.Get()
	c := geom.ScreenToCanvas(p, st.Pan, st.Zoom)
	for i := len(b.elements) - 1; i >= 0; i-- {
		if b.elements[i].Bounds().Contains(c) {
			return b.elements[i], true
		}
	}
	return domain.Element{}, false
}

// PointerDown routes a surface press: elements get the first chance (drag or
// modifier click), then the pan controller. A primary press on empty canvas
// that does not start a pan clears the selection.
func (b *Board) PointerDown(ev interact.PointerEvent) interact.Disposition {
	el, onElement := b.HitTest(ev.Pos)
	if onElement {
		if disp := b.drag.PointerDown(el.ID, el.Position, ev); disp.Handled() {
			return disp
		}
	}
	if disp := b.pz.PointerDown(ev); disp.Handled() {
		return disp
	}
	if ev.Button != interact.ButtonPrimary {
		return 0
	}
	if onElement {
		b.click(el.ID, ev.Mods)
		return interact.PreventDefault | interact.StopPropagation
	}
	if b.sel.Len() > 0 {
		b.sel.Clear()
		b.selectionChanged()
	}
	return 0
}

// PointerMove feeds surface motion to the pan controller.
func (b *Board) PointerMove(ev interact.PointerEvent) interact.Disposition {
	return b.pz.PointerMove(ev)
}

// PointerUp ends a pan gesture.
func (b *Board) PointerUp(ev interact.PointerEvent) interact.Disposition {
	return b.pz.PointerUp(ev)
}

// PointerLeave ends a pan gesture when the pointer leaves the surface.
func (b *Board) PointerLeave() { b.pz.PointerLeave() }

// Wheel zooms toward the pointer.
func (b *Board) Wheel(ev interact.WheelEvent) interact.Disposition { return b.pz.Wheel(ev) }

// GlobalMove and GlobalUp deliver window-level pointer events to gesture listeners.
func (b *Board) GlobalMove(ev interact.PointerEvent) { b.bus.DispatchMove(ev) }

func (b *Board) GlobalUp(ev interact.PointerEvent) { b.bus.DispatchUp(ev) }

// Dragging reports the element being dragged, if a drag is underway.
func (b *Board) Dragging() (string, bool) {
	if !b.drag.Dragging() {
		return "", false
	}
	return b.drag.Active()
}

// Panning reports whether a pan gesture is underway.
func (b *Board) Panning() bool { return b.pz.Panning() }

// SetSnap changes grid snapping for later drags.
func (b *Board) SetSnap(enabled bool, grid float64) {
	b.opts.SnapToGrid = enabled
	b.opts.GridSize = grid
	b.drag.SetSnap(enabled, grid)
}

// AddNode appends a node at NewNodePosition and returns it. An empty label
// becomes "New Node <n>".
func (b *Board) AddNode(label string) domain.Element {
	n := len(b.elements) + 1
	id := fmt.Sprintf("node-%d", n)
	if b.index(id) >= 0 {
		id = "node-" + uuid.NewString()
	}
	if label == "" {
		label = fmt.Sprintf("New Node %d", n)
	}
	el := domain.Element{
		ID:       id,
		Type:     "node",
		Position: NewNodePosition,
		Data:     map[string]any{"label": label},
	}
	els := append(domain.CloneElements(b.elements), el)
	b.replace(els, "add")
	b.log.Info("node added", slog.String("id", id))
	return el
}

// RemoveSelected deletes the selected elements and returns how many were removed.
func (b *Board) RemoveSelected() int {
	if b.sel.Len() == 0 {
		return 0
	}
	els := make([]domain.Element, 0, len(b.elements))
	for _, e := range b.elements {
		if !b.sel.Contains(e.ID) {
			els = append(els, e)
		}
	}
	removed := len(b.elements) - len(els)
	b.sel.Clear()
	if removed > 0 {
		b.replace(els, "remove")
	}
	b.selectionChanged()
	return removed
}

// ResetView restores the default pan, zoom and tool.
func (b *Board) ResetView() { b.store.Reset() }

// SetTool switches the active tool. Unknown tools are ignored.
func (b *Board) SetTool(t viewstate.Tool) { b.store.SetTool(t) }

// Undo restores the previous element list. It reports false when there is no history.
func (b *Board) Undo() bool {
	if b.opts.Undo == nil {
		return false
	}
	s, ok := b.opts.Undo.Undo(b.opts.ID)
	return ok && b.restore(s)
}

// Redo re-applies the last undone change.
func (b *Board) Redo() bool {
	if b.opts.Undo == nil {
		return false
	}
	s, ok := b.opts.Undo.Redo(b.opts.ID)
	return ok && b.restore(s)
}

func (b *Board) restore(s undo.Snapshot) bool {
	var els []domain.Element
	if err := json.Unmarshal(s.Blob, &els); err != nil {
		b.log.Error("undo snapshot unreadable", slog.String("op", s.Op), slog.Any("err", err))
		return false
	}
	if els == nil {
		els = []domain.Element{}
	}
	b.elements = els
	b.elementsChanged()
	b.pruneSelection()
	return true
}

func (b *Board) setPosition(id string, pos geom.Pt) {
	i := b.index(id)
	if i < 0 || b.elements[i].Position.Eq(pos) {
		return
	}
	els := make([]domain.Element, len(b.elements))
	copy(els, b.elements)
	el := els[i].Clone()
	el.Position = pos
	els[i] = el
	b.elements = els
	b.elementsChanged()
}

func (b *Board) dragEnd(id string, pos geom.Pt) {
	b.log.Debug("drag end", slog.String("id", id), slog.Float64("x", pos.X), slog.Float64("y", pos.Y))
	b.snapshot("drag")
}

func (b *Board) click(id string, mods interact.Modifiers) {
	interact.ApplyClick(b.sel, id, mods, b.opts.ToggleModifier)
	b.selectionChanged()
}

func (b *Board) replace(els []domain.Element, op string) {
	b.elements = els
	b.elementsChanged()
	b.snapshot(op)
}

func (b *Board) snapshot(op string) {
	if b.opts.Undo == nil {
		return
	}
	blob, err := json.Marshal(b.elements)
	if err != nil {
		b.log.Error("snapshot encode failed", slog.String("op", op), slog.Any("err", err))
		return
	}
	b.opts.Undo.Push(undo.Snapshot{Board: b.opts.ID, Op: op, Blob: blob, TS: b.opts.Now()})
}

func (b *Board) pruneSelection() {
	changed := false
	for _, id := range b.sel.IDs() {
		if b.index(id) < 0 {
			b.sel.Remove(id)
			changed = true
		}
	}
	if changed {
		b.selectionChanged()
	}
}

func (b *Board) elementsChanged() {
	if b.opts.OnElementsChange != nil {
		b.opts.OnElementsChange(b.elements)
	}
}

func (b *Board) selectionChanged() {
	if b.opts.OnSelectionChange != nil {
		b.opts.OnSelectionChange(b.sel.IDs())
	}
}

func (b *Board) index(id string) int {
	for i, e := range b.elements {
		if e.ID == id {
			return i
		}
	}
	return -1
}
