//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"agentcanvas/internal/board"
	"agentcanvas/internal/domain"
	"agentcanvas/internal/export"
	"agentcanvas/internal/geom"
	"agentcanvas/internal/interact"
	"agentcanvas/internal/textlayout"
	"agentcanvas/internal/viewstate"
)

var (
	surfaceColor = color.RGBA{R: 250, G: 250, B: 250, A: 255}
	patternColor = color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 255}
	borderColor  = color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 255}
	selectColor  = color.RGBA{R: 0x34, G: 0x98, B: 0xdb, A: 255}
	labelColor   = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 255}
)

const (
	labelPadding = 8.0  // canvas units
	labelSize    = 11.5 // canvas units
	maxDots      = 4000
)

// BoardWidget draws a board and feeds Fyne pointer input into it.
// Fyne keeps delivering Dragged to the widget that saw the press, so drags
// double as the window-level move events the board expects.
type BoardWidget struct {
	widget.BaseWidget

	board      *board.Board
	background string
	grid       float64

	mods    interact.Modifiers
	last    geom.Pt
	pressed bool
	cancel  func()

	// OnChange runs after input that may have changed the board or its view.
	OnChange func()
}

var (
	_ desktop.Mouseable = (*BoardWidget)(nil)
	_ desktop.Hoverable = (*BoardWidget)(nil)
	_ fyne.Draggable    = (*BoardWidget)(nil)
	_ fyne.Scrollable   = (*BoardWidget)(nil)
)

// NewBoardWidget returns a widget for b. background is "dots", "lines" or "none".
func NewBoardWidget(b *board.Board, background string, grid float64) *BoardWidget {
	w := &BoardWidget{board: b, background: background, grid: grid}
	w.cancel = b.Store().Subscribe(func(viewstate.State) { w.Refresh() })
	w.ExtendBaseWidget(w)
	return w
}

// Board returns the board drawn by the widget.
func (w *BoardWidget) Board() *board.Board { return w.board }

// Detach stops following the board's view store.
func (w *BoardWidget) Detach() {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

func (w *BoardWidget) MinSize() fyne.Size { return fyne.NewSize(320, 240) }

func (w *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	ev := mouseEvent(e)
	w.mods, w.last, w.pressed = ev.Mods, ev.Pos, true
	w.board.PointerDown(ev)
	w.changed()
}

func (w *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	w.release(mouseEvent(e))
}

func (w *BoardWidget) MouseIn(*desktop.MouseEvent) {}

func (w *BoardWidget) MouseMoved(e *desktop.MouseEvent) {
	if !w.pressed {
		return
	}
	w.move(mouseEvent(e))
}

func (w *BoardWidget) MouseOut() { w.board.PointerLeave() }

func (w *BoardWidget) Dragged(e *fyne.DragEvent) {
	w.move(interact.PointerEvent{Pos: toPt(e.Position), Button: interact.ButtonPrimary, Mods: w.mods})
}

// DragEnd may arrive with or without a MouseUp; releasing twice is harmless.
func (w *BoardWidget) DragEnd() {
	if w.pressed {
		w.release(interact.PointerEvent{Pos: w.last, Button: interact.ButtonPrimary, Mods: w.mods})
	}
}

func (w *BoardWidget) Scrolled(e *fyne.ScrollEvent) {
	w.board.Wheel(wheelEvent(e, w.mods))
	w.changed()
}

func (w *BoardWidget) move(ev interact.PointerEvent) {
	w.last = ev.Pos
	w.board.PointerMove(ev)
	w.board.GlobalMove(ev)
	w.changed()
}

func (w *BoardWidget) release(ev interact.PointerEvent) {
	w.pressed = false
	w.board.PointerUp(ev)
	w.board.GlobalUp(ev)
	w.changed()
}

func (w *BoardWidget) changed() {
	w.Refresh()
	if w.OnChange != nil {
		w.OnChange()
	}
}

func (w *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &boardRenderer{w: w, bg: canvas.NewRectangle(surfaceColor)}
	r.rebuild(w.Size())
	return r
}

// boardRenderer rebuilds the scene on every refresh; boards are small.
type boardRenderer struct {
	w       *BoardWidget
	bg      *canvas.Rectangle
	objects []fyne.CanvasObject
}

func (r *boardRenderer) Destroy()                     {}
func (r *boardRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *boardRenderer) MinSize() fyne.Size           { return r.w.MinSize() }
func (r *boardRenderer) Layout(size fyne.Size)        { r.rebuild(size) }
func (r *boardRenderer) Refresh() {
	r.rebuild(r.w.Size())
	canvas.Refresh(r.w)
}

func (r *boardRenderer) rebuild(size fyne.Size) {
	r.bg.Move(fyne.NewPos(0, 0))
	r.bg.Resize(size)
	objs := []fyne.CanvasObject{r.bg}
	st := r.w.board.Store().Get()
	objs = append(objs, patternObjects(r.w.background, size, st.Pan, st.Zoom, r.w.grid)...)
	r.w.board.Render(func(p board.NodeProps) {
		objs = append(objs, nodeObjects(p, st.Zoom)...)
	})
	r.objects = objs
}

func patternObjects(kind string, size fyne.Size, pan geom.Pt, zoom, grid float64) []fyne.CanvasObject {
	xs := geom.GridOffsets(float64(size.Width), pan.X, zoom, grid)
	ys := geom.GridOffsets(float64(size.Height), pan.Y, zoom, grid)
	var out []fyne.CanvasObject
	switch kind {
	case "lines":
		for _, x := range xs {
			l := canvas.NewLine(patternColor)
			l.Position1 = fyne.NewPos(float32(x), 0)
			l.Position2 = fyne.NewPos(float32(x), size.Height)
			out = append(out, l)
		}
		for _, y := range ys {
			l := canvas.NewLine(patternColor)
			l.Position1 = fyne.NewPos(0, float32(y))
			l.Position2 = fyne.NewPos(size.Width, float32(y))
			out = append(out, l)
		}
	case "dots":
		if len(xs)*len(ys) > maxDots {
			return nil
		}
		for _, y := range ys {
			for _, x := range xs {
				d := canvas.NewCircle(patternColor)
				d.Move(fyne.NewPos(float32(x)-1, float32(y)-1))
				d.Resize(fyne.NewSize(2, 2))
				out = append(out, d)
			}
		}
	}
	return out
}

func nodeObjects(p board.NodeProps, zoom float64) []fyne.CanvasObject {
	box := canvas.NewRectangle(export.NodeFill(p.Element))
	box.StrokeColor = borderColor
	box.StrokeWidth = 1
	if p.Selected {
		box.StrokeColor = selectColor
		box.StrokeWidth = 2
	}
	box.CornerRadius = float32(4 * zoom)
	box.Move(fyne.NewPos(float32(p.Bounds.X), float32(p.Bounds.Y)))
	box.Resize(fyne.NewSize(float32(p.Bounds.W), float32(p.Bounds.H)))
	out := []fyne.CanvasObject{box}

	block := textlayout.Wrap(textlayout.BasicProvider{}, p.Element.Label(),
		domain.NodeMinWidth-2*labelPadding, domain.NodeMinHeight-2*labelPadding)
	lh := block.Metrics.LineHeight()
	for i, line := range block.Lines {
		t := canvas.NewText(line, labelColor)
		t.TextSize = float32(labelSize * zoom)
		t.TextStyle = fyne.TextStyle{Monospace: true}
		t.Move(fyne.NewPos(
			float32(p.Bounds.X+labelPadding*zoom),
			float32(p.Bounds.Y+(labelPadding+float64(i)*lh)*zoom),
		))
		out = append(out, t)
	}
	return out
}
