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

	"agentcanvas/internal/geom"
	"agentcanvas/internal/viewstate"
)

// DefaultClickThreshold is how far (screen px) the pointer may wander before a press becomes a drag.
const DefaultClickThreshold = 3.0

// DragOptions configures a Dragger.
type DragOptions struct {
	SnapToGrid bool
	GridSize   float64
	// ClickThreshold is the screen distance below which a press+release is a click.
	// Negative means any movement at all starts a drag. Zero uses DefaultClickThreshold.
	ClickThreshold float64

	// OnPositionChange receives proposed canvas positions while dragging.
	OnPositionChange func(id string, pos geom.Pt)
	// OnClick fires once for a press and release without drag motion.
	OnClick func(id string, mods Modifiers)
	// OnDragEnd fires after a drag whose final position differs from the
	// element's origin, with that position. A drag that snaps back to the
	// origin fires neither OnDragEnd nor OnClick.
	OnDragEnd func(id string, pos geom.Pt)
}

type dragMode int

const (
	dragIdle dragMode = iota
	// button down, still within the click threshold
	dragPressed
	dragMoving
)

// dragSession is one gesture. It is never reused.
type dragSession struct {
	id      string
	start   geom.Pt // screen
	origin  geom.Pt // element canvas position at press
	last    geom.Pt // last proposed canvas position
	mods    Modifiers
	release Release
}

// Dragger moves elements by pointer. Only one element may be dragged at a time.
type Dragger struct {
	store *viewstate.Store
	bus   *PointerBus
	opts  DragOptions

	mode    dragMode
	session *dragSession
}

// NewDragger returns a controller reading zoom from store and listening on bus.
func NewDragger(store *viewstate.Store, bus *PointerBus, opts DragOptions) *Dragger {
	if opts.ClickThreshold == 0 {
		opts.ClickThreshold = DefaultClickThreshold
	}
	if opts.ClickThreshold < 0 || math.IsNaN(opts.ClickThreshold) {
		opts.ClickThreshold = 0
	}
	return &Dragger{store: store, bus: bus, opts: opts}
}

// Active returns the id being pressed or dragged, if any.
func (d *Dragger) Active() (string, bool) {
	if d.session == nil {
		return "", false
	}
	return d.session.id, true
}

// Dragging reports whether the active press has turned into a drag.
func (d *Dragger) Dragging() bool { return d.mode == dragMoving }

// SetSnap toggles grid snapping for future moves.
func (d *Dragger) SetSnap(enabled bool, grid float64) {
	d.opts.SnapToGrid = enabled
	d.opts.GridSize = grid
}

// PointerDown begins a press on element id whose current canvas position is origin.
// Only the primary button without modifiers starts a press; modifier clicks are
// reserved for selection and return an unhandled disposition. A started press
// is fully consumed.
func (d *Dragger) PointerDown(id string, origin geom.Pt, ev PointerEvent) Disposition {
	if ev.Button != ButtonPrimary || !ev.Mods.None() {
		return 0
	}
	if d.session != nil {
		// A press always ends with an up; a second down means we missed it.
		d.Cancel()
	}
	s := &dragSession{id: id, start: ev.Pos, origin: origin, last: origin, mods: ev.Mods}
	s.release = d.bus.Acquire(
		func(e PointerEvent) { d.move(s, e) },
		func(e PointerEvent) { d.up(s, e) },
	)
	d.session = s
	d.mode = dragPressed
	return PreventDefault | StopPropagation
}

// Cancel abandons the current gesture without a click or drag end.
func (d *Dragger) Cancel() {
	if d.session == nil {
		return
	}
	d.finish()
}

func (d *Dragger) move(s *dragSession, ev PointerEvent) {
	if d.session != s {
		return // stale listener from an earlier gesture
	}
	screen := ev.Pos.Sub(s.start)
	if d.mode == dragPressed {
		if screen.Len() <= d.opts.ClickThreshold {
			return
		}
		d.mode = dragMoving
	}
	pos := s.origin.Add(geom.ScreenDeltaToCanvas(screen, d.store.Zoom()))
	if d.opts.SnapToGrid {
		pos = geom.SnapToGrid(pos, d.opts.GridSize)
	}
	if pos.Eq(s.last) {
		return
	}
	s.last = pos
	if d.opts.OnPositionChange != nil {
		d.opts.OnPositionChange(s.id, pos)
	}
}

func (d *Dragger) up(s *dragSession, ev PointerEvent) {
	if d.session != s {
		return
	}
	// A release can arrive without a preceding move at its position.
	d.move(s, ev)
	moved := d.mode == dragMoving
	d.finish()
	switch {
	case moved && s.last.Eq(s.origin):
	case moved && d.opts.OnDragEnd != nil:
		d.opts.OnDragEnd(s.id, s.last)
	case !moved && d.opts.OnClick != nil:
		d.opts.OnClick(s.id, s.mods)
	}
}

func (d *Dragger) finish() {
	s := d.session
	d.session = nil
	d.mode = dragIdle
	if s != nil && s.release != nil {
		s.release()
	}
}
