/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package interact turns raw pointer input into view and element updates.
//
// PanZoom drives the shared view state (pan on middle-drag or Ctrl+drag, zoom
// toward the cursor on wheel). Dragger moves one element at a time and tells
// clicks apart from drags. Neither owns element data: proposed positions and
// clicks are reported through callbacks and the host decides what to keep.
//
// Everything here is synchronous and expects to be driven from a single event
// loop. Gesture-scoped window listeners are acquired from a PointerBus and
// released on every exit path.
package interact

import "agentcanvas/internal/geom"

// Button identifies a pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
	ButtonNone Button = -1
)

// Modifiers is a bit set of keyboard modifiers held during an event.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// Has reports whether all bits of m2 are set.
func (m Modifiers) Has(m2 Modifiers) bool { return m2 != 0 && m&m2 == m2 }

// None reports whether no modifier is held.
func (m Modifiers) None() bool { return m == 0 }

// PointerEvent is a pointer down/move/up sample. Pos is in screen space
// relative to the canvas surface origin.
type PointerEvent struct {
	Pos    geom.Pt
	Button Button
	Mods   Modifiers
}

// WheelEvent is a scroll sample. DeltaY > 0 means scrolling down.
type WheelEvent struct {
	Pos    geom.Pt
	DeltaY float64
	Mods   Modifiers
}

// Disposition tells the host what to do with the platform event after a handler ran.
type Disposition uint8

const (
	// PreventDefault suppresses the platform's default action (text selection, page scroll).
	PreventDefault Disposition = 1 << iota
	// StopPropagation keeps the event from reaching enclosing handlers.
	StopPropagation
)

// Handled reports whether the handler acted on the event.
func (d Disposition) Handled() bool { return d != 0 }

// Consumed reports whether the event must not propagate further.
func (d Disposition) Consumed() bool { return d&StopPropagation != 0 }
