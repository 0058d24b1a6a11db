/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interact

import (
	"log/slog"
	"math"

	"agentcanvas/internal/geom"
	applog "agentcanvas/internal/log"
	"agentcanvas/internal/viewstate"
)

// DefaultZoomSensitivity is the wheel gain: zoom changes by this fraction per unit of deltaY.
const DefaultZoomSensitivity = 0.001

// PanZoomOptions configures a PanZoom controller.
type PanZoomOptions struct {
	// ZoomSensitivity is the wheel-to-zoom gain. Zero or negative uses DefaultZoomSensitivity.
	ZoomSensitivity float64
	// AllowScroll keeps the platform's default wheel action (page scroll).
	// By default wheel events are marked PreventDefault.
	AllowScroll bool
	// PanModifier is the modifier that turns a primary-button press into a pan. Defaults to Ctrl.
	PanModifier Modifiers
}

// panMode is the pan gesture state.
type panMode int

const (
	panIdle panMode = iota
	panPanning
)

// PanZoom translates surface pointer and wheel events into view-state updates.
type PanZoom struct {
	store *viewstate.Store
	opts  PanZoomOptions
	log   *slog.Logger

	mode panMode
	last geom.Pt // last pointer position while panning
}

// NewPanZoom returns a controller writing to store.
func NewPanZoom(store *viewstate.Store, opts PanZoomOptions) *PanZoom {
	if !(opts.ZoomSensitivity > 0) || math.IsInf(opts.ZoomSensitivity, 0) {
		opts.ZoomSensitivity = DefaultZoomSensitivity
	}
	if opts.PanModifier == 0 {
		opts.PanModifier = ModCtrl
	}
	return &PanZoom{store: store, opts: opts, log: applog.WithComponent("panzoom")}
}

// Panning reports whether a pan gesture is in progress.
func (c *PanZoom) Panning() bool { return c.mode == panPanning }

// PointerDown starts panning on the middle button or on primary+PanModifier.
// Any other press is left alone.
func (c *PanZoom) PointerDown(ev PointerEvent) Disposition {
	if !c.triggers(ev) {
		return 0
	}
	c.mode = panPanning
	c.last = ev.Pos
	return PreventDefault
}

func (c *PanZoom) triggers(ev PointerEvent) bool {
	switch ev.Button {
	case ButtonMiddle:
		return true
	case ButtonPrimary:
		return ev.Mods.Has(c.opts.PanModifier)
	default:
		return false
	}
}

// PointerMove shifts the pan by the zoom-compensated movement since the last sample.
func (c *PanZoom) PointerMove(ev PointerEvent) Disposition {
	if c.mode != panPanning {
		return 0
	}
	d := geom.ScreenDeltaToCanvas(ev.Pos.Sub(c.last), c.store.Zoom())
	c.store.UpdatePan(d.X, d.Y)
	c.last = ev.Pos
	return PreventDefault
}

// PointerUp ends a pan.
func (c *PanZoom) PointerUp(PointerEvent) Disposition {
	c.end()
	return 0
}

// PointerLeave ends a pan when the pointer leaves the surface, so a release
// outside the surface cannot leave the controller stuck in the panning state.
func (c *PanZoom) PointerLeave() { c.end() }

func (c *PanZoom) end() {
	c.mode = panIdle
	c.last = geom.Pt{}
}

// Wheel zooms toward the pointer: the canvas point under ev.Pos stays under
// ev.Pos after the zoom changes. Zoom and pan are written as one update.
func (c *PanZoom) Wheel(ev WheelEvent) Disposition {
	var disp Disposition
	if !c.opts.AllowScroll {
		disp = PreventDefault
	}
	if ev.DeltaY == 0 || !geom.Finite(ev.DeltaY) {
		return disp
	}
	direction := 1.0
	if ev.DeltaY > 0 {
		direction = -1
	}
	factor := direction * c.opts.ZoomSensitivity * math.Abs(ev.DeltaY)

	c.store.Modify(func(cur viewstate.State) viewstate.State {
		newZoom := c.store.ClampZoom(cur.Zoom * (1 + factor))
		anchor := geom.ScreenToCanvas(ev.Pos, cur.Pan, cur.Zoom)
		cur.Pan = ZoomPan(anchor, ev.Pos, newZoom)
		cur.Zoom = newZoom
		return cur
	})
	c.log.Debug("wheel zoom", slog.Float64("deltaY", ev.DeltaY), slog.Float64("zoom", c.store.Zoom()))
	return disp
}

// ZoomPan returns the pan that keeps canvas point anchor at screen position
// pointer under zoom: it solves CanvasToScreen(anchor, pan, zoom) == pointer.
func ZoomPan(anchor, pointer geom.Pt, zoom float64) geom.Pt {
	return geom.Pt{X: pointer.X/zoom - anchor.X, Y: pointer.Y/zoom - anchor.Y}
}
