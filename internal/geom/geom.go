/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package geom maps between screen space (viewport pixels) and canvas space
// (the unbounded logical plane elements live in). Every mapping is a pure
// function of a pan offset and a zoom factor:
//
//	screen = (canvas + pan) * zoom
//	canvas = screen/zoom - pan
//
// Callers keep zoom > 0; the functions do not guard against it.
package geom

import "math"

// Pt is a 2D point or vector.
type Pt struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// P is shorthand for Pt{x, y}.
func P(x, y float64) Pt { return Pt{X: x, Y: y} }

func (p Pt) Add(q Pt) Pt        { return Pt{p.X + q.X, p.Y + q.Y} }
func (p Pt) Sub(q Pt) Pt        { return Pt{p.X - q.X, p.Y - q.Y} }
func (p Pt) Scale(f float64) Pt { return Pt{p.X * f, p.Y * f} }
func (p Pt) Len() float64       { return math.Hypot(p.X, p.Y) }
func (p Pt) Eq(q Pt) bool       { return p.X == q.X && p.Y == q.Y }
func (p Pt) Finite() bool       { return finite(p.X) && finite(p.Y) }
func (p Pt) Near(q Pt, eps float64) bool {
	return math.Abs(p.X-q.X) <= eps && math.Abs(p.Y-q.Y) <= eps
}

// ScreenToCanvas converts a viewport position into canvas space.
func ScreenToCanvas(s, pan Pt, zoom float64) Pt {
	return Pt{X: s.X/zoom - pan.X, Y: s.Y/zoom - pan.Y}
}

// CanvasToScreen is the inverse of ScreenToCanvas.
func CanvasToScreen(c, pan Pt, zoom float64) Pt {
	return Pt{X: (c.X + pan.X) * zoom, Y: (c.Y + pan.Y) * zoom}
}

// ScreenDeltaToCanvas scales a screen movement vector into canvas units.
// Relative drag math uses this instead of converting absolute positions.
func ScreenDeltaToCanvas(d Pt, zoom float64) Pt {
	return Pt{X: d.X / zoom, Y: d.Y / zoom}
}

// SnapToGrid rounds each axis of p to the nearest multiple of grid.
// A non-positive or non-finite grid leaves p unchanged.
func SnapToGrid(p Pt, grid float64) Pt {
	if !(grid > 0) || math.IsInf(grid, 0) {
		return p
	}
	return Pt{X: snap(p.X, grid), Y: snap(p.Y, grid)}
}

func snap(v, g float64) float64 {
	r := math.Round(v/g) * g
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}

// Clamp limits v to [lo, hi]. Inverted bounds are swapped.
func Clamp(v, lo, hi float64) float64 {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool { return finite(v) }

// GridOffsets returns the screen offsets of grid lines along one axis of a
// surface extent wide. Nil when the lines would be closer than 4 px.
func GridOffsets(extent, pan, zoom, grid float64) []float64 {
	step := grid * zoom
	if step < 4 {
		return nil // too dense to be useful
	}
	// first canvas multiple of grid on screen
	start := math.Mod(pan*zoom, step)
	if start < 0 {
		start += step
	}
	var out []float64
	for v := start; v <= extent; v += step {
		out = append(out, v)
	}
	return out
}
