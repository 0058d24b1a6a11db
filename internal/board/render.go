/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package board

import (
	"fmt"
	"io"
	"log/slog"

	"agentcanvas/internal/domain"
	"agentcanvas/internal/geom"
	"agentcanvas/internal/interact"
)

// NodeProps is what a renderer gets for one element.
type NodeProps struct {
	Element  domain.Element
	Selected bool
	// Bounds is the element's box in surface (screen) coordinates.
	Bounds geom.Rect

	// OnPositionChange moves an element to a canvas position.
	OnPositionChange func(id string, pos geom.Pt)
	// OnClick applies a click with modifiers to the selection.
	OnClick func(id string, mods interact.Modifiers)
}

// RenderFunc draws one element.
type RenderFunc func(NodeProps)

// Render visits elements in draw order. A nil fn logs each element at
// debug level in DefaultRender form.
func (b *Board) Render(fn RenderFunc) {
	if fn == nil {
		fn = b.debugRender
	}
	st := b.store.Get()
	t := geom.ViewTransform(st.Pan, st.Zoom)
	for _, e := range b.elements {
		fn(NodeProps{
			Element:          e,
			Selected:         b.sel.Contains(e.ID),
			Bounds:           t.ApplyRect(e.Bounds()),
			OnPositionChange: b.setPosition,
			OnClick:          b.click,
		})
	}
}

func (b *Board) debugRender(p NodeProps) {
	b.log.Debug("render", slog.String("id", p.Element.ID), slog.String("node", DefaultRender(p)))
}

// TextRenderer writes one DefaultRender line per element to w.
func TextRenderer(w io.Writer) RenderFunc {
	return func(p NodeProps) {
		fmt.Fprintln(w, DefaultRender(p))
	}
}

// DefaultRender describes a node as one line of text, the way the CLI lists it.
func DefaultRender(p NodeProps) string {
	mark := " "
	if p.Selected {
		mark = "*"
	}
	return fmt.Sprintf("%s %-12s %-20q canvas=(%g,%g) screen=(%.1f,%.1f %.1fx%.1f)",
		mark, p.Element.ID, p.Element.Label(),
		p.Element.Position.X, p.Element.Position.Y,
		p.Bounds.X, p.Bounds.Y, p.Bounds.W, p.Bounds.H)
}
