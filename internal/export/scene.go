/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	"agentcanvas/internal/domain"
	"agentcanvas/internal/geom"
	"agentcanvas/internal/textlayout"
)

// Options controls how a board is drawn.
// - Fit: ignore the saved view and frame all elements with Margin around them (zoom 1).
// - Width/Height: output size in pixels when not fitting; defaults 1024x768.
// - Background: "dots", "lines" or "none"; GridSize is the pattern spacing in canvas units.
// - Selected: ids drawn with the selection outline. Empty means the document's own selection.
//
//nolint:revive // clarity is preferred
type Options struct {
	Fit        bool
	Margin     float64
	Width      int
	Height     int
	Background string
	GridSize   float64
	Selected   []string
}

const (
	nodePadding   = 8.0
	defaultWidth  = 1024
	defaultHeight = 768
	defaultMargin = 20.0
	defaultGrid   = 20.0
)

var (
	white        = color.RGBA{255, 255, 255, 255}
	borderColor  = color.RGBA{0xdd, 0xdd, 0xdd, 255}
	selectColor  = color.RGBA{0x34, 0x98, 0xdb, 255}
	textColor    = color.RGBA{0x22, 0x22, 0x22, 255}
	patternColor = color.RGBA{0xcc, 0xcc, 0xcc, 255}
)

// sceneNode is one element resolved to output pixels.
type sceneNode struct {
	ID       string
	Rect     geom.Rect
	Fill     color.RGBA
	Selected bool
	Label    textlayout.Block
}

// scene is a board resolved to output pixels, in draw order.
type scene struct {
	W, H       float64
	Pan        geom.Pt
	Zoom       float64
	Background string
	Grid       float64
	Nodes      []sceneNode
}

func buildScene(doc domain.Document, opt Options) scene {
	sc := scene{Background: opt.Background, Grid: opt.GridSize}
	if sc.Grid <= 0 || math.IsNaN(sc.Grid) || math.IsInf(sc.Grid, 0) {
		sc.Grid = defaultGrid
	}
	switch sc.Background {
	case "dots", "lines", "none":
	default:
		sc.Background = "dots"
	}
	if opt.Fit {
		margin := opt.Margin
		if margin <= 0 {
			margin = defaultMargin
		}
		var bounds geom.Rect
		for _, e := range doc.Elements {
			bounds = bounds.Union(e.Bounds())
		}
		sc.Zoom = 1
		sc.Pan = geom.Pt{X: margin - bounds.X, Y: margin - bounds.Y}
		sc.W = math.Ceil(bounds.W + 2*margin)
		sc.H = math.Ceil(bounds.H + 2*margin)
	} else {
		sc.Zoom = doc.View.Zoom
		if !(sc.Zoom > 0) || math.IsInf(sc.Zoom, 0) {
			sc.Zoom = 1
		}
		sc.Pan = doc.View.Pan
		w, h := opt.Width, opt.Height
		if w <= 0 {
			w = defaultWidth
		}
		if h <= 0 {
			h = defaultHeight
		}
		sc.W, sc.H = float64(w), float64(h)
	}

	selected := opt.Selected
	if len(selected) == 0 {
		selected = doc.Selected
	}
	isSel := make(map[string]bool, len(selected))
	for _, id := range selected {
		isSel[id] = true
	}
	t := geom.ViewTransform(sc.Pan, sc.Zoom)
	for _, e := range doc.Elements {
		r := t.ApplyRect(e.Bounds())
		fill := NodeFill(e)
		inner := math.Max(r.W-2*nodePadding, 0)
		innerH := math.Max(r.H-2*nodePadding, 1)
		sc.Nodes = append(sc.Nodes, sceneNode{
			ID:       e.ID,
			Rect:     r,
			Fill:     fill,
			Selected: isSel[e.ID],
			Label:    textlayout.Wrap(textlayout.BasicProvider{}, e.Label(), inner, innerH),
		})
	}
	return sc
}


// NodeFill returns the element's style background, or white when unset,
// not a string, or unparsable.
func NodeFill(e domain.Element) color.RGBA {
	bg, _ := e.Style["background"].(string)
	if c, ok := parseHex(bg); ok {
		return c
	}
	return white
}

// parseHex reads #rgb or #rrggbb.
func parseHex(s string) (color.RGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, true
}
