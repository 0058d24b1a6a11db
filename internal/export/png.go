/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"agentcanvas/internal/domain"
	"agentcanvas/internal/geom"
)

// PNG rasterizes the board and encodes it to w.
func PNG(doc domain.Document, w io.Writer, opt Options) error {
	img := Raster(doc, opt)
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Raster draws the board into a new RGBA image.
func Raster(doc domain.Document, opt Options) *image.RGBA {
	sc := buildScene(doc, opt)
	pixW, pixH := int(math.Round(sc.W)), int(math.Round(sc.H))
	img := image.NewRGBA(image.Rect(0, 0, pixW, pixH))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: white}, image.Point{}, draw.Src)

	switch sc.Background {
	case "dots":
		for _, y := range geom.GridOffsets(sc.H, sc.Pan.Y, sc.Zoom, sc.Grid) {
			for _, x := range geom.GridOffsets(sc.W, sc.Pan.X, sc.Zoom, sc.Grid) {
				img.SetRGBA(int(x), int(y), patternColor)
			}
		}
	case "lines":
		for _, x := range geom.GridOffsets(sc.W, sc.Pan.X, sc.Zoom, sc.Grid) {
			fillRect(img, int(x), 0, int(x), pixH-1, patternColor)
		}
		for _, y := range geom.GridOffsets(sc.H, sc.Pan.Y, sc.Zoom, sc.Grid) {
			fillRect(img, 0, int(y), pixW-1, int(y), patternColor)
		}
	}

	face := basicfont.Face7x13
	for _, n := range sc.Nodes {
		x0 := int(math.Round(n.Rect.X))
		y0 := int(math.Round(n.Rect.Y))
		x1 := int(math.Round(n.Rect.X+n.Rect.W)) - 1
		y1 := int(math.Round(n.Rect.Y+n.Rect.H)) - 1
		fillRect(img, x0, y0, x1, y1, n.Fill)
		if n.Selected {
			strokeRect(img, x0, y0, x1, y1, selectColor)
			strokeRect(img, x0+1, y0+1, x1-1, y1-1, selectColor)
		} else {
			strokeRect(img, x0, y0, x1, y1, borderColor)
		}
		d := &font.Drawer{Dst: img, Src: image.NewUniform(textColor), Face: face}
		lh := n.Label.Metrics.LineHeight()
		for i, line := range n.Label.Lines {
			baseline := n.Rect.Y + nodePadding + n.Label.Metrics.Ascent + float64(i)*lh
			d.Dot = fixed.P(x0+int(nodePadding), int(math.Round(baseline)))
			d.DrawString(line)
		}
	}
	return img
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	// top and bottom
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	// left and right
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	draw.Draw(img, image.Rect(x0, y0, x1+1, y1+1), &image.Uniform{C: col}, image.Point{}, draw.Src)
}
