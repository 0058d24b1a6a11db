/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"agentcanvas/internal/domain"
	"agentcanvas/internal/geom"
)

// SVG writes the board as a standalone SVG document to w.
func SVG(doc domain.Document, w io.Writer, opt Options) error {
	sc := buildScene(doc, opt)

	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%gpx\" height=\"%gpx\" viewBox=\"0 0 %g %g\">\n", sc.W, sc.H, sc.W, sc.H)
	wf("  <title>%s</title>\n", escText(doc.Name))
	wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"#ffffff\"/>\n", sc.W, sc.H)

	pc := svgColor(patternColor)
	switch sc.Background {
	case "dots":
		wf("  <g fill=\"%s\">\n", pc)
		for _, y := range geom.GridOffsets(sc.H, sc.Pan.Y, sc.Zoom, sc.Grid) {
			for _, x := range geom.GridOffsets(sc.W, sc.Pan.X, sc.Zoom, sc.Grid) {
				wf("    <circle cx=\"%g\" cy=\"%g\" r=\"1\"/>\n", x, y)
			}
		}
		wf("  </g>\n")
	case "lines":
		wf("  <g stroke=\"%s\" stroke-width=\"1\">\n", pc)
		for _, x := range geom.GridOffsets(sc.W, sc.Pan.X, sc.Zoom, sc.Grid) {
			wf("    <line x1=\"%g\" y1=\"0\" x2=\"%g\" y2=\"%g\"/>\n", x, x, sc.H)
		}
		for _, y := range geom.GridOffsets(sc.H, sc.Pan.Y, sc.Zoom, sc.Grid) {
			wf("    <line x1=\"0\" y1=\"%g\" x2=\"%g\" y2=\"%g\"/>\n", y, sc.W, y)
		}
		wf("  </g>\n")
	}

	for _, n := range sc.Nodes {
		stroke, width := svgColor(borderColor), 1.0
		if n.Selected {
			stroke, width = svgColor(selectColor), 2.0
		}
		r := n.Rect
		wf("  <g data-id=\"%s\">\n", escAttr(n.ID))
		wf("    <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" rx=\"4\" ry=\"4\" fill=\"%s\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
			r.X, r.Y, r.W, r.H, svgColor(n.Fill), stroke, width)
		lh := n.Label.Metrics.LineHeight()
		for i, line := range n.Label.Lines {
			y := r.Y + nodePadding + n.Label.Metrics.Ascent + float64(i)*lh
			wf("    <text x=\"%g\" y=\"%g\" font-family=\"monospace\" font-size=\"13\" fill=\"%s\">%s</text>\n",
				r.X+nodePadding, y, svgColor(textColor), escText(line))
		}
		wf("  </g>\n")
	}
	wf("</svg>\n")

	if werr != nil {
		return fmt.Errorf("build svg: %w", werr)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func svgColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func escAttr(s string) string {
	// naive escaping sufficient for ids and font names
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '"':
			out = append(out, "&quot;"...)
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '\n':
			out = append(out, ' ')
		case '\r':
			// skip
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
