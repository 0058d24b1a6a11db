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
	"image/color"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"agentcanvas/internal/domain"
	"agentcanvas/internal/geom"
)

// PDF writes the board as a single-page vector PDF at outPath. One output
// pixel maps to one point.
func PDF(doc domain.Document, outPath string, opt Options) error {
	sc := buildScene(doc, opt)

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: sc.W, Ht: sc.H},
	})
	pdf.SetTitle(doc.Name, true)
	pdf.SetAuthor("agentcanvas", false)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: sc.W, Ht: sc.H})

	switch sc.Background {
	case "dots":
		setFillColor(pdf, patternColor)
		for _, y := range geom.GridOffsets(sc.H, sc.Pan.Y, sc.Zoom, sc.Grid) {
			for _, x := range geom.GridOffsets(sc.W, sc.Pan.X, sc.Zoom, sc.Grid) {
				pdf.Circle(x, y, 0.75, "F")
			}
		}
	case "lines":
		setDrawColor(pdf, patternColor)
		pdf.SetLineWidth(0.5)
		for _, x := range geom.GridOffsets(sc.W, sc.Pan.X, sc.Zoom, sc.Grid) {
			pdf.Line(x, 0, x, sc.H)
		}
		for _, y := range geom.GridOffsets(sc.H, sc.Pan.Y, sc.Zoom, sc.Grid) {
			pdf.Line(0, y, sc.W, y)
		}
	}

	// Labels were wrapped for 7px cells; 11.5pt Courier advances about 6.9pt.
	pdf.SetFont("Courier", "", 11.5)
	for _, n := range sc.Nodes {
		r := n.Rect
		setFillColor(pdf, n.Fill)
		if n.Selected {
			setDrawColor(pdf, selectColor)
			pdf.SetLineWidth(2)
		} else {
			setDrawColor(pdf, borderColor)
			pdf.SetLineWidth(1)
		}
		pdf.Rect(r.X, r.Y, r.W, r.H, "FD")
		pdf.SetTextColor(int(textColor.R), int(textColor.G), int(textColor.B))
		lh := n.Label.Metrics.LineHeight()
		for i, line := range n.Label.Lines {
			y := r.Y + nodePadding + n.Label.Metrics.Ascent + float64(i)*lh
			pdf.Text(r.X+nodePadding, y, line)
		}
	}

	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure out dir: %w", err)
		}
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func setDrawColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}
