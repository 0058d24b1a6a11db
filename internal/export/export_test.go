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
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"agentcanvas/internal/domain"
	"agentcanvas/internal/geom"
)

func sampleDoc() domain.Document {
	d := domain.NewDocument("Export <Test>", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	d.Elements = []domain.Element{
		{ID: "1", Type: "node", Position: geom.P(100, 100), Data: map[string]any{"label": "Node 1"}, Style: map[string]any{"background": "#f5f5ff"}},
		{ID: "2", Type: "node", Position: geom.P(300, 200), Data: map[string]any{"label": "A & B"}},
		{ID: "3", Type: "node", Position: geom.P(150, 300)},
	}
	d.Selected = []string{"2"}
	return d
}

func TestBuildSceneFitFramesContent(t *testing.T) {
	sc := buildScene(sampleDoc(), Options{Fit: true, Margin: 10})
	// content spans (100,100)..(400,360)
	if sc.W != 320 || sc.H != 280 || sc.Zoom != 1 {
		t.Fatalf("scene size = %vx%v zoom %v", sc.W, sc.H, sc.Zoom)
	}
	if sc.Nodes[0].Rect != geom.R(10, 10, 100, 60) {
		t.Fatalf("first node rect = %+v", sc.Nodes[0].Rect)
	}
	if !sc.Nodes[1].Selected || sc.Nodes[0].Selected {
		t.Fatalf("selection not carried from document")
	}
	if sc.Nodes[0].Fill != (color.RGBA{0xf5, 0xf5, 0xff, 255}) {
		t.Fatalf("style background not applied: %+v", sc.Nodes[0].Fill)
	}
	if sc.Nodes[2].Label.Lines[0] != "Node 3" {
		t.Fatalf("label fallback = %q", sc.Nodes[2].Label.Lines)
	}
}

func TestBuildSceneUsesSavedView(t *testing.T) {
	d := sampleDoc()
	d.View.Zoom = 2
	d.View.Pan = geom.P(-50, 0)
	sc := buildScene(d, Options{Width: 800, Height: 600, Selected: []string{"1"}})
	if sc.W != 800 || sc.H != 600 {
		t.Fatalf("size = %vx%v", sc.W, sc.H)
	}
	if sc.Nodes[0].Rect != geom.R(100, 200, 200, 120) {
		t.Fatalf("zoomed rect = %+v", sc.Nodes[0].Rect)
	}
	if !sc.Nodes[0].Selected || sc.Nodes[1].Selected {
		t.Fatalf("explicit selection should win over the document's")
	}
}

func TestPNGDrawsNodes(t *testing.T) {
	var buf bytes.Buffer
	if err := PNG(sampleDoc(), &buf, Options{Fit: true, Margin: 10, Background: "none"}); err != nil {
		t.Fatalf("export png: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 280 {
		t.Fatalf("bounds = %v", b)
	}
	// top-left corner of the border of node 1, and the selection outline of node 2
	if c := color.RGBAModel.Convert(img.At(10, 10)).(color.RGBA); c != borderColor {
		t.Fatalf("node border = %+v", c)
	}
	if c := color.RGBAModel.Convert(img.At(211, 111)).(color.RGBA); c != selectColor {
		t.Fatalf("selection outline = %+v", c)
	}
	if c := color.RGBAModel.Convert(img.At(5, 5)).(color.RGBA); c != white {
		t.Fatalf("background = %+v", c)
	}
}

func TestSVGEscapesAndMarksSelection(t *testing.T) {
	var buf bytes.Buffer
	if err := SVG(sampleDoc(), &buf, Options{Fit: true, Background: "lines"}); err != nil {
		t.Fatalf("export svg: %v", err)
	}
	s := buf.String()
	for _, want := range []string{"<title>Export &lt;Test&gt;</title>", "A &amp; B", `data-id="2"`, `stroke="#3498db"`, "<line "} {
		if !strings.Contains(s, want) {
			t.Fatalf("svg missing %q", want)
		}
	}
}

func TestPDFAndBatch(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "nested", "board.pdf")
	if err := PDF(sampleDoc(), out, Options{Fit: true}); err != nil {
		t.Fatalf("export pdf: %v", err)
	}
	if st, err := os.Stat(out); err != nil || st.Size() == 0 {
		t.Fatalf("pdf missing or empty: %v", err)
	}

	written, err := Batch(sampleDoc(), BatchOptions{Preset: PresetPrint, OutDir: filepath.Join(dir, "print"), Base: "plan"})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(written) != 2 || filepath.Base(written[0]) != "plan.pdf" || filepath.Base(written[1]) != "plan.png" {
		t.Fatalf("written = %v", written)
	}
	for _, p := range written {
		if st, err := os.Stat(p); err != nil || st.Size() == 0 {
			t.Fatalf("%s missing or empty: %v", p, err)
		}
	}
	if _, err := Batch(sampleDoc(), BatchOptions{OutDir: dir, Formats: []string{"gif"}}); err == nil {
		t.Fatalf("unknown format should fail")
	}
}

func TestNodeFillReadsOnlyStringBackgrounds(t *testing.T) {
	cases := []struct {
		style map[string]any
		want  color.RGBA
	}{
		{map[string]any{"background": "#f00"}, color.RGBA{R: 0xff, A: 0xff}},
		{map[string]any{"background": "#00ff00", "zIndex": 3}, color.RGBA{G: 0xff, A: 0xff}},
		{map[string]any{"background": 42}, white},
		{map[string]any{"background": "nope"}, white},
		{nil, white},
	}
	for _, c := range cases {
		if got := NodeFill(domain.Element{ID: "a", Style: c.style}); got != c.want {
			t.Fatalf("NodeFill(%v) = %v, want %v", c.style, got, c.want)
		}
	}
}
