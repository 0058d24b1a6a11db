/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import (
	"math"
	"math/rand"
	"testing"
)

func TestScreenCanvasRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		pan := P(rng.Float64()*2000-1000, rng.Float64()*2000-1000)
		zoom := 0.1 + rng.Float64()*4.9
		s := P(rng.Float64()*4000-2000, rng.Float64()*4000-2000)
		back := CanvasToScreen(ScreenToCanvas(s, pan, zoom), pan, zoom)
		if !back.Near(s, 1e-9) {
			t.Fatalf("round trip drift: s=%v pan=%v zoom=%v -> %v", s, pan, zoom, back)
		}
	}
}

func TestScreenToCanvasFormula(t *testing.T) {
	got := ScreenToCanvas(P(200, 100), P(10, -5), 2)
	if got != P(90, 55) {
		t.Fatalf("ScreenToCanvas = %v, want (90,55)", got)
	}
	if s := CanvasToScreen(got, P(10, -5), 2); s != P(200, 100) {
		t.Fatalf("CanvasToScreen = %v", s)
	}
}

func TestScreenDeltaToCanvas(t *testing.T) {
	if d := ScreenDeltaToCanvas(P(30, -15), 0.5); d != P(60, -30) {
		t.Fatalf("delta at zoom 0.5 = %v", d)
	}
	if d := ScreenDeltaToCanvas(P(30, 15), 1); d != P(30, 15) {
		t.Fatalf("delta at zoom 1 = %v", d)
	}
}

func TestSnapToGrid(t *testing.T) {
	if got := SnapToGrid(P(140, 53), 20); got != P(140, 60) {
		t.Fatalf("snap = %v, want (140,60)", got)
	}
	if got := SnapToGrid(P(-9, -11), 20); got != P(0, -20) {
		t.Fatalf("negative snap = %v", got)
	}
	if math.Signbit(SnapToGrid(P(-3, 0), 20).X) {
		t.Fatalf("negative zero leaked")
	}
	for _, g := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		if got := SnapToGrid(P(13.5, 7.25), g); got != P(13.5, 7.25) {
			t.Fatalf("grid %v should be identity, got %v", g, got)
		}
	}
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		p := SnapToGrid(P(rng.Float64()*1e4-5e3, rng.Float64()*1e4-5e3), 20)
		if math.Mod(p.X, 20) != 0 || math.Mod(p.Y, 20) != 0 {
			t.Fatalf("not on grid: %v", p)
		}
	}
}

func TestClamp(t *testing.T) {
	if Clamp(7, 0.1, 5) != 5 || Clamp(-1, 0.1, 5) != 0.1 || Clamp(2, 0.1, 5) != 2 {
		t.Fatalf("clamp basic")
	}
	if Clamp(7, 5, 0.1) != 5 {
		t.Fatalf("inverted bounds should be swapped")
	}
}

func TestViewTransformMatchesCanvasToScreen(t *testing.T) {
	pan, zoom := P(12.5, -40), 1.75
	m := ViewTransform(pan, zoom)
	for _, c := range []Pt{P(0, 0), P(100, 60), P(-33, 7.5)} {
		if got, want := m.Apply(c), CanvasToScreen(c, pan, zoom); !got.Near(want, 1e-12) {
			t.Fatalf("transform %v: got %v want %v", c, got, want)
		}
	}
}

func TestRectContainsAndUnion(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(P(10, 20)) || !r.Contains(P(110, 70)) || r.Contains(P(111, 70)) {
		t.Fatalf("contains edges")
	}
	u := r.Union(R(-10, 0, 5, 5))
	if u != R(-10, 0, 120, 70) {
		t.Fatalf("union = %+v", u)
	}
	if (Rect{}).Union(r) != r {
		t.Fatalf("empty union")
	}
}

func TestGridOffsets(t *testing.T) {
	got := GridOffsets(50, 5, 1, 20)
	want := []float64{5, 25, 45}
	if len(got) != len(want) {
		t.Fatalf("lines = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("lines = %v, want %v", got, want)
		}
	}
	if neg := GridOffsets(30, -5, 1, 20); neg[0] != 15 {
		t.Fatalf("negative pan start = %v", neg)
	}
	if dense := GridOffsets(100, 0, 0.1, 20); dense != nil {
		t.Fatalf("too dense grid should be skipped")
	}
}
