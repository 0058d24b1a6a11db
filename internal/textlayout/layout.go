/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout measures and wraps node labels so every renderer breaks
// lines the same way. Measurement goes through a font.Face; BasicProvider uses
// the fixed 7x13 face, which keeps exports deterministic.
package textlayout

import (
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Ellipsis marks a label cut short. ASCII so every face can draw it.
const Ellipsis = "..."

// FontSpec describes a requested font.
type FontSpec struct {
	Family string
	SizePt float64
}

// Metrics are font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float64
}

// LineHeight is the baseline-to-baseline distance.
func (m Metrics) LineHeight() float64 { return m.Ascent + m.Descent + m.LineGap }

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13 for any FontSpec.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	m := f.Metrics()
	return f, Metrics{
		Ascent:  float64(m.Ascent.Round()),
		Descent: float64(m.Descent.Round()),
		LineGap: float64(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}

// Block is a label laid out into a box.
type Block struct {
	Lines     []string
	Width     float64 // widest line
	Height    float64
	Metrics   Metrics
	Truncated bool
}

func advance(d *font.Drawer, s string) float64 {
	return float64(d.MeasureString(s)) / 64 // fixed.Int26_6 to px
}

// Measure returns the single-line width and the line height of s.
func Measure(p Provider, s string) (w, h float64) {
	if p == nil {
		p = BasicProvider{}
	}
	face, met := p.Resolve(FontSpec{})
	return advance(&font.Drawer{Face: face}, s), met.Ascent + met.Descent
}

// Wrap breaks text into lines no wider than maxWidth, on spaces and newlines.
// Words wider than maxWidth are split by rune. When maxHeight > 0 only the lines
// that fit are kept (at least one) and the last kept line ends in Ellipsis.
// A non-positive maxWidth disables wrapping.
func Wrap(p Provider, text string, maxWidth, maxHeight float64) Block {
	if p == nil {
		p = BasicProvider{}
	}
	face, met := p.Resolve(FontSpec{})
	d := &font.Drawer{Face: face}
	b := Block{Metrics: met}

	for _, para := range strings.Split(text, "\n") {
		b.Lines = append(b.Lines, wrapParagraph(d, para, maxWidth)...)
	}
	if maxHeight > 0 {
		keep := int(math.Floor((maxHeight + met.LineGap) / met.LineHeight()))
		if keep < 1 {
			keep = 1
		}
		if len(b.Lines) > keep {
			b.Lines = b.Lines[:keep]
			b.Lines[keep-1] = withEllipsis(d, b.Lines[keep-1], maxWidth)
			b.Truncated = true
		}
	}
	for _, l := range b.Lines {
		b.Width = math.Max(b.Width, advance(d, l))
	}
	if n := len(b.Lines); n > 0 {
		b.Height = float64(n)*met.LineHeight() - met.LineGap
	}
	return b
}

func wrapParagraph(d *font.Drawer, para string, maxWidth float64) []string {
	words := strings.Fields(para)
	if len(words) == 0 {
		return []string{""}
	}
	if maxWidth <= 0 {
		return []string{strings.Join(words, " ")}
	}
	var lines []string
	cur := ""
	for _, w := range words {
		cand := w
		if cur != "" {
			cand = cur + " " + w
		}
		if advance(d, cand) <= maxWidth {
			cur = cand
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
			cur = ""
		}
		for advance(d, w) > maxWidth {
			head, tail := splitToWidth(d, w, maxWidth)
			lines = append(lines, head)
			w = tail
		}
		cur = w
	}
	return append(lines, cur)
}

// splitToWidth returns the longest prefix of s (at least one rune) that fits.
func splitToWidth(d *font.Drawer, s string, maxWidth float64) (string, string) {
	_, first := utf8.DecodeRuneInString(s)
	cut := first
	for i, r := range s {
		end := i + utf8.RuneLen(r)
		if advance(d, s[:end]) > maxWidth {
			break
		}
		cut = end
	}
	return s[:cut], s[cut:]
}

func withEllipsis(d *font.Drawer, line string, maxWidth float64) string {
	line = strings.TrimRight(line, " ")
	for line != "" && maxWidth > 0 && advance(d, line+Ellipsis) > maxWidth {
		_, size := utf8.DecodeLastRuneInString(line)
		line = strings.TrimRight(line[:len(line)-size], " ")
	}
	return line + Ellipsis
}
