/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// Board documents: an ordered list of positioned elements plus the view they
// were last looked at through. Serialized as a human-readable JSON file.

import (
	"fmt"
	"maps"
	"time"

	"agentcanvas/internal/geom"
)

// DocumentVersion is bumped on incompatible format changes.
const DocumentVersion = 1

// Default node box in canvas units, used for hit testing and rendering.
const (
	NodeMinWidth  = 100.0
	NodeMinHeight = 60.0
)

// Element is one positioned item on a board. Position is in canvas space.
// Data and Style are opaque to the editor core.
type Element struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Position geom.Pt        `json:"position"`
	Data     map[string]any `json:"data,omitempty"`
	Style    map[string]any `json:"style,omitempty"`
}

// Label returns data.label, or "Node <id>" when unset.
func (e Element) Label() string {
	if v, ok := e.Data["label"]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
		if v != nil {
			return fmt.Sprint(v)
		}
	}
	return "Node " + e.ID
}

// Bounds returns the element's canvas-space box.
func (e Element) Bounds() geom.Rect {
	return geom.R(e.Position.X, e.Position.Y, NodeMinWidth, NodeMinHeight)
}

// Clone copies the element including its maps (shallow per value).
func (e Element) Clone() Element {
	c := e
	if e.Data != nil {
		c.Data = maps.Clone(e.Data)
	}
	if e.Style != nil {
		c.Style = maps.Clone(e.Style)
	}
	return c
}

// CloneElements copies a slice of elements.
func CloneElements(in []Element) []Element {
	if in == nil {
		return nil
	}
	out := make([]Element, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}

// View is the persisted view state.
type View struct {
	Pan  geom.Pt `json:"pan"`
	Zoom float64 `json:"zoom"`
	Tool string  `json:"tool"`
}

// Document is a board file.
type Document struct {
	Version   int       `json:"version"`
	Name      string    `json:"name"`
	View      View      `json:"view"`
	Elements  []Element `json:"elements"`
	Selected  []string  `json:"selected,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewDocument returns an empty document with a default view.
func NewDocument(name string, now time.Time) Document {
	now = now.UTC()
	return Document{
		Version:   DocumentVersion,
		Name:      name,
		View:      View{Zoom: 1, Tool: "pen"},
		Elements:  []Element{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Index returns the position of id in the document, or -1.
func (d Document) Index(id string) int {
	for i, e := range d.Elements {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// DuplicateID returns the first id that appears twice, if any.
func DuplicateID(els []Element) (string, bool) {
	seen := make(map[string]struct{}, len(els))
	for _, e := range els {
		if _, ok := seen[e.ID]; ok {
			return e.ID, true
		}
		seen[e.ID] = struct{}{}
	}
	return "", false
}
