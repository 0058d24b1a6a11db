/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interact

// Selection is a set of element ids. IDs reports members in insertion order.
type Selection struct {
	ids []string
}

// NewSelection returns a selection holding ids (duplicates dropped).
func NewSelection(ids ...string) *Selection {
	s := &Selection{}
	for _, id := range ids {
		s.add(id)
	}
	return s
}

func (s *Selection) indexOf(id string) int {
	for i, v := range s.ids {
		if v == id {
			return i
		}
	}
	return -1
}

func (s *Selection) add(id string) {
	if s.indexOf(id) < 0 {
		s.ids = append(s.ids, id)
	}
}

// Contains reports membership.
func (s *Selection) Contains(id string) bool { return s.indexOf(id) >= 0 }

// Len returns the number of selected ids.
func (s *Selection) Len() int { return len(s.ids) }

// IDs returns a copy of the selected ids.
func (s *Selection) IDs() []string { return append([]string(nil), s.ids...) }

// Replace makes id the only member.
func (s *Selection) Replace(id string) { s.ids = []string{id} }

// Toggle adds id if absent, removes it otherwise.
func (s *Selection) Toggle(id string) {
	if i := s.indexOf(id); i >= 0 {
		s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
		return
	}
	s.ids = append(s.ids, id)
}

// Remove drops id if present.
func (s *Selection) Remove(id string) {
	if i := s.indexOf(id); i >= 0 {
		s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
	}
}

// Clear empties the selection.
func (s *Selection) Clear() { s.ids = nil }

// ApplyClick updates sel for a click on id: with toggleMod held the id's
// membership flips, otherwise the selection becomes exactly {id}.
// A zero toggleMod means Shift.
func ApplyClick(sel *Selection, id string, mods, toggleMod Modifiers) {
	if toggleMod == 0 {
		toggleMod = ModShift
	}
	if mods.Has(toggleMod) {
		sel.Toggle(id)
		return
	}
	sel.Replace(id)
}
