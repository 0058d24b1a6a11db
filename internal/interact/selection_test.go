/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interact

import (
	"reflect"
	"testing"
)

func TestShiftClickTogglesSelection(t *testing.T) {
	sel := NewSelection("a")
	ApplyClick(sel, "b", ModShift, 0)
	if got := sel.IDs(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("after shift-click b: %v", got)
	}
	ApplyClick(sel, "a", ModShift, 0)
	if got := sel.IDs(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("after shift-click a: %v", got)
	}
}

func TestPlainClickReplacesSelection(t *testing.T) {
	sel := NewSelection("a", "b", "a")
	if sel.Len() != 2 {
		t.Fatalf("duplicates kept: %v", sel.IDs())
	}
	ApplyClick(sel, "c", 0, 0)
	if got := sel.IDs(); !reflect.DeepEqual(got, []string{"c"}) {
		t.Fatalf("plain click: %v", got)
	}
	ApplyClick(sel, "d", ModCtrl, ModCtrl)
	if !sel.Contains("c") || !sel.Contains("d") {
		t.Fatalf("custom toggle modifier ignored: %v", sel.IDs())
	}
}

func TestSelectionIDsIsCopy(t *testing.T) {
	sel := NewSelection("a")
	ids := sel.IDs()
	ids[0] = "z"
	if !sel.Contains("a") {
		t.Fatalf("IDs leaked internal slice")
	}
	sel.Remove("a")
	sel.Clear()
	if sel.Len() != 0 {
		t.Fatalf("clear")
	}
}

func TestPointerBusRelease(t *testing.T) {
	bus := NewPointerBus()
	var n int
	rel := bus.Acquire(func(PointerEvent) { n++ }, nil)
	bus.DispatchMove(PointerEvent{})
	bus.DispatchUp(PointerEvent{})
	rel()
	rel()
	bus.DispatchMove(PointerEvent{})
	if n != 1 || bus.Active() != 0 {
		t.Fatalf("n=%d active=%d", n, bus.Active())
	}
}
