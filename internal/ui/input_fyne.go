//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"agentcanvas/internal/geom"
	"agentcanvas/internal/interact"
)

// wheelScale converts Fyne scroll deltas (about 10 per notch) into the
// browser-style deltaY (about 100 per notch) the zoom sensitivity is tuned for.
// Fyne reports scrolling up as positive, the opposite sign.
const wheelScale = -10

func toPt(p fyne.Position) geom.Pt { return geom.Pt{X: float64(p.X), Y: float64(p.Y)} }

func toButton(b desktop.MouseButton) interact.Button {
	switch {
	case b&desktop.MouseButtonPrimary != 0:
		return interact.ButtonPrimary
	case b&desktop.MouseButtonTertiary != 0:
		return interact.ButtonMiddle
	case b&desktop.MouseButtonSecondary != 0:
		return interact.ButtonSecondary
	default:
		return interact.ButtonNone
	}
}

func toMods(m fyne.KeyModifier) interact.Modifiers {
	var out interact.Modifiers
	if m&fyne.KeyModifierShift != 0 {
		out |= interact.ModShift
	}
	if m&fyne.KeyModifierControl != 0 {
		out |= interact.ModCtrl
	}
	if m&fyne.KeyModifierAlt != 0 {
		out |= interact.ModAlt
	}
	if m&fyne.KeyModifierSuper != 0 {
		out |= interact.ModMeta
	}
	return out
}

func mouseEvent(e *desktop.MouseEvent) interact.PointerEvent {
	return interact.PointerEvent{Pos: toPt(e.Position), Button: toButton(e.Button), Mods: toMods(e.Modifier)}
}

func wheelEvent(e *fyne.ScrollEvent, mods interact.Modifiers) interact.WheelEvent {
	return interact.WheelEvent{Pos: toPt(e.Position), DeltaY: float64(e.Scrolled.DY) * wheelScale, Mods: mods}
}
