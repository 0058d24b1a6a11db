/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interact

import "sync"

// MoveFunc and UpFunc receive window-level pointer events.
type (
	MoveFunc func(PointerEvent)
	UpFunc   func(PointerEvent)
)

// Release deregisters a listener pair. Calling it more than once is a no-op.
type Release func()

// PointerBus dispatches window-level move/up events to listeners that were
// acquired for the duration of a gesture. Hosts forward every global pointer
// move and up to it.
type PointerBus struct {
	mu     sync.Mutex
	nextID uint64
	pairs  map[uint64]listenerPair
}

type listenerPair struct {
	move MoveFunc
	up   UpFunc
}

// NewPointerBus returns an empty bus.
func NewPointerBus() *PointerBus { return &PointerBus{pairs: make(map[uint64]listenerPair)} }

// Acquire registers a move/up listener pair and returns its Release.
// Either func may be nil.
func (b *PointerBus) Acquire(move MoveFunc, up UpFunc) Release {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.pairs[id] = listenerPair{move: move, up: up}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.pairs, id)
			b.mu.Unlock()
		})
	}
}

// Active returns how many listener pairs are currently registered.
func (b *PointerBus) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pairs)
}

// DispatchMove delivers ev to every registered move listener.
func (b *PointerBus) DispatchMove(ev PointerEvent) {
	for _, p := range b.snapshot() {
		if p.move != nil {
			p.move(ev)
		}
	}
}

// DispatchUp delivers ev to every registered up listener.
func (b *PointerBus) DispatchUp(ev PointerEvent) {
	for _, p := range b.snapshot() {
		if p.up != nil {
			p.up(ev)
		}
	}
}

// snapshot copies the listener set so handlers may acquire or release during dispatch.
func (b *PointerBus) snapshot() []listenerPair {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]listenerPair, 0, len(b.pairs))
	for _, p := range b.pairs {
		out = append(out, p)
	}
	return out
}
