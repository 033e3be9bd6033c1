// Copyright 2026 The aotpy Authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package aotpy

import (
	"fmt"
)

// Heap is the execution context storage of a suspendable computation: the
// locals and temporaries that must survive a suspension point. Its size is
// fixed by the code object when the computation is created.
//
// Compiled bodies write their live values with Preserve before suspending
// and read them back with Restore after resuming, e.g.:
//
//	case 0:
//		f.Heap().Preserve(i, total)
//		return f.Yield(1, i)
//	case 1:
//		f.Heap().Restore(&i, &total)
type Heap struct {
	slots []*Object
}

func newHeap(size int) *Heap {
	return &Heap{slots: make([]*Object, size)}
}

// Len returns the number of slots in h.
func (h *Heap) Len() int {
	return len(h.slots)
}

// Preserve stores values into the leading slots of h.
func (h *Heap) Preserve(values ...*Object) {
	if len(values) > len(h.slots) {
		logFatal(fmt.Sprintf("heap overflow: preserving %d values in %d slots", len(values), len(h.slots)))
	}
	copy(h.slots, values)
}

// Restore loads the leading slots of h into targets.
func (h *Heap) Restore(targets ...**Object) {
	if len(targets) > len(h.slots) {
		logFatal(fmt.Sprintf("heap overflow: restoring %d values from %d slots", len(targets), len(h.slots)))
	}
	for i, target := range targets {
		*target = h.slots[i]
	}
}

// Slot returns the value stored in slot i.
func (h *Heap) Slot(i int) *Object {
	h.checkIndex(i)
	return h.slots[i]
}

// SetSlot stores v in slot i.
func (h *Heap) SetSlot(i int, v *Object) {
	h.checkIndex(i)
	h.slots[i] = v
}

func (h *Heap) checkIndex(i int) {
	if i < 0 || i >= len(h.slots) {
		logFatal(fmt.Sprintf("heap slot %d out of range for %d slots", i, len(h.slots)))
	}
}

func (h *Heap) clear() {
	for i := range h.slots {
		h.slots[i] = nil
	}
}
