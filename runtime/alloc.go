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
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"
)

// ErrHeapLimit is returned by DefaultAllocator when an allocation would
// exceed its slot limit.
var ErrHeapLimit = errors.New("heap slot limit exceeded")

// Allocator provides the execution context storage of suspendable
// computations.
type Allocator interface {
	// AllocHeap returns storage with exactly size slots, all nil.
	AllocHeap(size int) (*Heap, error)
	// FreeHeap returns storage obtained from AllocHeap. h must not be used
	// afterwards.
	FreeHeap(h *Heap)
}

// AllocStats is a snapshot of a DefaultAllocator's accounting.
type AllocStats struct {
	LiveHeaps   int
	LiveSlots   int
	PooledHeaps int
}

// DefaultAllocator pools freed heaps by size. When maxSlots is positive the
// total number of live slots is bounded by it.
type DefaultAllocator struct {
	mutex     sync.Mutex
	maxSlots  int
	poolSize  int
	pools     map[int][]*Heap
	liveHeaps int
	liveSlots int
}

// NewDefaultAllocator returns an allocator that keeps at most poolSize freed
// heaps of each size. A maxSlots of zero means no limit.
func NewDefaultAllocator(maxSlots, poolSize int) *DefaultAllocator {
	return &DefaultAllocator{maxSlots: maxSlots, poolSize: poolSize, pools: map[int][]*Heap{}}
}

// AllocHeap implements Allocator.
func (a *DefaultAllocator) AllocHeap(size int) (*Heap, error) {
	if size < 0 {
		return nil, fmt.Errorf("alloc heap: negative size %d", size)
	}
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.maxSlots > 0 && a.liveSlots+size > a.maxSlots {
		return nil, fmt.Errorf("alloc heap of %d slots with %d of %d in use: %w", size, a.liveSlots, a.maxSlots, ErrHeapLimit)
	}
	a.liveHeaps++
	a.liveSlots += size
	if pool := a.pools[size]; len(pool) > 0 {
		h := pool[len(pool)-1]
		a.pools[size] = pool[:len(pool)-1]
		return h, nil
	}
	return newHeap(size), nil
}

// FreeHeap implements Allocator.
func (a *DefaultAllocator) FreeHeap(h *Heap) {
	if h == nil {
		return
	}
	h.clear()
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.liveHeaps == 0 {
		logFatal("DefaultAllocator.FreeHeap: more heaps freed than allocated")
	}
	a.liveHeaps--
	a.liveSlots -= h.Len()
	if pool := a.pools[h.Len()]; len(pool) < a.poolSize {
		a.pools[h.Len()] = append(pool, h)
	}
}

// Stats returns the current accounting of a.
func (a *DefaultAllocator) Stats() AllocStats {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	pooled := 0
	for _, pool := range a.pools {
		pooled += len(pool)
	}
	return AllocStats{LiveHeaps: a.liveHeaps, LiveSlots: a.liveSlots, PooledHeaps: pooled}
}

// reclaimWait bounds how long an allocation over the limit waits for
// dropped computations to give their storage back.
const reclaimWait = 100 * time.Millisecond

// reclaimed is signalled each time the collector finds a computation that
// was dropped without being released.
var reclaimed = make(chan struct{}, 1)

func notifyReclaimed() {
	select {
	case reclaimed <- struct{}{}:
	default:
	}
}

// allocHeap allocates size slots from alloc once the dropped computations
// are finalized. When alloc is over its limit the collector is run so that
// unreachable suspended computations give their storage back, and the
// allocation is retried as they are found.
func allocHeap(alloc Allocator, size int) (*Heap, error) {
	FinalizeDropped()
	h, err := alloc.AllocHeap(size)
	if !errors.Is(err, ErrHeapLimit) {
		return h, err
	}
	runtime.GC()
	timer := time.NewTimer(reclaimWait)
	defer timer.Stop()
	for {
		select {
		case <-reclaimed:
		case <-timer.C:
			FinalizeDropped()
			return alloc.AllocHeap(size)
		}
		FinalizeDropped()
		if h, err = alloc.AllocHeap(size); !errors.Is(err, ErrHeapLimit) {
			return h, err
		}
	}
}
