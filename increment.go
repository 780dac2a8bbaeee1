// Copyright 2026 Esteban Alvarez. All Rights Reserved.
//
// Created: August 2026
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

package membench

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"unsafe"
)

// ActorSpec places the private counter of each concurrent actor inside a
// shared block. Offsets are byte offsets of 8-byte cells; actor i only ever
// writes the cell at Offsets[i]. Whether those cells share a cache line is
// the independent variable of the false-sharing experiment, so the spec
// itself imposes no separation, only non-overlap.
type ActorSpec struct {
	Offsets []uintptr
}

// Validate rejects misaligned or overlapping cells. Cells in the same cache
// line are fine (that is the "shared line" variant); cells overlapping the
// same 8 bytes are not, since then the actors really would race.
func (s ActorSpec) Validate() error {
	if len(s.Offsets) == 0 {
		return fmt.Errorf("actor spec: need at least one actor")
	}
	for i, off := range s.Offsets {
		if off%8 != 0 {
			return fmt.Errorf("actor spec: offset %d of actor %d is not 8-byte aligned", off, i)
		}
		for j := 0; j < i; j++ {
			if s.Offsets[j] == off {
				return fmt.Errorf("actor spec: actors %d and %d share offset %d", j, i, off)
			}
		}
	}
	return nil
}

// SharedLineSpec packs two actor counters into adjacent cells of one cache
// line, so every write by one actor invalidates the other's cached copy.
func SharedLineSpec() ActorSpec { return ActorSpec{Offsets: []uintptr{0, 8}} }

// SeparatedLineSpec puts each counter on its own line. Cache line size
// varies (and adjacent-line prefetchers pull pairs), so it over-separates to
// two lines, same as the padding used elsewhere in this module's ancestry.
func SeparatedLineSpec() ActorSpec { return ActorSpec{Offsets: []uintptr{0, 2 * CacheLine}} }

// SpanBytes is the smallest block payload that covers every cell.
func (s ActorSpec) SpanBytes() int {
	max := uintptr(0)
	for _, off := range s.Offsets {
		if off+8 > max {
			max = off + 8
		}
	}
	return int(max)
}

// IncrementPattern is the dual-actor (generally N-actor) concurrent
// increment workload: each actor repeatedly adds 1 to its own 8-byte cell.
// There is no logical data race — the cells are disjoint — only the
// microarchitectural one the experiment exists to measure, so the adds go
// through sync/atomic both for a defined memory model and because atomic
// writes cannot be elided or coalesced by the compiler.
type IncrementPattern struct {
	Spec ActorSpec
}

// NewIncrementPattern validates the spec once so Run stays branch-free.
func NewIncrementPattern(spec ActorSpec) (*IncrementPattern, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &IncrementPattern{Spec: spec}, nil
}

func (p *IncrementPattern) Name() string {
	return fmt.Sprintf("increment(actors=%d)", len(p.Spec.Offsets))
}

func (p *IncrementPattern) Actors() int { return len(p.Spec.Offsets) }

// Run pins the actor's goroutine to its OS thread for the duration of the
// loop; contention between two actors on one thread would measure the
// scheduler, not the cache coherency protocol. It returns the actor's final
// counter value, which must equal iterations exactly (no lost updates)
// regardless of layout.
func (p *IncrementPattern) Run(b *MemoryBlock, actor, iterations int) (int64, error) {
	off := p.Spec.Offsets[actor]
	if int(off)+8 > len(b.bytes) {
		return 0, fmt.Errorf("increment: actor %d offset %d outside block of %d bytes", actor, off, len(b.bytes))
	}
	cell := (*int64)(unsafe.Add(unsafe.Pointer(&b.bytes[0]), off))

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	for i := 0; i < iterations; i++ {
		atomic.AddInt64(cell, 1)
	}
	return atomic.LoadInt64(cell), nil
}

// CounterValue reads the cell at off after a run, for verification.
func CounterValue(b *MemoryBlock, off uintptr) int64 {
	return atomic.LoadInt64((*int64)(unsafe.Add(unsafe.Pointer(&b.bytes[0]), off)))
}
