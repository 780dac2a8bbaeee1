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

// Package membench is a coarse, wall-clock benchmarking harness for
// quantifying the cost of memory-layout decisions: cache-line splitting,
// false sharing between concurrent writers, AoS vs SoA field layout, heap vs
// pooled allocation, and local vs remote NUMA access.
//
// The harness is built from four pluggable pieces: an AllocationStrategy
// (where the memory for a run comes from and how it must be given back), an
// AccessPattern (how that memory is touched, possibly by several concurrent
// actors), a monotonic Timer, and a Runner that executes one
// (strategy, pattern, count, iterations) experiment and hands the resulting
// ExperimentResult to a Reporter for ordered comparison.
//
// It is deliberately NOT a statistically rigorous micro-benchmark framework:
// no warm-up elimination, no confidence intervals. It answers "how many times
// slower is layout A than layout B on this machine" and nothing more.
package membench

import (
	"fmt"
	"unsafe"
)

// CacheLine is the assumed data-transfer unit between memory and CPU caches.
// 64 bytes on effectively all current x86 and most ARM parts.
const CacheLine = 64

// Provenance records which allocation path produced a MemoryBlock. The
// provenance fully determines the release procedure; strategies refuse to
// release blocks they did not produce.
type Provenance int

const (
	// ProvHeap is a single region obtained from the Go allocator.
	ProvHeap Provenance = iota
	// ProvHeapPerElem is one small allocation per element, acquired
	// individually as elements are constructed.
	ProvHeapPerElem
	// ProvAligned is a single region re-based to an explicit alignment
	// boundary.
	ProvAligned
	// ProvPool is a single raw region whose elements are constructed and
	// destructed explicitly by the owning PoolStrategy.
	ProvPool
	// ProvNUMA is a region allocated with first-touch affinity to a specific
	// topology node.
	ProvNUMA
)

func (p Provenance) String() string {
	switch p {
	case ProvHeap:
		return "heap"
	case ProvHeapPerElem:
		return "heap-per-elem"
	case ProvAligned:
		return "aligned-heap"
	case ProvPool:
		return "pool"
	case ProvNUMA:
		return "numa"
	default:
		return fmt.Sprintf("provenance(%d)", int(p))
	}
}

// Layout declares how logical elements map onto the block's bytes. It is an
// interpretation chosen by the caller that fills the block, not a property
// the allocator can enforce.
type Layout int

const (
	// ElementMajor (array-of-structures): element i occupies the contiguous
	// range [i*ElemSize, (i+1)*ElemSize).
	ElementMajor Layout = iota
	// FieldMajor (structure-of-arrays): field f of all Count elements is
	// stored contiguously before field f+1 begins.
	FieldMajor
)

// MemoryBlock is a typed, sized region of raw memory plus the metadata needed
// to touch it and to give it back to the strategy that produced it.
//
// Exactly one of bytes/elems is populated: single-region provenances use
// bytes, ProvHeapPerElem keeps one slice per element. The live bitmap is only
// maintained for provenances with explicit per-element construction
// (ProvPool, ProvHeapPerElem); for the others every element is live from
// Acquire to Release.
type MemoryBlock struct {
	Count      int
	ElemSize   int
	Align      int
	Provenance Provenance
	Node       int // ProvNUMA only; allocation node id

	// Layout is declared by whoever fills the block. Patterns that care
	// (FieldScan) consult it to choose their stride.
	Layout Layout

	bytes []byte   // aligned payload, len == Count*ElemSize
	elems [][]byte // per-element storage, ProvHeapPerElem only

	// owner is the strategy that produced the block. Release on any other
	// strategy fails; this is what makes "wrong deallocation path" a caught
	// error instead of silent corruption.
	owner AllocationStrategy

	live      []uint64 // liveness bitmap, one bit per element
	liveCount int
}

// SizeBytes is the logical payload size, Count*ElemSize.
func (b *MemoryBlock) SizeBytes() int { return b.Count * b.ElemSize }

// Bytes exposes the aligned payload of a single-region block. It is nil for
// per-element blocks.
func (b *MemoryBlock) Bytes() []byte { return b.bytes }

// Addr returns the base address of a single-region block, or 0 for
// per-element blocks (which have no single base).
func (b *MemoryBlock) Addr() uintptr {
	if len(b.bytes) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b.bytes[0]))
}

// ElemPtr returns a pointer to element i's storage. For FieldMajor blocks the
// notion of "element i" is scattered, so ElemPtr is only meaningful for
// ElementMajor and per-element blocks; FieldScan addresses FieldMajor blocks
// directly through Bytes.
func (b *MemoryBlock) ElemPtr(i int) unsafe.Pointer {
	if b.elems != nil {
		if s := b.elems[i]; s != nil {
			return unsafe.Pointer(&s[0])
		}
		return nil
	}
	return unsafe.Pointer(&b.bytes[i*b.ElemSize])
}

// Live reports whether element i has been constructed. Blocks without a
// per-element bitmap are fully live for their whole lifetime.
func (b *MemoryBlock) Live(i int) bool {
	if b.live == nil {
		return true
	}
	return b.live[i>>6]&(1<<(uint(i)&63)) != 0
}

// LiveCount returns the number of currently constructed elements.
func (b *MemoryBlock) LiveCount() int {
	if b.live == nil {
		return b.Count
	}
	return b.liveCount
}

func (b *MemoryBlock) setLive(i int) {
	b.live[i>>6] |= 1 << (uint(i) & 63)
	b.liveCount++
}

func (b *MemoryBlock) clearLive(i int) {
	b.live[i>>6] &^= 1 << (uint(i) & 63)
	b.liveCount--
}

func newLiveBitmap(count int) []uint64 {
	return make([]uint64, (count+63)/64)
}

// checkOwner verifies that s produced b. Every strategy calls this first in
// Release (and in per-element construct/destruct entry points).
func (b *MemoryBlock) checkOwner(s AllocationStrategy) error {
	if b.owner != s {
		return &AllocationError{
			Size:   b.SizeBytes(),
			Align:  b.Align,
			Reason: fmt.Sprintf("block with provenance %s does not belong to strategy %q", b.Provenance, s.Name()),
		}
	}
	return nil
}
