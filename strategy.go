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
	"math/bits"
	"sync/atomic"
	"unsafe"
)

// ElementType describes the element a strategy allocates: its byte size and
// optional in-place construction and destruction hooks. Init and Fini receive
// a pointer to the element's storage; either may be nil for plain raw
// elements.
type ElementType struct {
	Name string
	Size int
	Init func(p unsafe.Pointer, i int) error
	Fini func(p unsafe.Pointer)
}

// Bytes is an ElementType for an uninterpreted n-byte element with no
// construction hooks.
func Bytes(n int) ElementType {
	return ElementType{Name: fmt.Sprintf("bytes%d", n), Size: n}
}

// AllocationStrategy produces and releases MemoryBlocks. Acquire and Release
// are strictly paired: the strategy that produced a block is the only one
// that can release it, and Release must mirror exactly whatever acquisition
// path Acquire used.
//
// Outstanding exposes the strategy's net acquired byte count so callers and
// tests can assert acquire/release symmetry (it returns to its pre-Acquire
// value after every successful Release).
type AllocationStrategy interface {
	Name() string
	Acquire(count int) (*MemoryBlock, error)
	Release(b *MemoryBlock) error
	Outstanding() int64
}

// ElementLifecycle is implemented by strategies with explicit per-element
// construction (pool, per-element heap). Construct and Destruct are O(1) and
// may be called inside a timed window; that is how construction cost is
// isolated from acquisition cost as its own variable.
type ElementLifecycle interface {
	Construct(b *MemoryBlock, i int) error
	Destruct(b *MemoryBlock, i int) error
}

func validCount(count int) error {
	if count <= 0 {
		return &AllocationError{Size: count, Reason: "element count must be positive"}
	}
	return nil
}

func validElem(typ ElementType) error {
	if typ.Size <= 0 {
		return &AllocationError{Size: typ.Size, Reason: "element size must be positive"}
	}
	return nil
}

// ---- Plain heap ----

// HeapStrategy delegates to the Go allocator. Alignment is whatever the
// runtime hands out (at least 8 bytes for a large byte slice); there is no
// alignment guarantee beyond that, which is exactly the point: it is the
// baseline every other strategy is compared against.
type HeapStrategy struct {
	typ         ElementType
	outstanding atomic.Int64
}

// NewHeapStrategy returns a strategy that acquires one contiguous region for
// the whole block. Elements are live on return from Acquire: Init (when set)
// runs for every element before Acquire returns, and Release runs Fini for
// every element before dropping the region.
func NewHeapStrategy(typ ElementType) (*HeapStrategy, error) {
	if err := validElem(typ); err != nil {
		return nil, err
	}
	return &HeapStrategy{typ: typ}, nil
}

func (s *HeapStrategy) Name() string { return "heap" }

func (s *HeapStrategy) Outstanding() int64 { return s.outstanding.Load() }

func (s *HeapStrategy) Acquire(count int) (*MemoryBlock, error) {
	if err := validCount(count); err != nil {
		return nil, err
	}
	size := count * s.typ.Size
	b := &MemoryBlock{
		Count:      count,
		ElemSize:   s.typ.Size,
		Align:      1,
		Provenance: ProvHeap,
		bytes:      make([]byte, size),
		owner:      s,
	}
	if s.typ.Init != nil {
		for i := 0; i < count; i++ {
			if err := s.typ.Init(b.ElemPtr(i), i); err != nil {
				return nil, &ConstructionError{Index: i, Err: err}
			}
		}
	}
	s.outstanding.Add(int64(size))
	return b, nil
}

func (s *HeapStrategy) Release(b *MemoryBlock) error {
	if err := b.checkOwner(s); err != nil {
		return err
	}
	if s.typ.Fini != nil {
		for i := 0; i < b.Count; i++ {
			s.typ.Fini(b.ElemPtr(i))
		}
	}
	s.outstanding.Add(-int64(len(b.bytes)))
	b.bytes = nil
	b.owner = nil
	return nil
}

// ---- Per-element heap ----

// PerElemHeapStrategy models per-object dynamic allocation: every element is
// its own small heap allocation, acquired when the element is constructed and
// dropped when it is destructed. Acquire itself only reserves the element
// table, so the per-object allocator traffic lands inside the timed window
// when a pattern drives Construct/Destruct there.
type PerElemHeapStrategy struct {
	typ         ElementType
	outstanding atomic.Int64
}

func NewPerElemHeapStrategy(typ ElementType) (*PerElemHeapStrategy, error) {
	if err := validElem(typ); err != nil {
		return nil, err
	}
	return &PerElemHeapStrategy{typ: typ}, nil
}

func (s *PerElemHeapStrategy) Name() string { return "heap-per-elem" }

func (s *PerElemHeapStrategy) Outstanding() int64 { return s.outstanding.Load() }

func (s *PerElemHeapStrategy) Acquire(count int) (*MemoryBlock, error) {
	if err := validCount(count); err != nil {
		return nil, err
	}
	return &MemoryBlock{
		Count:      count,
		ElemSize:   s.typ.Size,
		Align:      1,
		Provenance: ProvHeapPerElem,
		elems:      make([][]byte, count),
		live:       newLiveBitmap(count),
		owner:      s,
	}, nil
}

// Construct allocates element i and runs Init in place. The allocation is
// freed again by Destruct; Release mirrors exactly that per-element path for
// anything still live.
func (s *PerElemHeapStrategy) Construct(b *MemoryBlock, i int) error {
	if err := b.checkOwner(s); err != nil {
		return err
	}
	if b.Live(i) {
		return &ConstructionError{Index: i, Err: fmt.Errorf("element already constructed")}
	}
	b.elems[i] = make([]byte, s.typ.Size)
	if s.typ.Init != nil {
		if err := s.typ.Init(b.ElemPtr(i), i); err != nil {
			b.elems[i] = nil
			return &ConstructionError{Index: i, Err: err}
		}
	}
	b.setLive(i)
	s.outstanding.Add(int64(s.typ.Size))
	return nil
}

func (s *PerElemHeapStrategy) Destruct(b *MemoryBlock, i int) error {
	if err := b.checkOwner(s); err != nil {
		return err
	}
	if !b.Live(i) {
		return &AllocationError{Size: s.typ.Size, Reason: fmt.Sprintf("element %d is not constructed", i)}
	}
	if s.typ.Fini != nil {
		s.typ.Fini(b.ElemPtr(i))
	}
	b.elems[i] = nil
	b.clearLive(i)
	s.outstanding.Add(-int64(s.typ.Size))
	return nil
}

func (s *PerElemHeapStrategy) Release(b *MemoryBlock) error {
	if err := b.checkOwner(s); err != nil {
		return err
	}
	for i := 0; i < b.Count; i++ {
		if b.Live(i) {
			if err := s.Destruct(b, i); err != nil {
				return err
			}
		}
	}
	b.elems = nil
	b.owner = nil
	return nil
}

// ---- Aligned heap ----

// AlignedStrategy acquires a single region whose base address is a multiple
// of the requested alignment. The Go allocator has no aligned-alloc
// primitive, so it over-allocates by align-1 bytes and re-bases the payload
// onto the next boundary; Release drops the whole over-allocated region,
// which is the matching deallocation path for that acquisition.
type AlignedStrategy struct {
	typ         ElementType
	align       int
	outstanding atomic.Int64
}

// NewAlignedStrategy fails with AllocationError unless align is a power of
// two. Elements are live on return from Acquire, as with HeapStrategy.
func NewAlignedStrategy(typ ElementType, align int) (*AlignedStrategy, error) {
	if err := validElem(typ); err != nil {
		return nil, err
	}
	if align <= 0 || bits.OnesCount(uint(align)) != 1 {
		return nil, &AllocationError{Size: typ.Size, Align: align, Reason: "alignment must be a power of two"}
	}
	return &AlignedStrategy{typ: typ, align: align}, nil
}

func (s *AlignedStrategy) Name() string { return fmt.Sprintf("aligned-%d", s.align) }

func (s *AlignedStrategy) Outstanding() int64 { return s.outstanding.Load() }

func (s *AlignedStrategy) Acquire(count int) (*MemoryBlock, error) {
	if err := validCount(count); err != nil {
		return nil, err
	}
	size := count * s.typ.Size
	payload := alignedBytes(size, s.align)
	b := &MemoryBlock{
		Count:      count,
		ElemSize:   s.typ.Size,
		Align:      s.align,
		Provenance: ProvAligned,
		bytes:      payload,
		owner:      s,
	}
	if s.typ.Init != nil {
		for i := 0; i < count; i++ {
			if err := s.typ.Init(b.ElemPtr(i), i); err != nil {
				return nil, &ConstructionError{Index: i, Err: err}
			}
		}
	}
	s.outstanding.Add(int64(size))
	return b, nil
}

func (s *AlignedStrategy) Release(b *MemoryBlock) error {
	if err := b.checkOwner(s); err != nil {
		return err
	}
	if s.typ.Fini != nil {
		for i := 0; i < b.Count; i++ {
			s.typ.Fini(b.ElemPtr(i))
		}
	}
	s.outstanding.Add(-int64(len(b.bytes)))
	b.bytes = nil
	b.owner = nil
	return nil
}

// alignedBytes returns a size-byte slice whose backing address is a multiple
// of align, by over-allocating and slicing from the next boundary.
func alignedBytes(size, align int) []byte {
	raw := make([]byte, size+align-1)
	addr := uintptr(unsafe.Pointer(&raw[0]))
	off := uintptr(0)
	if mod := addr % uintptr(align); mod != 0 {
		off = uintptr(align) - mod
	}
	return raw[off : off+uintptr(size) : off+uintptr(size)]
}
