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
)

// PoolStrategy bulk-reserves one raw region for the whole block in a single
// O(1) acquisition, then constructs and destructs individual elements in
// place on demand. The block carries a liveness bitmap so that
// destruct-before-free is enforced by the strategy, not by caller
// discipline: Release destructs every still-live element before dropping the
// region.
//
// Construction is deliberately chargeable to the caller's timed window (run
// Construct/ConstructAll inside it) so allocation cost and construction cost
// are separable variables.
type PoolStrategy struct {
	typ         ElementType
	align       int
	outstanding atomic.Int64
}

// NewPoolStrategy builds a pool for typ with the region base aligned to
// align (power of two; pass 1 for no alignment preference beyond the
// allocator's natural one).
func NewPoolStrategy(typ ElementType, align int) (*PoolStrategy, error) {
	if err := validElem(typ); err != nil {
		return nil, err
	}
	if align <= 0 || bits.OnesCount(uint(align)) != 1 {
		return nil, &AllocationError{Size: typ.Size, Align: align, Reason: "alignment must be a power of two"}
	}
	return &PoolStrategy{typ: typ, align: align}, nil
}

func (s *PoolStrategy) Name() string { return "pool" }

func (s *PoolStrategy) Outstanding() int64 { return s.outstanding.Load() }

// Acquire reserves the raw region. No element is constructed; every slot is
// raw bytes until Construct runs for it.
func (s *PoolStrategy) Acquire(count int) (*MemoryBlock, error) {
	if err := validCount(count); err != nil {
		return nil, err
	}
	size := count * s.typ.Size
	b := &MemoryBlock{
		Count:      count,
		ElemSize:   s.typ.Size,
		Align:      s.align,
		Provenance: ProvPool,
		bytes:      alignedBytes(size, s.align),
		live:       newLiveBitmap(count),
		owner:      s,
	}
	s.outstanding.Add(int64(size))
	return b, nil
}

// Construct runs Init in place for slot i and marks it live. Constructing a
// live slot is an error; a failed Init leaves the slot raw and surfaces as a
// ConstructionError.
func (s *PoolStrategy) Construct(b *MemoryBlock, i int) error {
	if err := b.checkOwner(s); err != nil {
		return err
	}
	if i < 0 || i >= b.Count {
		return &ConstructionError{Index: i, Err: fmt.Errorf("slot out of range [0,%d)", b.Count)}
	}
	if b.Live(i) {
		return &ConstructionError{Index: i, Err: fmt.Errorf("slot already constructed")}
	}
	if s.typ.Init != nil {
		if err := s.typ.Init(b.ElemPtr(i), i); err != nil {
			return &ConstructionError{Index: i, Err: err}
		}
	}
	b.setLive(i)
	return nil
}

// ConstructAll eagerly constructs every slot in order, stopping at the first
// failure. Slots constructed before the failure stay live; the caller's
// Release still destructs them.
func (s *PoolStrategy) ConstructAll(b *MemoryBlock) error {
	for i := 0; i < b.Count; i++ {
		if err := s.Construct(b, i); err != nil {
			return err
		}
	}
	return nil
}

// Destruct runs Fini for slot i and returns it to the raw state.
func (s *PoolStrategy) Destruct(b *MemoryBlock, i int) error {
	if err := b.checkOwner(s); err != nil {
		return err
	}
	if i < 0 || i >= b.Count || !b.Live(i) {
		return &AllocationError{Size: s.typ.Size, Reason: fmt.Sprintf("slot %d is not constructed", i)}
	}
	if s.typ.Fini != nil {
		s.typ.Fini(b.ElemPtr(i))
	}
	b.clearLive(i)
	return nil
}

// DestructAll destructs every live slot. Order carries no meaning; it only
// matters that every live slot is destructed before the region goes away.
func (s *PoolStrategy) DestructAll(b *MemoryBlock) error {
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
	return nil
}

// Release destructs whatever is still live and then drops the raw region in
// one step, mirroring the single-region acquisition.
func (s *PoolStrategy) Release(b *MemoryBlock) error {
	if err := s.DestructAll(b); err != nil {
		return err
	}
	s.outstanding.Add(-int64(len(b.bytes)))
	b.bytes = nil
	b.owner = nil
	return nil
}
