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
	"errors"
	"testing"
	"unsafe"
)

// The strategy constructors return (strategy, error) pairs; these wrappers
// fold the error into the test so call sites stay one line.
func heapStrategy(t *testing.T, typ ElementType) *HeapStrategy {
	t.Helper()
	s, err := NewHeapStrategy(typ)
	if err != nil {
		t.Fatalf("heap strategy: %v", err)
	}
	return s
}

func perElemStrategy(t *testing.T, typ ElementType) *PerElemHeapStrategy {
	t.Helper()
	s, err := NewPerElemHeapStrategy(typ)
	if err != nil {
		t.Fatalf("per-elem strategy: %v", err)
	}
	return s
}

func alignedStrategy(t *testing.T, typ ElementType, align int) *AlignedStrategy {
	t.Helper()
	s, err := NewAlignedStrategy(typ, align)
	if err != nil {
		t.Fatalf("aligned strategy: %v", err)
	}
	return s
}

func poolStrategy(t *testing.T, typ ElementType, align int) *PoolStrategy {
	t.Helper()
	s, err := NewPoolStrategy(typ, align)
	if err != nil {
		t.Fatalf("pool strategy: %v", err)
	}
	return s
}

// constructAllIfNeeded makes per-element strategies comparable to the
// single-region ones in the shared leak test: their bytes only become
// outstanding once elements are constructed.
func constructAllIfNeeded(t *testing.T, s AllocationStrategy, b *MemoryBlock) {
	t.Helper()
	lc, ok := s.(ElementLifecycle)
	if !ok {
		return
	}
	for i := 0; i < b.Count; i++ {
		if b.Live(i) {
			continue
		}
		if err := lc.Construct(b, i); err != nil {
			t.Fatalf("construct element %d: %v", i, err)
		}
	}
}

// TestStrategies_ReleaseReturnsToBaseline checks acquire/release symmetry
// for every strategy across a spread of counts: outstanding bytes must come
// back to the pre-acquire baseline after Release.
func TestStrategies_ReleaseReturnsToBaseline(t *testing.T) {
	typ := Bytes(48)
	strategies := []AllocationStrategy{
		heapStrategy(t, typ),
		perElemStrategy(t, typ),
		alignedStrategy(t, typ, 64),
		poolStrategy(t, typ, 64),
	}
	counts := []int{1, 7, 64, 1000}

	for _, s := range strategies {
		for _, n := range counts {
			baseline := s.Outstanding()
			b, err := s.Acquire(n)
			if err != nil {
				t.Fatalf("%s: acquire(%d): %v", s.Name(), n, err)
			}
			constructAllIfNeeded(t, s, b)
			if s.Outstanding() < baseline {
				t.Errorf("%s: outstanding dropped below baseline while block is held", s.Name())
			}
			if err := s.Release(b); err != nil {
				t.Fatalf("%s: release: %v", s.Name(), err)
			}
			if got := s.Outstanding(); got != baseline {
				t.Errorf("%s: acquire(%d)/release leaked: outstanding=%d baseline=%d", s.Name(), n, got, baseline)
			}
		}
	}
}

// TestAlignedStrategy_AddressInvariant verifies addr % align == 0 for every
// successful acquisition across alignments.
func TestAlignedStrategy_AddressInvariant(t *testing.T) {
	for _, align := range []int{8, 16, 64, 128, 4096} {
		s := alignedStrategy(t, Bytes(24), align)
		b, err := s.Acquire(33)
		if err != nil {
			t.Fatalf("align=%d: acquire: %v", align, err)
		}
		if b.Addr()%uintptr(align) != 0 {
			t.Errorf("align=%d: base address %#x not aligned", align, b.Addr())
		}
		if err := s.Release(b); err != nil {
			t.Fatalf("align=%d: release: %v", align, err)
		}
	}
}

// TestAlignedStrategy_EveryElementAligned is the end-to-end alignment
// scenario: 64-byte-aligned elements of 16 ints, count 1024; every element
// base must sit on a 64-byte boundary.
func TestAlignedStrategy_EveryElementAligned(t *testing.T) {
	const count = 1024
	s := alignedStrategy(t, Bytes(16*4), 64)
	b, err := s.Acquire(count)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer func() {
		if err := s.Release(b); err != nil {
			t.Fatalf("release: %v", err)
		}
	}()

	for i := 0; i < count; i++ {
		if addr := uintptr(b.ElemPtr(i)); addr%64 != 0 {
			t.Fatalf("element %d at %#x is not 64-byte aligned", i, addr)
		}
	}
}

// TestAlignedStrategy_RejectsBadAlignment: alignment must be a power of two.
func TestAlignedStrategy_RejectsBadAlignment(t *testing.T) {
	for _, align := range []int{0, -8, 3, 48, 100} {
		_, err := NewAlignedStrategy(Bytes(8), align)
		var allocErr *AllocationError
		if !errors.As(err, &allocErr) {
			t.Errorf("align=%d: want AllocationError, got %v", align, err)
		}
	}
}

// TestRelease_WrongStrategyRejected: a block may only be released by the
// strategy that produced it; the foreign path must be refused, not executed.
func TestRelease_WrongStrategyRejected(t *testing.T) {
	heap := heapStrategy(t, Bytes(16))
	aligned := alignedStrategy(t, Bytes(16), 64)

	b, err := aligned.Acquire(8)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	var allocErr *AllocationError
	if err := heap.Release(b); !errors.As(err, &allocErr) {
		t.Fatalf("release on foreign strategy: want AllocationError, got %v", err)
	}
	// The rightful owner can still release.
	if err := aligned.Release(b); err != nil {
		t.Fatalf("owner release after refused foreign release: %v", err)
	}
}

// TestAcquire_RejectsBadCount across the strategies that share validation.
func TestAcquire_RejectsBadCount(t *testing.T) {
	for _, s := range []AllocationStrategy{
		heapStrategy(t, Bytes(8)),
		perElemStrategy(t, Bytes(8)),
		alignedStrategy(t, Bytes(8), 8),
		poolStrategy(t, Bytes(8), 8),
	} {
		for _, n := range []int{0, -3} {
			if _, err := s.Acquire(n); err == nil {
				t.Errorf("%s: acquire(%d) succeeded, want error", s.Name(), n)
			}
		}
	}
}

// TestHeapStrategy_ElementsLiveOnAcquire: single-region strategies run Init
// eagerly, so the block is fully live and readable right away.
func TestHeapStrategy_ElementsLiveOnAcquire(t *testing.T) {
	typ := ElementType{
		Name: "tagged",
		Size: 8,
		Init: func(p unsafe.Pointer, i int) error {
			*(*int64)(p) = int64(i) * 3
			return nil
		},
	}
	s := heapStrategy(t, typ)
	b, err := s.Acquire(5)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer func() {
		if err := s.Release(b); err != nil {
			t.Fatalf("release: %v", err)
		}
	}()

	if got := b.LiveCount(); got != 5 {
		t.Fatalf("live count = %d, want 5", got)
	}
	for i := 0; i < 5; i++ {
		if got := *(*int64)(b.ElemPtr(i)); got != int64(i)*3 {
			t.Errorf("element %d = %d, want %d", i, got, i*3)
		}
	}
}

// TestPerElemHeap_ConstructDestructPairing exercises the individually
// acquired element path: construct allocates, destruct frees, release
// mirrors whatever is left.
func TestPerElemHeap_ConstructDestructPairing(t *testing.T) {
	s := perElemStrategy(t, Bytes(32))
	b, err := s.Acquire(4)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if s.Outstanding() != 0 {
		t.Fatalf("outstanding = %d before any construct, want 0", s.Outstanding())
	}

	if err := s.Construct(b, 1); err != nil {
		t.Fatalf("construct: %v", err)
	}
	if err := s.Construct(b, 3); err != nil {
		t.Fatalf("construct: %v", err)
	}
	if got := s.Outstanding(); got != 64 {
		t.Errorf("outstanding = %d after two constructs, want 64", got)
	}
	if b.Live(0) || !b.Live(1) || b.Live(2) || !b.Live(3) {
		t.Errorf("liveness bitmap wrong: %v %v %v %v", b.Live(0), b.Live(1), b.Live(2), b.Live(3))
	}

	if err := s.Destruct(b, 1); err != nil {
		t.Fatalf("destruct: %v", err)
	}
	if err := s.Destruct(b, 1); err == nil {
		t.Error("double destruct succeeded, want error")
	}
	if err := s.Release(b); err != nil {
		t.Fatalf("release with one live element: %v", err)
	}
	if got := s.Outstanding(); got != 0 {
		t.Errorf("outstanding = %d after release, want 0", got)
	}
}
