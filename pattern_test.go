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
	"encoding/binary"
	"testing"
	"unsafe"
)

// TestStructScan_AccumulatesEveryWord: known contents, hand-computed sum,
// multiplied by the iteration count.
func TestStructScan_AccumulatesEveryWord(t *testing.T) {
	typ := ElementType{
		Name: "twoWords",
		Size: 8,
		Init: func(p unsafe.Pointer, i int) error {
			*(*int32)(p) = int32(i)
			*(*int32)(unsafe.Add(p, 4)) = int32(i * 10)
			return nil
		},
	}
	s := heapStrategy(t, typ)
	b, err := s.Acquire(4)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer func() {
		if err := s.Release(b); err != nil {
			t.Fatalf("release: %v", err)
		}
	}()

	// Elements are (i, 10i) for i in 0..3: one pass sums to 6 + 60 = 66.
	acc, err := StructScan{}.Run(b, 0, 3)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := int64(66 * 3); acc != want {
		t.Errorf("accumulator = %d, want %d", acc, want)
	}
}

// TestFieldScan_LayoutsAgree is the AoS/SoA equivalence property: the same
// logical data in element-major and field-major placement must produce
// identical accumulators; only elapsed time may differ.
func TestFieldScan_LayoutsAgree(t *testing.T) {
	const (
		count    = 257 // deliberately not a multiple of anything interesting
		elemSize = 12
		fields   = 3
	)
	value := func(i, f int) uint32 { return uint32(i*fields+f) % 509 }

	s := heapStrategy(t, Bytes(elemSize))

	aos, err := s.Acquire(count)
	if err != nil {
		t.Fatalf("acquire aos: %v", err)
	}
	soa, err := s.Acquire(count)
	if err != nil {
		t.Fatalf("acquire soa: %v", err)
	}
	defer func() {
		for _, b := range []*MemoryBlock{aos, soa} {
			if err := s.Release(b); err != nil {
				t.Fatalf("release: %v", err)
			}
		}
	}()

	for i := 0; i < count; i++ {
		for f := 0; f < fields; f++ {
			binary.LittleEndian.PutUint32(aos.Bytes()[i*elemSize+f*4:], value(i, f))
			binary.LittleEndian.PutUint32(soa.Bytes()[f*4*count+i*4:], value(i, f))
		}
	}
	soa.Layout = FieldMajor

	for f := 0; f < fields; f++ {
		scan := FieldScan{Field: f}
		aosAcc, err := scan.Run(aos, 0, 2)
		if err != nil {
			t.Fatalf("field %d aos run: %v", f, err)
		}
		soaAcc, err := scan.Run(soa, 0, 2)
		if err != nil {
			t.Fatalf("field %d soa run: %v", f, err)
		}
		if aosAcc != soaAcc {
			t.Errorf("field %d: element-major accum %d != field-major accum %d", f, aosAcc, soaAcc)
		}
		if aosAcc == 0 {
			t.Errorf("field %d: accumulator is zero; scan read nothing", f)
		}
	}
}

// TestFieldScan_RejectsOutOfRangeField.
func TestFieldScan_RejectsOutOfRangeField(t *testing.T) {
	s := heapStrategy(t, Bytes(8))
	b, err := s.Acquire(2)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer func() {
		if err := s.Release(b); err != nil {
			t.Fatalf("release: %v", err)
		}
	}()
	if _, err := (FieldScan{Field: 2}).Run(b, 0, 1); err == nil {
		t.Error("field 2 of an 8-byte element accepted, want error")
	}
}

// TestScans_RejectUnconstructedElements: scanning a per-element block with
// raw slots must fail cleanly instead of dereferencing a hole.
func TestScans_RejectUnconstructedElements(t *testing.T) {
	s := perElemStrategy(t, Bytes(8))
	b, err := s.Acquire(4)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer func() {
		if err := s.Release(b); err != nil {
			t.Fatalf("release: %v", err)
		}
	}()
	if err := s.Construct(b, 0); err != nil {
		t.Fatalf("construct: %v", err)
	}

	if _, err := (StructScan{}).Run(b, 0, 1); err == nil {
		t.Error("struct-scan over a partially constructed block succeeded, want error")
	}
	if _, err := (FieldScan{Field: 0}).Run(b, 0, 1); err == nil {
		t.Error("field-scan over a partially constructed block succeeded, want error")
	}
}

// TestByteTouch_WrapsAndWitnesses: the walk wraps modulo the block size and
// the accumulator reflects the incremented bytes.
func TestByteTouch_WrapsAndWitnesses(t *testing.T) {
	s := heapStrategy(t, Bytes(1))
	b, err := s.Acquire(4)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer func() {
		if err := s.Release(b); err != nil {
			t.Fatalf("release: %v", err)
		}
	}()

	// 10 touches over 4 bytes: indexes 0,1 get 3 increments, 2,3 get 2.
	acc, err := ByteTouch{}.Run(b, 0, 10)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []byte{3, 3, 2, 2}
	for i, w := range want {
		if got := b.Bytes()[i]; got != w {
			t.Errorf("byte %d = %d, want %d", i, got, w)
		}
	}
	// Accumulator sums each byte's value as it was touched: 1+1+1+1+2+2+2+2+3+3.
	if acc != 18 {
		t.Errorf("accumulator = %d, want 18", acc)
	}
}

// TestChurnPattern_BalancedLifecycle: after a churn run every slot is raw
// again and the witness equals the sum of ids per cycle.
func TestChurnPattern_BalancedLifecycle(t *testing.T) {
	ins := newInstrumented()
	s := poolStrategy(t, ins.elementType(), 8)
	b, err := s.Acquire(10)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer func() {
		if err := s.Release(b); err != nil {
			t.Fatalf("release: %v", err)
		}
	}()

	acc, err := ChurnPattern{Lifecycle: s}.Run(b, 0, 3)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// Witness word is the element id: sum 0..9 = 45, over 3 cycles.
	if want := int64(45 * 3); acc != want {
		t.Errorf("accumulator = %d, want %d", acc, want)
	}
	if b.LiveCount() != 0 {
		t.Errorf("%d elements still live after churn", b.LiveCount())
	}
	if c, d := ins.constructed.Load(), ins.destructed.Load(); c != 30 || d != 30 {
		t.Errorf("construct/destruct = %d/%d, want 30/30", c, d)
	}
}
