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
	"unsafe"
)

// AccessPattern performs a fixed amount of read/write work against a block
// and returns an accumulator that witnesses the work. Every read a pattern
// performs must flow into that accumulator; the Runner folds it into a
// process-global sink so the compiler can never prove the traffic
// unobservable. A pattern whose loop can be optimized away is a defect, not
// a fast pattern.
//
// Actors reports how many concurrent actors the pattern requires; the Runner
// spawns exactly that many, calling Run once per actor with its index.
// Single-actor patterns are invoked synchronously with actor 0.
type AccessPattern interface {
	Name() string
	Actors() int
	Run(b *MemoryBlock, actor, iterations int) (int64, error)
}

// ---- Sequential full-struct scan ----

// StructScan reads every 4-byte word of every element once per iteration.
// Against elements that straddle a cache-line boundary each element costs
// two line fetches instead of one, which is the effect the alignment
// comparison isolates.
type StructScan struct{}

func (StructScan) Name() string { return "struct-scan" }

func (StructScan) Actors() int { return 1 }

func (StructScan) Run(b *MemoryBlock, _, iterations int) (int64, error) {
	if b.ElemSize%4 != 0 {
		return 0, fmt.Errorf("struct-scan: element size %d is not a multiple of 4", b.ElemSize)
	}
	if live := b.LiveCount(); live != b.Count {
		return 0, fmt.Errorf("struct-scan: only %d of %d elements constructed", live, b.Count)
	}
	words := b.ElemSize / 4
	var acc int64
	for it := 0; it < iterations; it++ {
		for i := 0; i < b.Count; i++ {
			p := b.ElemPtr(i)
			for w := 0; w < words; w++ {
				acc += int64(*(*int32)(unsafe.Add(p, uintptr(w)*4)))
			}
		}
	}
	return acc, nil
}

// ---- Single-field scan ----

// FieldScan reads one logical 4-byte field across all elements once per
// iteration. Against an ElementMajor block the reads stride by ElemSize;
// against a FieldMajor block the same logical reads are contiguous. Both
// visit the same logical data volume, so the accumulators match and only the
// elapsed time may differ.
type FieldScan struct {
	// Field is the zero-based index of the 4-byte field to scan.
	Field int
}

func (p FieldScan) Name() string { return fmt.Sprintf("field-scan(%d)", p.Field) }

func (FieldScan) Actors() int { return 1 }

func (p FieldScan) Run(b *MemoryBlock, _, iterations int) (int64, error) {
	if off := p.Field * 4; off < 0 || off+4 > b.ElemSize {
		return 0, fmt.Errorf("field-scan: field %d out of range for element size %d", p.Field, b.ElemSize)
	}
	if live := b.LiveCount(); live != b.Count {
		return 0, fmt.Errorf("field-scan: only %d of %d elements constructed", live, b.Count)
	}
	var acc int64
	switch b.Layout {
	case FieldMajor:
		// Field f of all Count elements is one contiguous run.
		base := unsafe.Pointer(&b.bytes[p.Field*4*b.Count])
		for it := 0; it < iterations; it++ {
			for i := 0; i < b.Count; i++ {
				acc += int64(*(*int32)(unsafe.Add(base, uintptr(i)*4)))
			}
		}
	default:
		off := uintptr(p.Field * 4)
		for it := 0; it < iterations; it++ {
			for i := 0; i < b.Count; i++ {
				acc += int64(*(*int32)(unsafe.Add(b.ElemPtr(i), off)))
			}
		}
	}
	return acc, nil
}

// ---- Strided byte touch ----

// ByteTouch increments one byte per iteration, walking the block modulo its
// size. This is the NUMA workload: the interesting variable is not the
// access pattern but which node the touched pages live on relative to the
// executing core.
type ByteTouch struct{}

func (ByteTouch) Name() string { return "byte-touch" }

func (ByteTouch) Actors() int { return 1 }

func (ByteTouch) Run(b *MemoryBlock, _, iterations int) (int64, error) {
	buf := b.bytes
	if len(buf) == 0 {
		return 0, fmt.Errorf("byte-touch: block has no contiguous region")
	}
	n := len(buf)
	var acc int64
	for i := 0; i < iterations; i++ {
		idx := i % n
		buf[idx]++
		acc += int64(buf[idx])
	}
	return acc, nil
}

// ---- Construct/destruct churn ----

// ChurnPattern drives a strategy's per-element lifecycle inside the timed
// window: each iteration constructs every element, reads a witness word from
// each, and destructs them all again. Run against a PoolStrategy block it
// measures in-place construction over a pre-reserved region; run against a
// PerElemHeapStrategy block the same loop pays one allocator round trip per
// element, which is the heap-vs-pool comparison.
type ChurnPattern struct {
	Lifecycle ElementLifecycle
}

func (p ChurnPattern) Name() string { return "construct-churn" }

func (ChurnPattern) Actors() int { return 1 }

func (p ChurnPattern) Run(b *MemoryBlock, _, iterations int) (int64, error) {
	if p.Lifecycle == nil {
		return 0, fmt.Errorf("construct-churn: no element lifecycle")
	}
	if b.ElemSize < 8 {
		return 0, fmt.Errorf("construct-churn: element size %d too small for a witness word", b.ElemSize)
	}
	var acc int64
	for it := 0; it < iterations; it++ {
		for i := 0; i < b.Count; i++ {
			if err := p.Lifecycle.Construct(b, i); err != nil {
				return acc, err
			}
		}
		for i := 0; i < b.Count; i++ {
			acc += *(*int64)(b.ElemPtr(i))
			if err := p.Lifecycle.Destruct(b, i); err != nil {
				return acc, err
			}
		}
	}
	return acc, nil
}
