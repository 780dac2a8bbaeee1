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

package experiments

import (
	"encoding/binary"

	"membench"
)

// particleSize is a 3-field particle record (x, y, z as 4-byte words).
const particleSize = 12

// particleField computes the canonical value of field f of particle i. Both
// layouts are filled from this one function, which is what makes the
// accumulator-equality property hold: same values, same count, different
// placement.
func particleField(i, f int) uint32 {
	return uint32(i*3+f) & 0x3ff
}

// layoutStrategy decorates an inner strategy with a layout declaration and a
// whole-block fill, so the Runner's acquire step hands patterns a block that
// is already populated in the layout under test. Release is the inner
// strategy's, promoted.
type layoutStrategy struct {
	membench.AllocationStrategy
	layout membench.Layout
	fill   func(b *membench.MemoryBlock)
}

func (s *layoutStrategy) Acquire(count int) (*membench.MemoryBlock, error) {
	b, err := s.AllocationStrategy.Acquire(count)
	if err != nil {
		return nil, err
	}
	b.Layout = s.layout
	s.fill(b)
	return b, nil
}

// fillElementMajor writes particles record by record: x,y,z of particle 0,
// then x,y,z of particle 1, and so on.
func fillElementMajor(b *membench.MemoryBlock) {
	buf := b.Bytes()
	for i := 0; i < b.Count; i++ {
		base := i * particleSize
		for f := 0; f < 3; f++ {
			binary.LittleEndian.PutUint32(buf[base+f*4:], particleField(i, f))
		}
	}
}

// fillFieldMajor writes all x values, then all y, then all z.
func fillFieldMajor(b *membench.MemoryBlock) {
	buf := b.Bytes()
	for f := 0; f < 3; f++ {
		base := f * 4 * b.Count
		for i := 0; i < b.Count; i++ {
			binary.LittleEndian.PutUint32(buf[base+i*4:], particleField(i, f))
		}
	}
}

// AoSStrategy and SoAStrategy expose the two layouts for reuse by tests and
// callers outside this experiment.
func AoSStrategy() membench.AllocationStrategy {
	return &layoutStrategy{
		AllocationStrategy: must(membench.NewHeapStrategy(membench.Bytes(particleSize))),
		layout:             membench.ElementMajor,
		fill:               fillElementMajor,
	}
}

func SoAStrategy() membench.AllocationStrategy {
	return &layoutStrategy{
		AllocationStrategy: must(membench.NewHeapStrategy(membench.Bytes(particleSize))),
		layout:             membench.FieldMajor,
		fill:               fillFieldMajor,
	}
}

// The scan reads field x of every particle. Element-major strides 12 bytes
// per read and drags y and z through the cache for nothing; field-major
// reads a contiguous run. Equal accumulators, different wall clock.
func runSoAVsAoS(p Params) membench.ComparisonReport {
	runner := membench.NewRunner()
	scan := membench.FieldScan{Field: 0}
	results := []membench.ExperimentResult{
		runner.Execute("element-major", AoSStrategy(), scan, p.Count, p.Iterations),
		runner.Execute("field-major", SoAStrategy(), scan, p.Count, p.Iterations),
	}
	return report("soa-vs-aos", int64(p.Count)*particleSize, results)
}
