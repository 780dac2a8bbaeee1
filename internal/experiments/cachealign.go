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
	"unsafe"

	"membench"
)

// The element is exactly one cache line of int32 words. Naturally aligned
// storage starts wherever the allocator put it, so elements routinely
// straddle two lines; line-aligned storage starts every element on a fresh
// line. A full-struct scan then pays one vs two line fetches per element.
const lineWords = membench.CacheLine / 4

func lineElemType() membench.ElementType {
	return membench.ElementType{
		Name: "line16x4",
		Size: membench.CacheLine,
		Init: func(p unsafe.Pointer, i int) error {
			for w := 0; w < lineWords; w++ {
				*(*int32)(unsafe.Add(p, uintptr(w)*4)) = int32((i + w) & 0x7f)
			}
			return nil
		},
	}
}

func runCacheAlignment(p Params) membench.ComparisonReport {
	typ := lineElemType()
	natural := must(membench.NewHeapStrategy(typ))
	aligned := must(membench.NewAlignedStrategy(typ, membench.CacheLine))

	runner := membench.NewRunner()
	scan := membench.StructScan{}
	results := []membench.ExperimentResult{
		runner.Execute("natural-alignment", natural, scan, p.Count, p.Iterations),
		runner.Execute("line-aligned", aligned, scan, p.Count, p.Iterations),
	}
	return report("cache-alignment", int64(p.Count)*int64(typ.Size), results)
}
