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

// tradeType is a 3-field trade record: id, price, quantity. 24 bytes, the
// classic small-object shape where per-object allocation overhead dominates.
func tradeType() membench.ElementType {
	return membench.ElementType{
		Name: "trade",
		Size: 24,
		Init: func(p unsafe.Pointer, i int) error {
			*(*int64)(p) = int64(i)
			*(*float64)(unsafe.Add(p, 8)) = 100.5 + float64(i)
			*(*int64)(unsafe.Add(p, 16)) = 10
			return nil
		},
	}
}

// Both variants drive the same construct/read/destruct churn inside the
// timed window. The per-object variant pays one allocator round trip per
// element per cycle; the pool variant placed one region up front (outside
// the window, O(1)) and pays only in-place construction. The witness sums
// each record's id, so both accumulators match.
func runHeapVsPool(p Params) membench.ComparisonReport {
	typ := tradeType()
	perObject := must(membench.NewPerElemHeapStrategy(typ))
	pool := must(membench.NewPoolStrategy(typ, membench.CacheLine))

	runner := membench.NewRunner()
	results := []membench.ExperimentResult{
		runner.Execute("heap-per-object", perObject, membench.ChurnPattern{Lifecycle: perObject}, p.Count, p.Iterations),
		runner.Execute("pool-placement", pool, membench.ChurnPattern{Lifecycle: pool}, p.Count, p.Iterations),
	}
	return report("heap-vs-pool", int64(p.Count)*int64(typ.Size), results)
}
