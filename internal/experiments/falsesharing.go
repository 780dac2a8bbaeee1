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

import "membench"

// Both variants run the identical workload — two actors, each hammering its
// own 8-byte counter — against the same line-aligned block. The only
// difference is counter placement: adjacent cells on one line vs cells two
// lines apart. Whatever time separates the variants is pure coherency
// traffic.
func runFalseSharing(p Params) membench.ComparisonReport {
	shared := membench.SharedLineSpec()
	separated := membench.SeparatedLineSpec()

	// One block shape serves both specs: size it to the wider layout so the
	// comparison never varies in anything but placement.
	span := separated.SpanBytes()
	if s := shared.SpanBytes(); s > span {
		span = s
	}
	typ := membench.Bytes(span)
	strategy := must(membench.NewAlignedStrategy(typ, membench.CacheLine))

	runner := membench.NewRunner()
	results := []membench.ExperimentResult{
		runner.Execute("shared-line", strategy, must(membench.NewIncrementPattern(shared)), 1, p.Iterations),
		runner.Execute("separated-lines", strategy, must(membench.NewIncrementPattern(separated)), 1, p.Iterations),
	}
	return report("false-sharing", int64(span), results)
}
