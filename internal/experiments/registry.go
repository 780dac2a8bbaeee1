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

// Package experiments holds the concrete memory-layout experiments as named
// call-sites of the harness abstractions. Each experiment runs two or more
// variants that differ in exactly one layout decision and returns their
// ordered comparison; the slower-by-expectation variant always goes first.
package experiments

import (
	"fmt"

	"membench"
	"membench/internal/telemetry"
)

// Params are the two knobs every experiment shares. Count is the number of
// logical elements (for false sharing, which has a single fixed-size shared
// block, it is ignored); Iterations is the per-run (for concurrent patterns:
// per-actor) repeat count.
//
// Defaults are scaled roughly two orders of magnitude below the
// tens-of-millions-to-billions constants such benchmarks traditionally
// hardcode, keeping a full suite in the seconds range on developer hardware
// while staying far above timer resolution. Scale them back up for
// publication-grade numbers.
type Params struct {
	Count      int
	Iterations int
}

// Experiment is a named, self-describing comparison.
type Experiment struct {
	Name     string
	Summary  string
	Defaults Params
	Run      func(p Params) membench.ComparisonReport
}

// All returns the registry in a stable, documentation-friendly order.
func All() []Experiment {
	return []Experiment{
		{
			Name:     "cache-alignment",
			Summary:  "full-struct scan over naturally aligned vs cache-line-aligned 64-byte elements",
			Defaults: Params{Count: 100_000, Iterations: 20},
			Run:      runCacheAlignment,
		},
		{
			Name:     "false-sharing",
			Summary:  "two actors incrementing private counters on a shared vs separated cache line",
			Defaults: Params{Count: 1, Iterations: 10_000_000},
			Run:      runFalseSharing,
		},
		{
			Name:     "heap-vs-pool",
			Summary:  "construct/destruct churn: one allocation per object vs placement into a pre-reserved pool",
			Defaults: Params{Count: 100_000, Iterations: 5},
			Run:      runHeapVsPool,
		},
		{
			Name:     "soa-vs-aos",
			Summary:  "single-field scan over element-major vs field-major particle layout",
			Defaults: Params{Count: 1_000_000, Iterations: 10},
			Run:      runSoAVsAoS,
		},
		{
			Name:     "numa-local-remote",
			Summary:  "strided byte touches with the executing core on the allocation node vs a different node",
			Defaults: Params{Count: 1 << 20, Iterations: 5_000_000},
			Run:      runNUMAAccess,
		},
	}
}

// Lookup finds an experiment by name.
func Lookup(name string) (Experiment, bool) {
	for _, e := range All() {
		if e.Name == name {
			return e, true
		}
	}
	return Experiment{}, false
}

// report assembles the ordered comparison and feeds telemetry. bytesPerRun
// is the payload size each successful variant acquired.
func report(name string, bytesPerRun int64, results []membench.ExperimentResult) membench.ComparisonReport {
	var reporter membench.Reporter
	rep := reporter.Compare(name, results)
	for _, res := range results {
		telemetry.ObserveVariant(name, res.Label, res.Elapsed, res.Err != nil)
		if res.Err == nil {
			telemetry.ObserveBytes(bytesPerRun)
		}
	}
	return rep
}

// failedResult represents a variant that could not even be constructed
// (typically a TopologyError); it keeps its slot in the comparison.
func failedResult(label string, err error) membench.ExperimentResult {
	return membench.ExperimentResult{Label: label, Err: err}
}

// must trims constructor error handling for strategies built from constants;
// a failure here is a bug in the experiment definition, not a runtime
// condition.
func must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("experiments: bad builtin definition: %v", err))
	}
	return v
}
