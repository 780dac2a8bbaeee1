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
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// ExperimentResult is the outcome of one Runner.Execute call. Count and
// Iterations are carried so that two results are only ever compared under
// identical workloads; Accum is the witness value proving the pattern's
// memory traffic was not elided. A failed variant carries Err and a zero
// Elapsed.
type ExperimentResult struct {
	Label      string
	Elapsed    time.Duration
	Accum      int64
	Count      int
	Iterations int
	Err        error
}

// globalSink receives every accumulator the Runner produces. Folding results
// into package-global atomic state is the last line of the
// dead-code-elimination defense: even a future smarter compiler cannot prove
// an atomic store to an exported-by-effect global unobservable.
var globalSink atomic.Int64

// KeepAlive folds v into the global sink. Patterns and tests may call it
// directly for intermediate witnesses.
func KeepAlive(v int64) { globalSink.Add(v) }

// SinkValue exposes the sink for tests; its absolute value is meaningless.
func SinkValue() int64 { return globalSink.Load() }

// Runner executes one experiment: acquire a block from the strategy, bind
// execution if the strategy requires it, run the pattern under the timer
// (spawning and joining the pattern's actors), release the block, report.
type Runner struct {
	timer Timer
}

func NewRunner() *Runner { return &Runner{} }

// Execute owns the block for the duration of the run. The release is
// deferred, so it happens on every exit path — a variant that fails mid-run
// still gives its region back. Failures are recorded in the result rather
// than returned: one bad variant must not stop a suite of comparisons.
func (r *Runner) Execute(label string, strategy AllocationStrategy, pattern AccessPattern, count, iterations int) ExperimentResult {
	res := ExperimentResult{Label: label, Count: count, Iterations: iterations}

	block, err := strategy.Acquire(count)
	if err != nil {
		res.Err = err
		return res
	}
	defer func() {
		if rerr := strategy.Release(block); rerr != nil && res.Err == nil {
			res.Err = rerr
		}
	}()

	if binder, ok := strategy.(ExecutionBinder); ok {
		undo, err := binder.BindExecution()
		if err != nil {
			res.Err = err
			return res
		}
		defer undo()
	}

	start := r.timer.Start()
	accum, err := r.runActors(pattern, block, iterations)
	res.Elapsed = r.timer.Stop(start)
	if err != nil {
		res.Err = err
		res.Elapsed = 0
		return res
	}
	res.Accum = accum
	KeepAlive(accum)
	return res
}

// runActors invokes the pattern, fanning out to one goroutine per actor for
// multi-actor patterns. The Wait is the mandatory join: the timer must not
// stop until every actor has finished, or the measurement is meaningless.
func (r *Runner) runActors(pattern AccessPattern, block *MemoryBlock, iterations int) (int64, error) {
	actors := pattern.Actors()
	if actors <= 1 {
		return pattern.Run(block, 0, iterations)
	}

	var total atomic.Int64
	var g errgroup.Group
	for a := 0; a < actors; a++ {
		a := a
		g.Go(func() error {
			acc, err := pattern.Run(block, a, iterations)
			if err != nil {
				return err
			}
			total.Add(acc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return total.Load(), nil
}
