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
	"testing"
)

// TestActorSpec_Validate covers the non-overlap rules: 8-byte alignment and
// distinct cells. Same-line colocation is explicitly allowed.
func TestActorSpec_Validate(t *testing.T) {
	cases := []struct {
		name    string
		offsets []uintptr
		wantErr bool
	}{
		{"shared line", []uintptr{0, 8}, false},
		{"separated lines", []uintptr{0, 128}, false},
		{"single actor", []uintptr{0}, false},
		{"no actors", nil, true},
		{"misaligned", []uintptr{0, 12}, true},
		{"overlapping", []uintptr{8, 8}, true},
	}
	for _, tc := range cases {
		err := ActorSpec{Offsets: tc.offsets}.Validate()
		if (err != nil) != tc.wantErr {
			t.Errorf("%s: Validate() = %v, wantErr=%v", tc.name, err, tc.wantErr)
		}
	}
}

// TestBuiltinSpecs_Geometry pins down the two canonical layouts: the shared
// variant colocates both cells on one line, the separated variant puts at
// least a full line between them.
func TestBuiltinSpecs_Geometry(t *testing.T) {
	shared := SharedLineSpec()
	if shared.Offsets[1]-shared.Offsets[0] >= CacheLine {
		t.Errorf("shared-line cells %v do not share a line", shared.Offsets)
	}
	sep := SeparatedLineSpec()
	if d := sep.Offsets[1] - sep.Offsets[0]; d < CacheLine {
		t.Errorf("separated-line cells only %d bytes apart", d)
	}
	if shared.SpanBytes() != 16 {
		t.Errorf("shared span = %d, want 16", shared.SpanBytes())
	}
}

// runIncrement executes one layout through the full Runner path and checks
// the per-actor final counts.
func runIncrement(t *testing.T, spec ActorSpec, iterations int) ExperimentResult {
	t.Helper()
	strategy := alignedStrategy(t, Bytes(spec.SpanBytes()), CacheLine)
	pattern, err := NewIncrementPattern(spec)
	if err != nil {
		t.Fatalf("pattern: %v", err)
	}

	// Keep the block alive past the run to inspect the counters: use the
	// strategy directly rather than Execute so release is explicit.
	b, err := strategy.Acquire(1)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer func() {
		if err := strategy.Release(b); err != nil {
			t.Fatalf("release: %v", err)
		}
	}()

	runner := NewRunner()
	acc, err := runner.runActors(pattern, b, iterations)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i, off := range spec.Offsets {
		if got := CounterValue(b, off); got != int64(iterations) {
			t.Errorf("actor %d count = %d, want %d (lost updates)", i, got, iterations)
		}
	}
	if want := int64(iterations * len(spec.Offsets)); acc != want {
		t.Errorf("joined accumulator = %d, want %d", acc, want)
	}
	return ExperimentResult{Accum: acc}
}

// TestIncrement_NoLostUpdates_SharedLine: concurrency correctness must hold
// regardless of layout — colocated counters still end at exactly the
// iteration count.
func TestIncrement_NoLostUpdates_SharedLine(t *testing.T) {
	runIncrement(t, SharedLineSpec(), 100_000)
}

// TestIncrement_NoLostUpdates_SeparatedLines: the control variant, same
// workload on disjoint lines.
func TestIncrement_NoLostUpdates_SeparatedLines(t *testing.T) {
	runIncrement(t, SeparatedLineSpec(), 100_000)
}

// TestIncrement_OffsetOutsideBlock fails cleanly instead of touching out of
// bounds.
func TestIncrement_OffsetOutsideBlock(t *testing.T) {
	strategy := alignedStrategy(t, Bytes(16), CacheLine)
	b, err := strategy.Acquire(1)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer func() {
		if err := strategy.Release(b); err != nil {
			t.Fatalf("release: %v", err)
		}
	}()

	pattern, err := NewIncrementPattern(ActorSpec{Offsets: []uintptr{0, 128}})
	if err != nil {
		t.Fatalf("pattern: %v", err)
	}
	if _, err := pattern.Run(b, 1, 10); err == nil {
		t.Error("offset 128 in a 16-byte block accepted, want error")
	}
}
