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

package topology

import (
	"reflect"
	"testing"
)

// TestParseCPUList covers the sysfs cpulist grammar: singles, ranges,
// mixtures, and junk that must be skipped rather than crash detection.
func TestParseCPUList(t *testing.T) {
	cases := []struct {
		in   string
		want []int
	}{
		{"", nil},
		{"0", []int{0}},
		{"0-3", []int{0, 1, 2, 3}},
		{"0-1,4-5", []int{0, 1, 4, 5}},
		{"0-2,8,10-11", []int{0, 1, 2, 8, 10, 11}},
		{" 3 , 5 ", []int{3, 5}},
		{"7-5", nil},   // inverted range skipped
		{"a,1-b", nil}, // garbage skipped
		{"2,x,4", []int{2, 4}},
	}
	for _, tc := range cases {
		if got := ParseCPUList(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseCPUList(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

// TestSynthetic_SingleNodeCoversAllCPUs: the fallback topology is one node
// owning every logical CPU, and it satisfies the adapter contract.
func TestSynthetic_SingleNodeCoversAllCPUs(t *testing.T) {
	info, err := Synthetic()
	if err != nil {
		t.Fatalf("synthetic: %v", err)
	}
	if !info.Synthetic() {
		t.Error("synthetic topology not flagged synthetic")
	}
	n, err := info.NodeCount()
	if err != nil || n != 1 {
		t.Fatalf("node count = (%d, %v), want (1, nil)", n, err)
	}
	cpus, err := info.NodeCPUs(0)
	if err != nil || len(cpus) == 0 {
		t.Fatalf("node 0 CPUs = (%v, %v), want non-empty", cpus, err)
	}
	node, err := info.CurrentNode()
	if err != nil || node != 0 {
		t.Errorf("current node = (%d, %v), want (0, nil)", node, err)
	}
	if _, err := info.NodeCPUs(1); err == nil {
		t.Error("node 1 exists in a single-node synthetic topology")
	}
}

// TestDetect_AlwaysYieldsUsableTopology: whatever the host looks like,
// Detect must hand back something with at least one node so the harness can
// run its degenerate local-only variant.
func TestDetect_AlwaysYieldsUsableTopology(t *testing.T) {
	info, err := Detect()
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	n, err := info.NodeCount()
	if err != nil || n < 1 {
		t.Fatalf("node count = (%d, %v), want >= 1", n, err)
	}
	for _, node := range info.Nodes() {
		cpus, err := info.NodeCPUs(node)
		if err != nil || len(cpus) == 0 {
			t.Errorf("node %d has no CPUs (%v)", node, err)
		}
	}
}

// TestBind_RoundTrip binds to node 0 and undoes it. On hosts where
// affinity syscalls are restricted this may fail; that failure must be an
// error, not a panic.
func TestBind_RoundTrip(t *testing.T) {
	info, err := Detect()
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	undo, err := info.Bind(info.Nodes()[0])
	if err != nil {
		t.Skipf("bind not permitted in this environment: %v", err)
	}
	undo()
}

// TestBind_UnknownNode fails cleanly.
func TestBind_UnknownNode(t *testing.T) {
	info, err := Synthetic()
	if err != nil {
		t.Fatalf("synthetic: %v", err)
	}
	if _, err := info.Bind(99); err == nil {
		t.Error("bind to node 99 succeeded on a single-node topology")
	}
}
