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

import "fmt"

// Topology is the narrow interface to the external topology collaborator.
// The harness never discovers topology itself; it asks this adapter and
// converts its failures into TopologyError. See internal/topology for the
// concrete Linux sysfs implementation.
type Topology interface {
	// NodeCount reports the number of memory nodes, >= 1.
	NodeCount() (int, error)
	// CurrentNode reports the node the calling thread is executing on.
	CurrentNode() (int, error)
	// Bind pins the calling goroutine's thread to the CPUs of node and
	// returns an undo func that restores the previous affinity. The caller
	// must invoke undo on the same goroutine.
	Bind(node int) (func(), error)
}

// ExecutionBinder is implemented by strategies that need the executing actor
// pinned before the timed window starts. The Runner invokes it after Acquire
// and undoes it after the pattern joins; without the pin a node-affine
// allocation is not meaningfully exercised.
type ExecutionBinder interface {
	BindExecution() (undo func(), err error)
}

// pageSize is used to fault allocated pages in while bound to the allocation
// node, so first-touch placement actually lands there.
const pageSize = 4096

// NUMAStrategy allocates a region with first-touch affinity to AllocNode and
// pins execution to ExecNode for the run. Local access is AllocNode ==
// ExecNode; the remote variant uses a different ExecNode over the same
// allocation node.
type NUMAStrategy struct {
	topo      Topology
	typ       ElementType
	allocNode int
	execNode  int
	align     int
	base      *AlignedStrategy
}

// NewNUMAStrategy validates both node ids against the topology up front, so
// a bad node fails at construction with TopologyError instead of mid-suite.
func NewNUMAStrategy(topo Topology, typ ElementType, allocNode, execNode int) (*NUMAStrategy, error) {
	if topo == nil {
		return nil, &TopologyError{Node: allocNode, Reason: "no topology adapter"}
	}
	n, err := topo.NodeCount()
	if err != nil {
		return nil, &TopologyError{Node: allocNode, Reason: fmt.Sprintf("topology unavailable: %v", err)}
	}
	if allocNode < 0 || allocNode >= n {
		return nil, &TopologyError{Node: allocNode, Reason: fmt.Sprintf("allocation node out of range [0,%d)", n)}
	}
	if execNode < 0 || execNode >= n {
		return nil, &TopologyError{Node: execNode, Reason: fmt.Sprintf("execution node out of range [0,%d)", n)}
	}
	base, err := NewAlignedStrategy(typ, CacheLine)
	if err != nil {
		return nil, err
	}
	return &NUMAStrategy{topo: topo, typ: typ, allocNode: allocNode, execNode: execNode, align: CacheLine, base: base}, nil
}

func (s *NUMAStrategy) Name() string {
	return fmt.Sprintf("numa(alloc=%d,exec=%d)", s.allocNode, s.execNode)
}

func (s *NUMAStrategy) Outstanding() int64 { return s.base.Outstanding() }

// Acquire binds the calling thread to the allocation node, allocates, and
// touches every page so first-touch placement pins the region to that node,
// then restores the previous affinity.
func (s *NUMAStrategy) Acquire(count int) (*MemoryBlock, error) {
	undo, err := s.topo.Bind(s.allocNode)
	if err != nil {
		return nil, &TopologyError{Node: s.allocNode, Reason: fmt.Sprintf("bind for allocation: %v", err)}
	}
	defer undo()

	b, err := s.base.Acquire(count)
	if err != nil {
		return nil, err
	}
	for off := 0; off < len(b.bytes); off += pageSize {
		b.bytes[off] = 0
	}
	b.Provenance = ProvNUMA
	b.Node = s.allocNode
	b.owner = s
	return b, nil
}

func (s *NUMAStrategy) Release(b *MemoryBlock) error {
	if err := b.checkOwner(s); err != nil {
		return err
	}
	// Hand back through the node-aware path: same region bookkeeping as the
	// aligned base, with ownership re-pointed for the duration.
	b.owner = s.base
	if err := s.base.Release(b); err != nil {
		b.owner = s
		return err
	}
	return nil
}

// BindExecution pins the caller to the configured execution node.
func (s *NUMAStrategy) BindExecution() (func(), error) {
	undo, err := s.topo.Bind(s.execNode)
	if err != nil {
		return nil, &TopologyError{Node: s.execNode, Reason: fmt.Sprintf("bind for execution: %v", err)}
	}
	return undo, nil
}
