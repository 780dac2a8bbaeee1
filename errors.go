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

// AllocationError reports that the underlying memory source could not satisfy
// a request, or that a block was handed to the wrong release path.
type AllocationError struct {
	Size   int
	Align  int
	Reason string
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocation failed (size=%d align=%d): %s", e.Size, e.Align, e.Reason)
}

// TopologyError reports an invalid NUMA node or unavailable topology
// information. It is the only error the NUMA strategy and the Runner's
// execution binding surface.
type TopologyError struct {
	Node   int
	Reason string
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("topology error (node=%d): %s", e.Node, e.Reason)
}

// ConstructionError reports a failed in-place element construction. It is
// propagated, never swallowed: a pool with partially constructed elements
// must not silently continue.
type ConstructionError struct {
	Index int
	Err   error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("constructing element %d: %v", e.Index, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }
