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
	"membench"
	"membench/internal/topology"
)

// Both variants touch a buffer whose pages live on node 0. The local variant
// executes on node 0 as well; the remote variant executes on the highest
// other node, paying the interconnect on every miss. On single-node machines
// the remote variant reports a TopologyError and the local variant still
// runs — one variant's failure never cancels the comparison.
func runNUMAAccess(p Params) membench.ComparisonReport {
	const size = int64(1) // element is a single byte; Count is the buffer size

	topo, err := topology.Detect()
	if err != nil {
		return report("numa-local-remote", 0, []membench.ExperimentResult{
			failedResult("remote-node", &membench.TopologyError{Reason: err.Error()}),
			failedResult("local-node", &membench.TopologyError{Reason: err.Error()}),
		})
	}
	nodes, _ := topo.NodeCount()
	remoteNode := nodes - 1
	if remoteNode == 0 {
		// Degenerate single-node host: ask for node 1 anyway so the failure
		// surfaces as the TopologyError it is, not as a silent fake "remote".
		remoteNode = 1
	}

	typ := membench.Bytes(1)
	runner := membench.NewRunner()
	touch := membench.ByteTouch{}

	results := make([]membench.ExperimentResult, 0, 2)
	if remote, err := membench.NewNUMAStrategy(topo, typ, 0, remoteNode); err != nil {
		results = append(results, failedResult("remote-node", err))
	} else {
		results = append(results, runner.Execute("remote-node", remote, touch, p.Count, p.Iterations))
	}
	if local, err := membench.NewNUMAStrategy(topo, typ, 0, 0); err != nil {
		results = append(results, failedResult("local-node", err))
	} else {
		results = append(results, runner.Execute("local-node", local, touch, p.Count, p.Iterations))
	}
	return report("numa-local-remote", int64(p.Count)*size, results)
}
