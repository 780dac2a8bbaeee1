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

// Package topology is the concrete adapter behind the harness's narrow
// Topology interface. On Linux it reads NUMA layout from
// /sys/devices/system/node (node directories plus per-node cpulist files).
// Everywhere else, or when sysfs carries no NUMA information, it synthesizes
// a single node 0 spanning every logical CPU reported by gopsutil, so the
// rest of the harness keeps working and only the local/remote distinction
// degenerates.
package topology

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"
)

const sysfsNodePath = "/sys/devices/system/node"

// Info describes the machine's memory nodes and implements the harness's
// Topology interface together with the affinity code in bind_*.go.
type Info struct {
	nodes     []int
	nodeCPUs  map[int][]int
	cpuNode   map[int]int
	synthetic bool
}

// Detect reads the real topology when available and falls back to a
// synthetic single-node view otherwise. It only returns an error when even
// the CPU count cannot be determined.
func Detect() (*Info, error) {
	if info, err := detectSysfs(); err == nil {
		return info, nil
	}
	return Synthetic()
}

// Synthetic builds a single-node topology covering all logical CPUs. Useful
// on non-NUMA hardware and in tests.
func Synthetic() (*Info, error) {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("probing logical CPU count: %w", err)
	}
	cpus := make([]int, n)
	for i := range cpus {
		cpus[i] = i
	}
	info := &Info{
		nodes:     []int{0},
		nodeCPUs:  map[int][]int{0: cpus},
		cpuNode:   make(map[int]int, n),
		synthetic: true,
	}
	for _, c := range cpus {
		info.cpuNode[c] = 0
	}
	return info, nil
}

func detectSysfs() (*Info, error) {
	entries, err := os.ReadDir(sysfsNodePath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", sysfsNodePath, err)
	}
	info := &Info{
		nodeCPUs: make(map[int][]int),
		cpuNode:  make(map[int]int),
	}
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "node") {
			continue
		}
		id, err := strconv.Atoi(strings.TrimPrefix(entry.Name(), "node"))
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(sysfsNodePath, entry.Name(), "cpulist"))
		if err != nil {
			continue
		}
		cpus := ParseCPUList(strings.TrimSpace(string(data)))
		if len(cpus) == 0 {
			continue
		}
		info.nodes = append(info.nodes, id)
		info.nodeCPUs[id] = cpus
		for _, c := range cpus {
			info.cpuNode[c] = id
		}
	}
	if len(info.nodes) == 0 {
		return nil, errors.New("sysfs exposes no populated NUMA nodes")
	}
	sort.Ints(info.nodes)
	return info, nil
}

// ParseCPUList parses the sysfs cpulist format: comma-separated entries that
// are either a single CPU id or an inclusive "lo-hi" range, e.g. "0-3,8,10-11".
func ParseCPUList(list string) []int {
	var cpus []int
	if list == "" {
		return cpus
	}
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err1 := strconv.Atoi(lo)
			end, err2 := strconv.Atoi(hi)
			if err1 != nil || err2 != nil || end < start {
				continue
			}
			for c := start; c <= end; c++ {
				cpus = append(cpus, c)
			}
			continue
		}
		if c, err := strconv.Atoi(part); err == nil {
			cpus = append(cpus, c)
		}
	}
	return cpus
}

// Synthetic reports whether this is the degenerate single-node fallback
// rather than detected hardware layout.
func (t *Info) Synthetic() bool { return t.synthetic }

// Nodes returns the node ids in ascending order.
func (t *Info) Nodes() []int { return append([]int(nil), t.nodes...) }

// NodeCount reports the number of memory nodes.
func (t *Info) NodeCount() (int, error) {
	if len(t.nodes) == 0 {
		return 0, errors.New("no topology information")
	}
	return len(t.nodes), nil
}

// NodeCPUs returns the logical CPU ids belonging to node.
func (t *Info) NodeCPUs(node int) ([]int, error) {
	cpus, ok := t.nodeCPUs[node]
	if !ok {
		return nil, fmt.Errorf("node %d does not exist", node)
	}
	return cpus, nil
}

// CurrentNode reports the node owning the CPU the calling thread is on.
func (t *Info) CurrentNode() (int, error) {
	c, err := currentCPU()
	if err != nil {
		return 0, err
	}
	node, ok := t.cpuNode[c]
	if !ok {
		return 0, fmt.Errorf("cpu %d not mapped to any node", c)
	}
	return node, nil
}

// Bind pins the calling goroutine's thread to the CPUs of node and returns
// an undo func restoring the previous affinity. The goroutine stays locked
// to its OS thread until undo runs.
func (t *Info) Bind(node int) (func(), error) {
	cpus, err := t.NodeCPUs(node)
	if err != nil {
		return nil, err
	}
	return bindCPUs(cpus)
}
