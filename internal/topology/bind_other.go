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

//go:build !linux

package topology

import "runtime"

// Non-Linux platforms have no portable thread-affinity syscall surface we
// care to wrap; binding degrades to locking the goroutine to its thread.
// Topology on these platforms is always the synthetic single node, so the
// local/remote distinction is already gone.
func bindCPUs(_ []int) (func(), error) {
	runtime.LockOSThread()
	return runtime.UnlockOSThread, nil
}

// currentCPU has no portable answer off Linux; node 0 owns every CPU in the
// synthetic topology, so CPU 0 is as good as any.
func currentCPU() (int, error) { return 0, nil }
