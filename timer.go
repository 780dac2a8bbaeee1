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

import "time"

// Timer is a scoped monotonic stopwatch. time.Now carries a monotonic clock
// reading and time.Since subtracts on it, so the measurement is immune to
// wall-clock adjustment and resolves to well under a microsecond on the
// platforms this harness targets.
type Timer struct{}

// Instant is an opaque start mark; it is only useful as the argument to Stop.
type Instant struct {
	t time.Time
}

func (Timer) Start() Instant { return Instant{t: time.Now()} }

func (Timer) Stop(start Instant) time.Duration { return time.Since(start.t) }
