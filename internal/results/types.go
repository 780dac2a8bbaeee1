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

// Package results publishes comparison reports to a pluggable sink so runs
// on different machines or commits can be collected side by side. The core
// harness knows nothing about sinks; callers hand finished reports here.
package results

import (
	"context"
	"time"

	"membench"
)

// Record is the wire form of one comparison row, flattened for storage.
type Record struct {
	Experiment string        `json:"experiment"`
	Label      string        `json:"label"`
	ElapsedNS  int64         `json:"elapsed_ns"`
	Accum      int64         `json:"accum"`
	Ratio      float64       `json:"ratio,omitempty"`
	Error      string        `json:"error,omitempty"`
	RecordedAt time.Time     `json:"recorded_at"`
	Elapsed    time.Duration `json:"-"`
}

// Flatten converts a report into storable records, one per variant.
func Flatten(report membench.ComparisonReport, now time.Time) []Record {
	rows := report.Rows()
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := Record{
			Experiment: report.Name,
			Label:      row.Label,
			ElapsedNS:  row.Elapsed.Nanoseconds(),
			Elapsed:    row.Elapsed,
			Accum:      row.Accum,
			Ratio:      row.Ratio,
			RecordedAt: now,
		}
		if row.Err != nil {
			rec.Error = row.Err.Error()
		}
		records = append(records, rec)
	}
	return records
}

// Sink receives finished comparison reports. Implementations must be safe
// for sequential reuse across a suite; a sink error fails the publishing
// step only, never the measurements themselves.
type Sink interface {
	Publish(ctx context.Context, report membench.ComparisonReport) error
	Close() error
}
