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
	"fmt"
	"strings"
	"time"
)

// ComparisonRow is one variant in a rendered comparison. Ratio is this
// variant's elapsed time divided by the first (baseline) variant's; it is 0
// when either this variant or the baseline failed.
type ComparisonRow struct {
	Label   string
	Elapsed time.Duration
	Accum   int64
	Ratio   float64
	Err     error
}

// ComparisonReport holds the ordered comparison of two or more variants of
// one experiment. Order is the declaration order of the inputs; by
// convention the first variant is the expected-slower baseline, though
// nothing enforces that.
type ComparisonReport struct {
	Name string
	rows []ComparisonRow
}

func (r ComparisonReport) Rows() []ComparisonRow { return r.rows }

// Failed reports whether any variant carries an error.
func (r ComparisonReport) Failed() bool {
	for _, row := range r.rows {
		if row.Err != nil {
			return true
		}
	}
	return false
}

// String renders a simple fixed-order text comparison. Anything fancier is
// the caller's job; sinks get the structured rows instead.
func (r ComparisonReport) String() string {
	var sb strings.Builder
	if r.Name != "" {
		fmt.Fprintf(&sb, "%s:\n", r.Name)
	}
	for _, row := range r.rows {
		if row.Err != nil {
			fmt.Fprintf(&sb, "  %-28s FAILED: %v\n", row.Label, row.Err)
			continue
		}
		if row.Ratio > 0 {
			fmt.Fprintf(&sb, "  %-28s %12s  accum=%-14d %.2fx\n", row.Label, row.Elapsed, row.Accum, row.Ratio)
		} else {
			fmt.Fprintf(&sb, "  %-28s %12s  accum=%d\n", row.Label, row.Elapsed, row.Accum)
		}
	}
	return sb.String()
}

// Reporter turns an ordered sequence of results into a ComparisonReport.
type Reporter struct{}

// Compare preserves input order and computes each variant's elapsed-time
// ratio against the first variant. Failed variants keep their place in the
// ordering with the error attached and no ratio.
func (Reporter) Compare(name string, results []ExperimentResult) ComparisonReport {
	report := ComparisonReport{Name: name, rows: make([]ComparisonRow, 0, len(results))}
	var baseline time.Duration
	if len(results) > 0 && results[0].Err == nil {
		baseline = results[0].Elapsed
	}
	for _, res := range results {
		row := ComparisonRow{
			Label:   res.Label,
			Elapsed: res.Elapsed,
			Accum:   res.Accum,
			Err:     res.Err,
		}
		if res.Err == nil && baseline > 0 {
			row.Ratio = float64(res.Elapsed) / float64(baseline)
		}
		report.rows = append(report.rows, row)
	}
	return report
}
