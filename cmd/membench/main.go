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

// Package main runs the memory-layout benchmark suite. It is the thin caller
// the harness anticipates: it selects experiments, scales their workloads,
// renders the comparisons, and optionally publishes them to a result sink
// (MEMBENCH_SINK / MEMBENCH_REDIS_ADDR) and a Prometheus endpoint.
//
// Examples:
//
//	membench                          # run every experiment at its defaults
//	membench -experiment false-sharing -iterations 100000000
//	membench -list
//	MEMBENCH_SINK=redis MEMBENCH_REDIS_ADDR=127.0.0.1:6379 membench
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"membench"
	"membench/internal/experiments"
	"membench/internal/results"
	"membench/internal/telemetry"
)

func main() {
	var (
		name        = flag.String("experiment", "", "experiment to run (default: all); see -list")
		count       = flag.Int("count", 0, "override element count (0 = experiment default)")
		iterations  = flag.Int("iterations", 0, "override iteration count (0 = experiment default)")
		list        = flag.Bool("list", false, "list available experiments and exit")
		metricsAddr = flag.String("metrics-addr", "", "expose Prometheus metrics on this address (e.g. :9190); empty disables telemetry")
	)
	flag.Parse()

	if *list {
		for _, e := range experiments.All() {
			fmt.Printf("%-20s %s (defaults: count=%d iterations=%d)\n", e.Name, e.Summary, e.Defaults.Count, e.Defaults.Iterations)
		}
		return
	}

	telemetry.Enable(telemetry.Config{Enabled: *metricsAddr != "", MetricsAddr: *metricsAddr})

	sink, err := results.NewFromEnv()
	if err != nil {
		log.Fatalf("configuring result sink: %v", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.Printf("closing result sink: %v", err)
		}
	}()

	selected := experiments.All()
	if *name != "" {
		e, ok := experiments.Lookup(*name)
		if !ok {
			log.Fatalf("unknown experiment %q; try -list", *name)
		}
		selected = []experiments.Experiment{e}
	}

	failed := 0
	for _, e := range selected {
		params := e.Defaults
		if *count > 0 {
			params.Count = *count
		}
		if *iterations > 0 {
			params.Iterations = *iterations
		}

		report := e.Run(params)
		fmt.Print(report.String())
		if allVariantsFailed(report.Rows()) {
			failed++
		}
		if err := sink.Publish(context.Background(), report); err != nil {
			log.Printf("publishing %s results: %v", e.Name, err)
		}
	}

	// Partial failure (e.g. no second NUMA node) is expected on some hosts;
	// only a suite with nothing measured at all is an error exit.
	if failed == len(selected) {
		os.Exit(1)
	}
}

func allVariantsFailed(rows []membench.ComparisonRow) bool {
	for _, row := range rows {
		if row.Err == nil {
			return false
		}
	}
	return len(rows) > 0
}
