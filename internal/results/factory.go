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

package results

import (
	"context"
	"fmt"
	"io"
	"os"

	"membench"
)

// Env variable names consulted by NewFromEnv.
const (
	EnvSink      = "MEMBENCH_SINK"       // noop | stdout | redis (default noop)
	EnvRedisAddr = "MEMBENCH_REDIS_ADDR" // e.g. 127.0.0.1:6379
	EnvPrefix    = "MEMBENCH_KEY_PREFIX" // redis key prefix, default "membench"
)

// NewFromEnv builds a sink from environment selectors, so the same binary
// can run dependency-free locally and publish to shared infrastructure in a
// lab without code changes.
func NewFromEnv() (Sink, error) {
	return build(os.Getenv(EnvSink), os.Getenv(EnvRedisAddr), os.Getenv(EnvPrefix), os.Stdout)
}

func build(kind, redisAddr, prefix string, out io.Writer) (Sink, error) {
	switch kind {
	case "", "noop":
		return NoopSink{}, nil
	case "stdout":
		return &WriterSink{Out: out}, nil
	case "redis":
		if redisAddr == "" {
			return nil, fmt.Errorf("sink %q requires %s", kind, EnvRedisAddr)
		}
		return NewRedisSinkAddr(redisAddr, prefix), nil
	default:
		return nil, fmt.Errorf("unknown result sink: %q", kind)
	}
}

// NoopSink discards reports. It is the default so measurement never depends
// on infrastructure being up.
type NoopSink struct{}

func (NoopSink) Publish(context.Context, membench.ComparisonReport) error { return nil }

func (NoopSink) Close() error { return nil }

// WriterSink renders each report's text form to Out, one block per report.
type WriterSink struct {
	Out io.Writer
}

func (s *WriterSink) Publish(_ context.Context, report membench.ComparisonReport) error {
	_, err := fmt.Fprint(s.Out, report.String())
	return err
}

func (s *WriterSink) Close() error { return nil }
