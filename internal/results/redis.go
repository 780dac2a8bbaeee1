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
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"membench"
)

// RedisWriter abstracts the minimal Redis surface the sink needs.
// Implementations may wrap github.com/redis/go-redis/v9 or any equivalent;
// tests use an in-memory fake.
type RedisWriter interface {
	RPush(ctx context.Context, key string, values ...interface{}) error
	HSet(ctx context.Context, key string, values ...interface{}) error
}

// GoRedisWriter implements RedisWriter on a real go-redis client.
type GoRedisWriter struct{ c *redis.Client }

func NewGoRedisWriter(addr string) *GoRedisWriter {
	return &GoRedisWriter{c: redis.NewClient(&redis.Options{Addr: addr})}
}

func (g *GoRedisWriter) RPush(ctx context.Context, key string, values ...interface{}) error {
	return g.c.RPush(ctx, key, values...).Err()
}

func (g *GoRedisWriter) HSet(ctx context.Context, key string, values ...interface{}) error {
	return g.c.HSet(ctx, key, values...).Err()
}

func (g *GoRedisWriter) close() error { return g.c.Close() }

// RedisSink appends every published record to a per-experiment list
// (<prefix>:<experiment>:runs) and keeps the latest elapsed time per variant
// in a hash (<prefix>:<experiment>:last), so a dashboard can show both
// history and current state without scanning.
type RedisSink struct {
	w      RedisWriter
	prefix string
	now    func() time.Time
}

// NewRedisSink wraps an existing writer; NewRedisSinkAddr dials a real
// client for addr like "127.0.0.1:6379".
func NewRedisSink(w RedisWriter, prefix string) *RedisSink {
	if prefix == "" {
		prefix = "membench"
	}
	return &RedisSink{w: w, prefix: prefix, now: time.Now}
}

func NewRedisSinkAddr(addr, prefix string) *RedisSink {
	return NewRedisSink(NewGoRedisWriter(addr), prefix)
}

func (s *RedisSink) Publish(ctx context.Context, report membench.ComparisonReport) error {
	records := Flatten(report, s.now())
	runsKey := fmt.Sprintf("%s:%s:runs", s.prefix, report.Name)
	lastKey := fmt.Sprintf("%s:%s:last", s.prefix, report.Name)

	payloads := make([]interface{}, 0, len(records))
	last := make([]interface{}, 0, 2*len(records))
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding record for %s/%s: %w", rec.Experiment, rec.Label, err)
		}
		payloads = append(payloads, data)
		last = append(last, rec.Label, rec.ElapsedNS)
	}
	if err := s.w.RPush(ctx, runsKey, payloads...); err != nil {
		return fmt.Errorf("pushing %d records to %s: %w", len(payloads), runsKey, err)
	}
	if err := s.w.HSet(ctx, lastKey, last...); err != nil {
		return fmt.Errorf("updating %s: %w", lastKey, err)
	}
	return nil
}

func (s *RedisSink) Close() error {
	if c, ok := s.w.(interface{ close() error }); ok {
		return c.close()
	}
	return nil
}
