// Package ratelimit implements the fixed-window request limiter.
package ratelimit

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Decision is the outcome of one limiter check.
type Decision struct {
	Allowed bool
	Count   int
	ResetAt time.Time
}

// RetryAfter is the time left in the current window, rounded up to whole seconds.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	left := d.ResetAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return (left + time.Second - 1).Truncate(time.Second)
}

// Store holds fixed-window counters. Check must apply read-check-increment atomically per key.
type Store interface {
	Check(key string, limit int, window time.Duration, now time.Time) Decision
}

const (
	defaultShards         = 32
	defaultSweepThreshold = 5000
)

type entry struct {
	count   int
	resetAt time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[string]entry
}

// MemoryStore is an in-process Store. Keys are spread over independently locked
// shards so unrelated buckets never contend on one mutex.
type MemoryStore struct {
	shards     []*shard
	sweepAfter int
}

// NewMemoryStore returns a store whose total size triggers expired-entry sweeps
// at roughly sweepThreshold entries. Non-positive arguments select the defaults.
func NewMemoryStore(shards, sweepThreshold int) *MemoryStore {
	if shards <= 0 {
		shards = defaultShards
	}
	if sweepThreshold <= 0 {
		sweepThreshold = defaultSweepThreshold
	}
	per := sweepThreshold / shards
	if per < 1 {
		per = 1
	}
	s := &MemoryStore{shards: make([]*shard, shards), sweepAfter: per}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]entry)}
	}
	return s
}

func (s *MemoryStore) shardFor(key string) *shard {
	return s.shards[xxhash.Sum64String(key)%uint64(len(s.shards))]
}

func (s *MemoryStore) Check(key string, limit int, window time.Duration, now time.Time) Decision {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if len(sh.entries) > s.sweepAfter {
		sh.sweep(now)
	}

	e, ok := sh.entries[key]
	if !ok || !e.resetAt.After(now) {
		e = entry{count: 1, resetAt: now.Add(window)}
		sh.entries[key] = e
		return Decision{Allowed: true, Count: 1, ResetAt: e.resetAt}
	}
	if e.count >= limit {
		return Decision{Allowed: false, Count: e.count, ResetAt: e.resetAt}
	}
	e.count++
	sh.entries[key] = e
	return Decision{Allowed: true, Count: e.count, ResetAt: e.resetAt}
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}

// sweep drops every entry whose window has elapsed. Callers hold sh.mu.
func (sh *shard) sweep(now time.Time) {
	for k, e := range sh.entries {
		if !e.resetAt.After(now) {
			delete(sh.entries, k)
		}
	}
}
