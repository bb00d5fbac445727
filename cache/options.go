package cache

import (
	"time"

	"github.com/rabuchaim/cachettl/keys"
	"github.com/rabuchaim/cachettl/policy"
)

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictTTL — expired by TTL (lazy eviction on a read path).
	EvictTTL EvictReason = iota
	// EvictCapacity — removed to satisfy the MaxSize limit.
	EvictCapacity
)

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int)
}

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

// Options configures a wrapped function. TTL is required; the zero
// value of every other field is safe and means:
//   - MaxSize 0       => unbounded (entries leave only by expiry)
//   - nil Policy      => LRU
//   - SingleFlight false => concurrent misses each invoke the producer
//   - nil Metrics     => NoopMetrics
//   - nil Clock       => time.Now()
//
// Wrap and WrapContext panic on a non-positive TTL or a negative
// MaxSize: misconfiguration is rejected at construction time, never
// surfaced at call time.
type Options[V any] struct {
	// TTL is the time after which a cached result is treated as absent.
	// Expiry is exact and per entry: each result lives TTL from its own
	// insertion, evaluated lazily on every read path.
	TTL time.Duration

	// MaxSize bounds the number of live entries. 0 disables the bound.
	MaxSize int

	// Typed mixes each argument's concrete type into the cache key, so
	// Call(3) and Call(3.0) occupy distinct entries.
	Typed bool

	// Policy is a pluggable eviction policy; nil => LRU by default.
	// fifo.New reproduces plain insertion-order eviction.
	Policy policy.Policy[keys.Key, V]

	// SingleFlight coalesces concurrent misses for the same key into
	// one producer invocation. Off by default: without it, two callers
	// that both miss while a key is absent each invoke the producer,
	// and the later result refreshes the entry.
	SingleFlight bool

	// OnEvict is called for every eviction, under the engine lock;
	// keep callbacks lightweight. Clear does not report evictions.
	OnEvict func(k keys.Key, v V, reason EvictReason)

	// Metrics receives Hit/Miss/Evict/Size signals.
	Metrics Metrics

	// Clock overrides the time source (tests). Nil => time.Now().
	Clock Clock
}
