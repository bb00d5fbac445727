package cache

import (
	"context"

	"github.com/rabuchaim/cachettl/keys"
)

// Func memoizes a blocking producer. Obtain one with Wrap.
// All methods are safe for concurrent use by multiple goroutines.
type Func[V any] struct {
	e  *engine[V]
	fn func(args ...any) (V, error)
}

// Wrap memoizes producer: repeated Calls with equal arguments within
// Options.TTL return the cached result without re-invoking producer.
//
// Panics if producer is nil, opt.TTL is not positive, or opt.MaxSize is
// negative.
func Wrap[V any](producer func(args ...any) (V, error), opt Options[V]) *Func[V] {
	if producer == nil {
		panic("cachettl: nil producer")
	}
	return &Func[V]{e: newEngine(opt), fn: producer}
}

// Call returns the cached result for args, invoking the producer on a
// miss. Producer errors propagate unmodified and are never cached.
// Arguments must be hashable per the keys package; unhashable arguments
// fail with an error wrapping keys.ErrUnhashable, cache state untouched.
func (f *Func[V]) Call(args ...any) (V, error) {
	return f.e.getOrCompute(context.Background(), args, func(context.Context) (V, error) {
		return f.fn(args...)
	})
}

// Info returns a statistics snapshot. See Info for counter semantics.
func (f *Func[V]) Info() Info { return f.e.info() }

// Clear empties the cache and resets the hit/miss counters. Idempotent.
func (f *Func[V]) Clear() { f.e.clear() }

// Keys returns the live cache keys oldest-inserted first; the first
// key belongs to the entry that will expire soonest.
func (f *Func[V]) Keys() []keys.Key { return f.e.keysOldestFirst() }

// Unwrap returns the original producer, for callers that need to bypass
// the cache.
func (f *Func[V]) Unwrap() func(args ...any) (V, error) { return f.fn }

// ContextFunc memoizes a context-aware producer. Obtain one with
// WrapContext. The producer invocation is the call path's only blocking
// point: lookups, inserts, evictions and snapshots never block, so
// concurrent callers interleave only across the producer.
type ContextFunc[V any] struct {
	e  *engine[V]
	fn func(ctx context.Context, args ...any) (V, error)
}

// WrapContext is Wrap for producers that do asynchronous work under a
// context. Same construction-time panics as Wrap.
func WrapContext[V any](producer func(ctx context.Context, args ...any) (V, error), opt Options[V]) *ContextFunc[V] {
	if producer == nil {
		panic("cachettl: nil producer")
	}
	return &ContextFunc[V]{e: newEngine(opt), fn: producer}
}

// Call returns the cached result for args, invoking the producer on a
// miss. If ctx is cancelled before the producer completes, nothing is
// cached and the miss already recorded stands; the cache is otherwise
// unchanged.
//
// Two concurrent Calls for the same absent key each invoke the producer
// unless Options.SingleFlight is enabled; the later result refreshes
// the entry.
func (f *ContextFunc[V]) Call(ctx context.Context, args ...any) (V, error) {
	return f.e.getOrCompute(ctx, args, func(ctx context.Context) (V, error) {
		return f.fn(ctx, args...)
	})
}

// Info returns a statistics snapshot. See Info for counter semantics.
func (f *ContextFunc[V]) Info() Info { return f.e.info() }

// Clear empties the cache and resets the hit/miss counters. Idempotent.
func (f *ContextFunc[V]) Clear() { f.e.clear() }

// Keys returns the live cache keys oldest-inserted first; the first
// key belongs to the entry that will expire soonest.
func (f *ContextFunc[V]) Keys() []keys.Key { return f.e.keysOldestFirst() }

// Unwrap returns the original producer, for callers that need to bypass
// the cache.
func (f *ContextFunc[V]) Unwrap() func(ctx context.Context, args ...any) (V, error) {
	return f.fn
}
