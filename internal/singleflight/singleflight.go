// Package singleflight coalesces concurrent producer invocations for
// the same cache key so that at most one runs at a time; the rest of
// the callers wait for the shared result.
package singleflight

import (
	"context"
	"sync"
)

// Group coalesces concurrent calls per key K. The first caller for a
// key becomes the leader and runs fn; followers wait on the call's done
// channel. Publishing (val, err) happens-before close(done), so reads
// after <-done observe the final values.
//
// Cancelling ctx in a follower unblocks only that follower; it does NOT
// cancel the leader's fn. If the underlying work must be cancellable,
// thread ctx into fn and handle it there.
type Group[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*flight[V]
}

type flight[V any] struct {
	done chan struct{} // closed when val/err are published
	val  V
	err  error
}

// Do runs fn once for the given key. Concurrent calls with the same key
// wait for the shared result. A follower whose ctx is cancelled returns
// ctx.Err() while the leader continues to run fn.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (V, error) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*flight[V])
	}
	if f, ok := g.m[key]; ok {
		// In-flight call exists: wait for it (respecting ctx).
		done := f.done
		g.mu.Unlock()

		select {
		case <-done:
			return f.val, f.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}

	// We are the leader for this key.
	f := &flight[V]{done: make(chan struct{})}
	g.m[key] = f
	g.mu.Unlock()

	// Execute fn outside the lock.
	v, err := fn()

	// Publish the result and wake followers.
	f.val, f.err = v, err
	close(f.done)

	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()

	return v, err
}
