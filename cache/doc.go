// Package cache memoizes function calls with a TTL-bounded, size-
// bounded in-memory store and introspectable statistics.
//
// Design
//
//   - Wrapping: Wrap takes a producer func(args ...any) (V, error) and
//     returns a Func whose Call serves repeated invocations with equal
//     arguments from the cache. WrapContext is the same contract for
//     producers doing asynchronous work under a context.Context; the
//     producer invocation is the only blocking point in the call path.
//
//   - Keys: arguments are digested into a comparable 64-bit key by the
//     keys package. Positional arguments are order-dependent; keys.Named
//     arguments are order-independent. With Options.Typed, the concrete
//     type of each argument discriminates entries, so Call(3) and
//     Call(3.0) cache separately.
//
//   - Storage: a map[keys.Key]*entry for lookups plus two intrusive
//     doubly linked lists per entry: policy order (drives eviction) and
//     insertion order (drives expiry). All operations are O(1) expected.
//
//   - TTL: exact and per entry. A result is stale once TTL has elapsed
//     since its own insertion; expiration is lazy, applied on every read
//     path (Call, Info) before answering, so stale entries never serve
//     hits and never count toward CurrSize.
//
//   - Eviction: when MaxSize is set and exceeded, the back of the
//     policy list is evicted until the bound holds. The policy is
//     pluggable via the policy package: LRU by default (hits promote),
//     FIFO provided for plain insertion-order eviction.
//
//   - Statistics: Info() reports hits, misses, configured and current
//     size, and the remaining TTL of the oldest live entry. Counters
//     are monotonic and reset only by Clear().
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals.
//     NoopMetrics is the default; metrics/prom exports to Prometheus.
//
//   - SingleFlight: off by default, concurrent misses for one key each
//     invoke the producer (the later result refreshes the entry).
//     Options.SingleFlight coalesces them into one invocation.
//
// Basic usage
//
//	f := cache.Wrap(func(args ...any) (string, error) {
//	    return lookupUser(args[0].(int))
//	}, cache.Options[string]{TTL: 30 * time.Second, MaxSize: 1024})
//
//	v, err := f.Call(42)        // miss: producer runs
//	v, err = f.Call(42)         // hit within TTL
//	fmt.Println(f.Info())       // Info(hits=1 misses=1 ...)
//	f.Clear()
//
// With a context-aware producer
//
//	g := cache.WrapContext(func(ctx context.Context, args ...any) ([]byte, error) {
//	    return fetch(ctx, args[0].(string))
//	}, cache.Options[[]byte]{TTL: time.Minute, SingleFlight: true})
//
//	b, err := g.Call(ctx, "https://example.com")
//
// Thread-safety
//
// All methods are safe for concurrent use: the engine serializes every
// store operation on one mutex and only the producer runs outside it.
// A Func and its statistics are private to one wrapped producer; wrap
// the same function twice and you get two independent caches.
package cache
