package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rabuchaim/cachettl/internal/singleflight"
	"github.com/rabuchaim/cachettl/keys"
	"github.com/rabuchaim/cachettl/policy"
	"github.com/rabuchaim/cachettl/policy/lru"
)

// engine is the memoization core shared by both facades: a mutex-
// guarded map keyed by argument digests, an intrusive policy-ordered
// list for eviction, an intrusive insertion-ordered list for expiry,
// and hit/miss bookkeeping. One engine exists per wrapped producer.
//
// All methods are safe for concurrent use. The producer is the only
// thing that ever runs outside the lock, so lookups, inserts, evictions
// and snapshots are each atomic with respect to concurrent callers.
type engine[V any] struct {
	mu sync.Mutex

	m       map[keys.Key]*entry[V]
	head    *entry[V] // policy order: most recent
	tail    *entry[V] // policy order: eviction candidate
	ageHead *entry[V] // insertion order: oldest
	ageTail *entry[V] // insertion order: newest
	size    int

	hits   uint64
	misses uint64

	codec keys.Codec
	pol   policy.StorePolicy[keys.Key, V]
	opt   Options[V]

	// singleflight group for Options.SingleFlight miss coalescing.
	sf singleflight.Group[keys.Key, V]
}

// newEngine validates Options and applies defaults.
func newEngine[V any](opt Options[V]) *engine[V] {
	if opt.TTL <= 0 {
		panic("cachettl: TTL must be > 0")
	}
	if opt.MaxSize < 0 {
		panic("cachettl: MaxSize must be >= 0")
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Policy == nil {
		opt.Policy = lru.New[keys.Key, V]()
	}

	e := &engine[V]{
		m:     make(map[keys.Key]*entry[V]),
		codec: keys.Codec{Typed: opt.Typed},
		opt:   opt,
	}
	e.pol = opt.Policy.New(engineHooks[V]{e: e})
	return e
}

// getOrCompute is the call path shared by both facades: encode the
// key, serve a live hit, or run produce and store the result. produce
// is the only suspension point; everything else happens under the lock.
func (e *engine[V]) getOrCompute(ctx context.Context, args []any, produce func(context.Context) (V, error)) (V, error) {
	var zero V

	k, err := e.codec.Encode(args...)
	if err != nil {
		// Encoding failures surface before any cache state is touched.
		return zero, err
	}

	if v, ok := e.lookup(k); ok {
		return v, nil
	}

	if e.opt.SingleFlight {
		return e.sf.Do(ctx, k, func() (V, error) {
			// Double-check after joining the flight: the previous
			// leader may have already stored this key.
			if v, ok := e.peek(k); ok {
				return v, nil
			}
			v, err := produce(ctx)
			if err != nil {
				return zero, err
			}
			if err := ctx.Err(); err != nil {
				return zero, err
			}
			e.store(k, v)
			return v, nil
		})
	}

	v, err := produce(ctx)
	if err != nil {
		// Producer failures propagate verbatim and are never cached;
		// the next identical call retries the producer.
		return zero, err
	}
	if err := ctx.Err(); err != nil {
		// Cancelled during production: discard the result. The miss
		// recorded above still reflects the attempt.
		return zero, err
	}
	e.store(k, v)
	return v, nil
}

// lookup sweeps expired entries, then answers and records hit or miss.
// On a hit the entry is promoted according to the active policy.
func (e *engine[V]) lookup(k keys.Key) (V, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sweepLocked(e.now())

	if n, ok := e.m[k]; ok {
		e.pol.OnGet(n)
		e.hits++
		e.opt.Metrics.Hit()
		return n.val, true
	}
	e.misses++
	e.opt.Metrics.Miss()
	var zero V
	return zero, false
}

// peek reports presence without recording stats or promoting.
// Used by the singleflight double-check after joining a flight.
func (e *engine[V]) peek(k keys.Key) (V, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if n, ok := e.m[k]; ok && !e.expiredLocked(n, e.now()) {
		return n.val, true
	}
	var zero V
	return zero, false
}

// store inserts the computed value and enforces the size bound. If a
// concurrent miss already stored the key, the entry is refreshed:
// removed and reinserted with a fresh timestamp, never mutated.
func (e *engine[V]) store(k keys.Key, v V) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if old, ok := e.m[k]; ok {
		e.pol.OnRemove(old)
		e.unlinkLocked(old)
		delete(e.m, k)
	}

	n := &entry[V]{key: k, val: v, insertedAt: e.now()}
	e.m[k] = n
	e.pushAgeLocked(n)
	if ev := e.pol.OnAdd(n); ev != nil {
		e.evictLocked(ev.(*entry[V]), EvictCapacity)
	}
	e.enforceLimitLocked()
}

// info snapshots the statistics after a sweep, so expired entries never
// count toward CurrSize or RemainingTTL.
func (e *engine[V]) info() Info {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	e.sweepLocked(now)

	var rem time.Duration
	if e.ageHead != nil {
		rem = e.opt.TTL - time.Duration(now-e.ageHead.insertedAt)
		if rem < 0 {
			rem = 0
		}
	}
	return Info{
		Hits:         e.hits,
		Misses:       e.misses,
		MaxSize:      e.opt.MaxSize,
		CurrSize:     e.size,
		RemainingTTL: rem,
	}
}

// keysOldestFirst enumerates live keys in insertion order after a
// sweep, so the first key belongs to the soonest-to-expire entry.
func (e *engine[V]) keysOldestFirst() []keys.Key {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sweepLocked(e.now())

	ks := make([]keys.Key, 0, e.size)
	for n := e.ageHead; n != nil; n = n.ageNext {
		ks = append(ks, n.key)
	}
	return ks
}

// clear wipes the store and zeroes the counters. Idempotent.
// Clearing is not an eviction: OnEvict and Evict metrics do not fire.
func (e *engine[V]) clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for n := e.head; n != nil; n = n.next {
		e.pol.OnRemove(n)
	}
	e.m = make(map[keys.Key]*entry[V])
	e.head, e.tail = nil, nil
	e.ageHead, e.ageTail = nil, nil
	e.size = 0
	e.hits, e.misses = 0, 0
	e.opt.Metrics.Size(0)
}

// -------------------- internals (mu held) --------------------

func (e *engine[V]) now() int64 {
	if e.opt.Clock != nil {
		return e.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}

// expiredLocked applies the exact per-entry policy:
// an entry is stale iff now - insertedAt >= TTL.
func (e *engine[V]) expiredLocked(n *entry[V], now int64) bool {
	return now-n.insertedAt >= int64(e.opt.TTL)
}

// sweepLocked lazily removes every expired entry. The insertion list is
// oldest-first and all entries share one TTL, so expiry order equals
// insertion order and the sweep stops at the first live entry.
func (e *engine[V]) sweepLocked(now int64) {
	for e.ageHead != nil && e.expiredLocked(e.ageHead, now) {
		e.evictLocked(e.ageHead, EvictTTL)
	}
}

// evictLocked removes the entry, updates metrics, and calls OnEvict.
func (e *engine[V]) evictLocked(n *entry[V], reason EvictReason) {
	e.pol.OnRemove(n)
	e.unlinkLocked(n)
	delete(e.m, n.key)
	e.opt.Metrics.Evict(reason)
	if cb := e.opt.OnEvict; cb != nil {
		cb(n.key, n.val, reason)
	}
}

// enforceLimitLocked evicts policy-list tails until MaxSize holds,
// then publishes the resulting size.
func (e *engine[V]) enforceLimitLocked() {
	if e.opt.MaxSize > 0 {
		for e.size > e.opt.MaxSize {
			tail := e.tail
			if tail == nil {
				break
			}
			e.evictLocked(tail, EvictCapacity)
		}
	}
	e.opt.Metrics.Size(e.size)
}

// pushAgeLocked appends n at the newest end of the insertion list.
func (e *engine[V]) pushAgeLocked(n *entry[V]) {
	n.agePrev = e.ageTail
	n.ageNext = nil
	if e.ageTail != nil {
		e.ageTail.ageNext = n
	}
	e.ageTail = n
	if e.ageHead == nil {
		e.ageHead = n
	}
}

// unlinkLocked detaches n from both lists and updates the size in O(1).
func (e *engine[V]) unlinkLocked(n *entry[V]) {
	// Policy list.
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if e.head == n {
		e.head = n.next
	}
	if e.tail == n {
		e.tail = n.prev
	}
	n.prev, n.next = nil, nil

	// Insertion list.
	if n.agePrev != nil {
		n.agePrev.ageNext = n.ageNext
	}
	if n.ageNext != nil {
		n.ageNext.agePrev = n.agePrev
	}
	if e.ageHead == n {
		e.ageHead = n.ageNext
	}
	if e.ageTail == n {
		e.ageTail = n.agePrev
	}
	n.agePrev, n.ageNext = nil, nil

	e.size--
}

// insertFrontLocked inserts n at the most-recent end of the policy list.
func (e *engine[V]) insertFrontLocked(n *entry[V]) {
	n.prev = nil
	n.next = e.head
	if e.head != nil {
		e.head.prev = n
	}
	e.head = n
	if e.tail == nil {
		e.tail = n
	}
	e.size++
}

// moveToFrontLocked promotes n within the policy list in O(1).
func (e *engine[V]) moveToFrontLocked(n *entry[V]) {
	if n == e.head {
		return
	}
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if e.tail == n {
		e.tail = n.prev
	}
	n.prev = nil
	n.next = e.head
	if e.head != nil {
		e.head.prev = n
	}
	e.head = n
	if e.tail == nil {
		e.tail = n
	}
}

// -------------------- policy hooks --------------------

// engineHooks adapts the engine's list operations to policy.Hooks.
type engineHooks[V any] struct{ e *engine[V] }

func (h engineHooks[V]) MoveToFront(x policy.Node[keys.Key, V]) {
	h.e.moveToFrontLocked(x.(*entry[V]))
}

func (h engineHooks[V]) PushFront(x policy.Node[keys.Key, V]) {
	h.e.insertFrontLocked(x.(*entry[V]))
}

func (h engineHooks[V]) Remove(x policy.Node[keys.Key, V]) {
	// Policies call Remove while the engine lock is held.
	// Map bookkeeping is performed by the engine itself.
	h.e.unlinkLocked(x.(*entry[V]))
}

func (h engineHooks[V]) Back() policy.Node[keys.Key, V] {
	if h.e.tail == nil {
		return nil
	}
	return h.e.tail
}

func (h engineHooks[V]) Len() int { return h.e.size }
