// Package fifo implements insertion-order eviction.
//
// Despite often being labeled "LRU" in cache folklore, evicting the
// oldest-inserted entry regardless of access pattern is FIFO. Hits do
// not promote entries, so the back of the list is always the entry that
// was inserted earliest. Use this policy when reproducing systems that
// evict by insertion age; prefer lru.New for actual recency-based
// eviction.
package fifo

import "github.com/rabuchaim/cachettl/policy"

type fifo[K comparable, V any] struct {
	h policy.Hooks[K, V]
}

type fifoPolicy[K comparable, V any] struct{}

// New returns a Policy factory that constructs store-local FIFO instances.
func New[K comparable, V any]() policy.Policy[K, V] { return fifoPolicy[K, V]{} }

func (fifoPolicy[K, V]) New(h policy.Hooks[K, V]) policy.StorePolicy[K, V] {
	return &fifo[K, V]{h: h}
}

// OnAdd places the new entry at the front. With no promotions, front-to-
// back order is exactly newest-to-oldest insertion order.
func (p *fifo[K, V]) OnAdd(n policy.Node[K, V]) (evict policy.Node[K, V]) {
	p.h.PushFront(n)
	return nil
}

// OnGet does not promote: access has no effect on eviction order.
func (p *fifo[K, V]) OnGet(_ policy.Node[K, V]) {}

// OnUpdate does not promote either; an entry keeps its insertion slot.
func (p *fifo[K, V]) OnUpdate(_ policy.Node[K, V]) {}

// OnRemove is a no-op (no policy-internal state).
func (p *fifo[K, V]) OnRemove(_ policy.Node[K, V]) {}
