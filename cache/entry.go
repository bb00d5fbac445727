package cache

import "github.com/rabuchaim/cachettl/keys"

// entry is an intrusive list element owned by the engine's store.
// It links into two lists at once: the policy-ordered list (head is
// most recent, tail is the eviction candidate) and the insertion-
// ordered list (oldest first) that drives TTL sweeps and the
// remaining-TTL statistic.
type entry[V any] struct {
	key keys.Key
	val V

	// Policy list links (eviction order).
	prev *entry[V]
	next *entry[V]

	// Insertion list links (expiry order).
	agePrev *entry[V]
	ageNext *entry[V]

	// Insertion timestamp in UnixNano. Entries are immutable once
	// created; a refresh is delete+reinsert with a new timestamp.
	insertedAt int64
}

// Key returns the entry key (part of the policy.Node interface).
func (n *entry[V]) Key() keys.Key { return n.key }

// Value returns a pointer to the stored value (part of the policy.Node
// interface). Callers must only touch it while holding the engine lock.
func (n *entry[V]) Value() *V { return &n.val }
