// Package policy defines the pluggable eviction policy contracts used
// by the cache engine. The engine owns the key→entry map and an
// intrusive ordering list; a policy decides how entries move through
// that list, which in turn decides what the engine evicts on overflow.
package policy

// Node is the minimal contract a cache entry must satisfy for a policy.
// It provides read-only access to the key and a pointer to the value.
type Node[K comparable, V any] interface {
	Key() K
	Value() *V
}

// Hooks expose O(1) list operations a policy can use to manipulate the
// engine's ordering list. Implementations are provided by the engine.
//
// Concurrency: all hook calls happen under the engine lock.
// Hooks manage only the ordering list; the engine owns the key→node map.
type Hooks[K comparable, V any] interface {
	// MoveToFront promotes the node to the most-recent end.
	MoveToFront(Node[K, V])
	// PushFront inserts the node at the most-recent end (on admission).
	PushFront(Node[K, V])
	// Remove detaches the node from the list (map bookkeeping is done by
	// the engine).
	Remove(Node[K, V])
	// Back returns the current eviction candidate (or nil if empty).
	Back() Node[K, V]
	// Len returns the number of resident nodes.
	Len() int
}

// StorePolicy is a per-store policy instance bound to engine hooks.
// All methods are invoked under the engine lock.
//
// Semantics:
//   - OnAdd may return an eviction candidate. The engine will evict that
//     node and subsequently call OnRemove for it.
//   - OnGet/OnUpdate may promote the node (e.g. move to front for LRU).
//   - OnRemove is a notification to update policy-internal state; the
//     engine performs the actual deletion.
type StorePolicy[K comparable, V any] interface {
	OnAdd(Node[K, V]) (evict Node[K, V])
	OnGet(Node[K, V])
	OnUpdate(Node[K, V])
	OnRemove(Node[K, V])
}

// Policy is a factory that creates store-local policy instances bound
// to a particular engine's hooks.
type Policy[K comparable, V any] interface {
	New(Hooks[K, V]) StorePolicy[K, V]
}
