package cache

import (
	"fmt"
	"time"
)

// Info is a point-in-time snapshot of a wrapped function's statistics,
// computed on demand from the live store (expired entries are swept
// before counting).
//
// Hits and Misses are monotonic for the wrapper's lifetime and reset
// only by Clear. Earlier designs of this cache zeroed the counters
// whenever the store drained; stats here deliberately outlive the
// entries they describe.
type Info struct {
	Hits   uint64
	Misses uint64

	// MaxSize is the configured bound; 0 means unbounded.
	MaxSize int

	// CurrSize is the number of live (unexpired) entries.
	CurrSize int

	// RemainingTTL is how long the soonest-to-expire live entry has
	// left, or 0 when the store is empty. Never negative.
	RemainingTTL time.Duration
}

// String renders the snapshot in a compact single-line form.
func (i Info) String() string {
	bound := "unbounded"
	if i.MaxSize > 0 {
		bound = fmt.Sprintf("%d", i.MaxSize)
	}
	return fmt.Sprintf("Info(hits=%d misses=%d maxsize=%s currsize=%d remainingttl=%v)",
		i.Hits, i.Misses, bound, i.CurrSize, i.RemainingTTL)
}
