package cache

import (
	"math/rand"
	"sync/atomic"
	"testing"
	"time"
)

// benchmarkCalls exercises the memoized call path against a warm cache
// with a skewed keyspace so most calls are hits. It uses parallel
// workers (RunParallel spawns GOMAXPROCS goroutines). Key encoding is
// included in the measured path on purpose: that is the real call cost.
func benchmarkCalls(b *testing.B, hotKeys int) {
	f := Wrap(func(args ...any) (int, error) {
		return args[0].(int) + 1, nil
	}, Options[int]{TTL: time.Hour, MaxSize: hotKeys})

	// Warm the whole hot keyspace.
	for i := 0; i < hotKeys; i++ {
		if _, err := f.Call(i); err != nil {
			b.Fatal(err)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	b.RunParallel(func(pb *testing.PB) {
		// Independent RNG stream for each worker.
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		for pb.Next() {
			if _, err := f.Call(r.Intn(hotKeys)); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkCall_Hot256(b *testing.B) { benchmarkCalls(b, 256) }
func BenchmarkCall_Hot64k(b *testing.B) { benchmarkCalls(b, 1<<16) }

// BenchmarkCall_MultiArg measures the key-encoding overhead of a more
// realistic argument list (string + int + named arg).
func BenchmarkCall_MultiArg(b *testing.B) {
	f := Wrap(func(args ...any) (string, error) {
		return "v", nil
	}, Options[string]{TTL: time.Hour})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := f.Call("query", i&1023); err != nil {
			b.Fatal(err)
		}
	}
}
