// Command bench runs a synthetic workload against a memoized function
// and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rabuchaim/cachettl/cache"
	"github.com/rabuchaim/cachettl/keys"
	pmet "github.com/rabuchaim/cachettl/metrics/prom"
	"github.com/rabuchaim/cachettl/policy/fifo"
)

func main() {
	// ---- Flags ----
	var (
		ttl     = flag.Duration("ttl", 5*time.Second, "entry time to live")
		maxSize = flag.Int("max", 100_000, "cache size bound (0 = unbounded)")
		pol     = flag.String("policy", "lru", "eviction policy: lru | fifo")
		sf      = flag.Bool("singleflight", false, "coalesce concurrent misses")
		latency = flag.Duration("latency", 0, "simulated producer latency")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")

		keyspace = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS    = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV    = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed     = flag.Int64("seed", time.Now().UnixNano(), "random seed")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "cachettl", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build the memoized function ----
	opt := cache.Options[uint64]{
		TTL:          *ttl,
		MaxSize:      *maxSize,
		SingleFlight: *sf,
		Metrics:      metrics,
	}
	switch *pol {
	case "lru":
		// nil => LRU by default
	case "fifo":
		opt.Policy = fifo.New[keys.Key, uint64]()
	default:
		log.Fatalf("unknown policy: %q (use lru or fifo)", *pol)
	}

	producerLatency := *latency
	var produced uint64
	f := cache.WrapContext(func(_ context.Context, args ...any) (uint64, error) {
		atomic.AddUint64(&produced, 1)
		if producerLatency > 0 {
			time.Sleep(producerLatency)
		}
		k := args[0].(uint64)
		return k * k, nil
	}, opt)

	// ---- Snapshot flags for goroutines ----
	keysMax := uint64(*keyspace - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Load generation ----
	var total uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()

			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddUint64(&total, 1)
				if _, err := f.Call(context.Background(), localZipf.Uint64()); err != nil {
					log.Printf("call: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	ops := atomic.LoadUint64(&total)
	info := f.Info()

	hitRate := 0.0
	if info.Hits+info.Misses > 0 {
		hitRate = float64(info.Hits) / float64(info.Hits+info.Misses) * 100
	}

	fmt.Printf("policy=%s ttl=%v max=%d singleflight=%v workers=%d keys=%d dur=%v seed=%d\n",
		*pol, *ttl, *maxSize, *sf, workersN, *keyspace, elapsed, seedBase)
	fmt.Printf("calls=%d (%.0f calls/s)  producer-runs=%d\n",
		ops, float64(ops)/elapsed.Seconds(), atomic.LoadUint64(&produced))
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%  currsize=%d  remainingttl=%v\n",
		info.Hits, info.Misses, hitRate, info.CurrSize, info.RemainingTTL)
}
