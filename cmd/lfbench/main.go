// Command lfbench drives a mixed insert/search/remove workload against a
// HashMap built on this module's lock-free primitives and reports how many
// operations of each kind completed.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync/atomic"
	"time"

	"lockfree/internal/stress"
	"lockfree/pkg/lockfree"
)

func main() {
	workers := flag.Int("workers", 16, "number of concurrent goroutines")
	concurrency := flag.Int("concurrency", 0, "max goroutines in flight at once (0 = workers)")
	opsPerWorker := flag.Int("ops", 10000, "operations performed by each goroutine")
	buckets := flag.Int("buckets", 64, "hash map bucket count")
	keyspace := flag.Int("keyspace", 4096, "distinct integer keys the workload draws from")
	flag.Parse()

	m := lockfree.NewHashMap[int, int](*buckets)

	var inserts, searches, removes int64
	start := time.Now()

	result := stress.Run(context.Background(), stress.Config{
		Workers:     *workers,
		Concurrency: *concurrency,
		Task: func(id int) error {
			r := rand.New(rand.NewSource(int64(id) + 1))
			for i := 0; i < *opsPerWorker; i++ {
				k := r.Intn(*keyspace)
				switch r.Intn(3) {
				case 0:
					m.Insert(k, id*1_000_000+i)
					atomic.AddInt64(&inserts, 1)
				case 1:
					m.Get(k)
					atomic.AddInt64(&searches, 1)
				case 2:
					m.Remove(k)
					atomic.AddInt64(&removes, 1)
				}
			}
			return nil
		},
	})

	elapsed := time.Since(start)
	total := inserts + searches + removes

	fmt.Printf("workers=%d concurrency=%d buckets=%d keyspace=%d\n", *workers, *concurrency, *buckets, *keyspace)
	fmt.Printf("inserts=%d searches=%d removes=%d total=%d\n", inserts, searches, removes, total)
	fmt.Printf("elapsed=%s ops/sec=%.0f\n", elapsed, float64(total)/elapsed.Seconds())

	if result.Failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d workers failed to run\n", result.Failed, result.Workers)
		os.Exit(1)
	}
}
