package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/loganszeto/recordkv/internal/client"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "server address")
	clients := flag.Int("clients", 10, "number of connections")
	threads := flag.Int("threads", 10, "goroutines")
	ops := flag.Int("ops", 10000, "total operations")
	ratioGet := flag.Float64("ratio_get", 0.8, "get ratio")
	valueSize := flag.Int("value_size", 128, "value size bytes")
	timeout := flag.Duration("timeout", 5*time.Second, "per-request timeout")
	flag.Parse()

	if *threads <= 0 || *clients <= 0 {
		fmt.Fprintln(os.Stderr, "threads and clients must be > 0")
		os.Exit(1)
	}

	value := strings.Repeat("x", *valueSize)
	keys := make([]string, 1000)
	for i := range keys {
		keys[i] = fmt.Sprintf("key:%d", i)
	}

	var opsDone, failed atomic.Int64
	latCh := make(chan time.Duration, *ops)

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < *threads; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			cl, err := client.Dial(context.Background(), *addr)
			if err != nil {
				fmt.Fprintf(os.Stderr, "connect: %v\n", err)
				return
			}
			defer cl.Close()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))
			for {
				idx := int(opsDone.Add(1)) - 1
				if idx >= *ops {
					return
				}
				key := keys[rng.Intn(len(keys))]
				doGet := rng.Float64() < *ratioGet
				ctx, cancel := context.WithTimeout(context.Background(), *timeout)
				startOp := time.Now()
				if doGet {
					_, err = cl.Get(ctx, key)
				} else {
					err = cl.Set(ctx, key, value)
				}
				cancel()
				if err != nil {
					failed.Add(1)
					return
				}
				latCh <- time.Since(startOp)
			}
		}(i)
		if (i+1)%*clients == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}

	wg.Wait()
	close(latCh)

	elapsed := time.Since(start)
	totalOps := opsDone.Load()
	if totalOps > int64(*ops) {
		totalOps = int64(*ops)
	}
	fmt.Printf("Total ops: %d\n", totalOps)
	fmt.Printf("Failed: %d\n", failed.Load())
	fmt.Printf("Elapsed: %s\n", elapsed)
	fmt.Printf("Ops/sec: %.2f\n", float64(totalOps)/elapsed.Seconds())

	var lats []time.Duration
	for d := range latCh {
		lats = append(lats, d)
	}
	printLatencyStats(lats)
}

func printLatencyStats(lats []time.Duration) {
	if len(lats) == 0 {
		fmt.Println("No latency samples")
		return
	}
	slices.Sort(lats)
	for _, p := range []int{50, 95, 99} {
		fmt.Printf("p%d: %s\n", p, lats[len(lats)*p/100])
	}
	fmt.Printf("max: %s\n", lats[len(lats)-1])
}
