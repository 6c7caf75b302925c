// Command waterdesk-loadtest seeds persisted console sessions and
// measures session store throughput: the restore path (one MGET per
// navigation with a cold gateway) and the save path (one login per
// scope).
//
// Run against miniredis (default) or a real Redis:
//
//	waterdesk-loadtest -scopes 100000 -ops 200000 -redis-addr localhost:6379
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/hydrovia/waterdesk/permission"
	"github.com/hydrovia/waterdesk/session"
)

func main() {
	var (
		scopes      = flag.Int("scopes", 100000, "number of browser scopes to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (restore + save)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "waterdesk", "session key prefix")
	)
	flag.Parse()

	if *scopes <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "scopes, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	store := session.NewStore(client, *prefix, 24*time.Hour)

	scopeIDs := make([]string, *scopes)
	fmt.Printf("seeding %d scopes...\n", *scopes)
	startSeed := time.Now()
	for i := 0; i < *scopes; i++ {
		scope := fmt.Sprintf("scope-%d", i)
		scopeIDs[i] = scope
		if err := store.Save(ctx, scope, buildSession(i)); err != nil {
			fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	restoreStats := runPhase(*ops, *concurrency, func(r *rand.Rand) bool {
		scope := scopeIDs[r.Intn(len(scopeIDs))]
		return store.Load(ctx, scope) != nil
	})
	saveStats := runPhase(*ops, *concurrency, func(r *rand.Rand) bool {
		i := r.Intn(len(scopeIDs))
		return store.Save(ctx, scopeIDs[i], buildSession(i)) == nil
	})

	fmt.Println("---- results ----")
	printStats("restore", restoreStats)
	printStats("save", saveStats)
}

// runPhase drains ops calls to op across concurrency workers and
// collects latency samples.
func runPhase(ops, concurrency int, op func(*rand.Rand) bool) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				ok := op(r)
				d := time.Since(t0)
				if !ok {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func buildSession(i int) *session.Session {
	role := permission.Roles()[i%len(permission.Roles())]
	return &session.Session{
		Token: fmt.Sprintf("opaque-token-%d", i),
		Identity: session.Identity{
			ID:          int64(i + 1),
			DisplayName: fmt.Sprintf("User %d", i),
			Email:       fmt.Sprintf("user%d@hydrovia.test", i),
			Role:        role,
			RoleID:      int64(i%3 + 1),
		},
	}
}
