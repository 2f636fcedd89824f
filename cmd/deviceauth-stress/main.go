package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/deviceauth"
	"github.com/MrEthical07/deviceauth/directory"
	"github.com/MrEthical07/deviceauth/kv"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		devices     = flag.Int("devices", 64, "number of simulated devices, each with its own key prefix")
		concurrency = flag.Int("concurrency", 32, "concurrent workers per device")
		attempts    = flag.Int("attempts", 20, "failed logins per device")
		maxAttempts = flag.Int("max-attempts", 5, "lockout threshold")
		incrOps     = flag.Int("incr-ops", 100000, "raw INCR operations against one shared counter")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "stress", "redis key prefix")
	)
	flag.Parse()

	if *devices <= 0 || *concurrency <= 0 || *attempts <= 0 || *maxAttempts <= 0 || *incrOps <= 0 {
		fmt.Fprintln(os.Stderr, "devices, concurrency, attempts, max-attempts and incr-ops must be > 0")
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

	store := kv.NewRedis(client, *prefix)

	incrStats, lost := runIncrPhase(ctx, store, *incrOps, *concurrency)
	loginStats, violations := runLockoutPhase(ctx, store, *devices, *concurrency, *attempts, *maxAttempts)

	fmt.Println("---- results ----")
	printStats("incr", incrStats)
	printStats("login", loginStats)
	fmt.Printf("lost increments: %d\n", lost)
	fmt.Printf("lockout violations: %d\n", violations)

	if lost != 0 || violations != 0 {
		os.Exit(1)
	}
}

// runIncrPhase hammers one counter and reports how many increments went missing.
func runIncrPhase(ctx context.Context, store kv.Store, ops, concurrency int) (phaseStats, int64) {
	const key = "incr_probe"
	_ = store.Delete(ctx, key)

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
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				_, err := store.Incr(ctx, key)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)

	final, err := kv.GetInt64(ctx, store, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read counter: %v\n", err)
		os.Exit(1)
	}
	return computeStats(total, latencies, failures), int64(ops) - failures - final
}

// runLockoutPhase drives concurrent wrong-password logins per device. Exactly
// one attempt per device must trigger the lockout, and the persisted counter
// must stop at the threshold.
func runLockoutPhase(ctx context.Context, store kv.Store, devices, concurrency, attempts, maxAttempts int) (phaseStats, int64) {
	dir := directory.NewMemory()

	engines := make([]*deviceauth.Engine, devices)
	for d := 0; d < devices; d++ {
		cfg := deviceauth.DefaultConfig()
		cfg.Session.PrivateKey = []byte("stress-stress-stress-stress-key!")
		cfg.Lockout.MaxAttempts = maxAttempts
		cfg.Storage.KeyPrefix = fmt.Sprintf("dev-%d:", d)
		cfg.Vault.SaveOnLogin = false

		engine, err := deviceauth.New().WithConfig(cfg).WithStore(store).WithDirectory(dir).Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
			os.Exit(1)
		}
		defer engine.Close()
		engines[d] = engine

		// Clean counters from a previous run against a real server.
		_ = store.Delete(ctx, cfg.Storage.KeyPrefix+"login_attempts")
		_ = store.Delete(ctx, cfg.Storage.KeyPrefix+"lockout_until")
	}

	if _, err := engines[0].Register(ctx, deviceauth.RegistrationData{
		Email:    "stress@example.com",
		Username: "stress",
		Password: "Correct@Horse1",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "register: %v\n", err)
		os.Exit(1)
	}

	var (
		wg         sync.WaitGroup
		failures   int64
		violations int64
		latencies  = make([]time.Duration, 0, devices*attempts)
		mu         sync.Mutex
	)

	triggered := make([]int64, devices)
	start := time.Now()
	for d := 0; d < devices; d++ {
		var cursor int64
		for w := 0; w < concurrency; w++ {
			wg.Add(1)
			go func(d int, cursor *int64) {
				defer wg.Done()
				for {
					if int(atomic.AddInt64(cursor, 1)) > attempts {
						return
					}
					t0 := time.Now()
					res, err := engines[d].Login(ctx, "stress", "wrong")
					dur := time.Since(t0)
					if err != nil {
						atomic.AddInt64(&failures, 1)
					} else if res.Reason == deviceauth.ReasonLockoutTriggered {
						atomic.AddInt64(&triggered[d], 1)
					}
					mu.Lock()
					latencies = append(latencies, dur)
					mu.Unlock()
				}
			}(d, &cursor)
		}
	}
	wg.Wait()
	total := time.Since(start)

	for d, engine := range engines {
		wantTriggers := int64(0)
		wantCount := attempts
		if attempts >= maxAttempts {
			wantTriggers = 1
			wantCount = maxAttempts
		}
		if triggered[d] != wantTriggers {
			fmt.Fprintf(os.Stderr, "device %d: %d lockout triggers, want %d\n", d, triggered[d], wantTriggers)
			violations++
		}
		if got := engine.FailedAttempts(ctx); got != wantCount {
			fmt.Fprintf(os.Stderr, "device %d: counter %d, want %d\n", d, got, wantCount)
			violations++
		}
	}

	return computeStats(total, latencies, failures), violations
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
