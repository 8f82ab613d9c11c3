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

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/accountstore"
	"github.com/MrEthical07/goAccount/intent"
	"github.com/MrEthical07/goAccount/internal/devredis"
)

const loadtestPassword = "L0adTest!Pass"

func main() {
	var (
		accounts    = flag.Int("accounts", 200, "number of local accounts to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		intentOps   = flag.Int("intent-ops", 100000, "set+consume intent round trips")
		loginOps    = flag.Int("login-ops", 2000, "password logins (argon2id bound)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_URL env or miniredis is used")
		prefix      = flag.String("prefix", "aci-load", "intent key prefix")
	)
	flag.Parse()

	if *accounts <= 0 || *concurrency <= 0 || *intentOps <= 0 || *loginOps <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, intent-ops and login-ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_URL")
	}
	conn, err := devredis.Open(ctx, addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()
	if conn.Embedded {
		fmt.Printf("using miniredis at %s\n", conn.Addr)
	} else {
		fmt.Printf("using redis at %s\n", conn.Addr)
	}

	intents := intent.NewRedisStore(conn.Client, *prefix, time.Minute)

	cfg := goAccount.DefaultConfig()
	cfg.Session.Secret = "loadtest-secret-loadtest-secret"
	engine, err := goAccount.New().
		WithConfig(cfg).
		WithAccountStore(accountstore.NewMemory()).
		WithIntentStore(intents).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	emails := make([]string, *accounts)
	fmt.Printf("seeding %d accounts...\n", *accounts)
	startSeed := time.Now()
	for i := range emails {
		emails[i] = fmt.Sprintf("load-%d@example.com", i)
		if _, err := engine.Signup(ctx, goAccount.SignupRequest{Name: "Load", Email: emails[i], Password: loadtestPassword}); err != nil {
			fmt.Fprintf(os.Stderr, "signup failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	intentStats := runPhase(*intentOps, *concurrency, 7919, func(worker, i int, r *rand.Rand) error {
		sid := fmt.Sprintf("sid-%d-%d", worker, i)
		if err := intents.SetIntent(ctx, sid, r.Intn(2) == 0); err != nil {
			return err
		}
		_, err := intents.ConsumeIntent(ctx, sid)
		return err
	})
	loginStats := runPhase(*loginOps, *concurrency, 6151, func(worker, i int, r *rand.Rand) error {
		_, err := engine.Login(ctx, emails[r.Intn(len(emails))], loadtestPassword)
		return err
	})

	fmt.Println("---- results ----")
	printStats("intent", intentStats)
	printStats("login", loginStats)
}

func runPhase(ops, concurrency int, seed int64, op func(worker, i int, r *rand.Rand) error) phaseStats {
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
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(worker, i, r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
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
