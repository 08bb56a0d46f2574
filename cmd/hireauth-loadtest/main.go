package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	hireAuth "github.com/MrEthical07/hireAuth"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const loadPassword = "load-test-password"

func main() {
	var (
		accounts    = flag.Int("accounts", 2000, "number of accounts to register")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "operations for the login and token phases")
		bcryptCost  = flag.Int("bcrypt-cost", 4, "bcrypt cost used for seeded accounts")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *accounts <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, and ops must be > 0")
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
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := hireAuth.DefaultConfig()
	cfg.JWT.Secret = []byte("loadtest-signing-secret-0123456789")
	cfg.Password.BcryptCost = *bcryptCost
	cfg.Security.EnumerationDelayMin = 0
	cfg.Security.EnumerationDelayMax = 0
	// Every worker shares one address, so only the per-account throttle applies.
	cfg.Security.EnableIPThrottle = false

	mailer := newCodeMailer()
	engine, err := hireAuth.New().
		WithConfig(cfg).
		WithRedis(client).
		WithAccountStore(newMemAccounts()).
		WithMailer(mailer).
		WithLogger(slog.New(slog.DiscardHandler)).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}

	emails := make([]string, *accounts)
	for i := range emails {
		emails[i] = fmt.Sprintf("load-%d@example.com", i)
	}

	registerStats := runPhase(len(emails), *concurrency, func(i int, _ *rand.Rand) error {
		return engine.StartRegistration(ctx, hireAuth.RegistrationRequest{
			Name:     fmt.Sprintf("Load %d", i),
			Email:    emails[i],
			Password: loadPassword,
		})
	})
	verifyStats := runPhase(len(emails), *concurrency, func(i int, _ *rand.Rand) error {
		_, err := engine.VerifyRegistration(ctx, emails[i], mailer.code(emails[i]))
		return err
	})

	tokens := make([]string, len(emails))
	loginStats := runPhase(*ops, *concurrency, func(i int, r *rand.Rand) error {
		idx := r.IntN(len(emails))
		res, err := engine.Login(ctx, emails[idx], loadPassword)
		if err == nil && i < len(tokens) {
			tokens[i] = res.Token
		}
		return err
	})

	issued := tokens[:0]
	for _, tok := range tokens {
		if tok != "" {
			issued = append(issued, tok)
		}
	}
	var tokenStats phaseStats
	if len(issued) > 0 {
		tokenStats = runPhase(*ops, *concurrency, func(_ int, r *rand.Rand) error {
			_, err := engine.VerifyToken(issued[r.IntN(len(issued))])
			return err
		})
	}

	fmt.Println("---- results ----")
	printStats("register", registerStats)
	printStats("verify", verifyStats)
	printStats("login", loginStats)
	printStats("token", tokenStats)
}

// runPhase runs op for indexes [0, n) across concurrency workers.
func runPhase(n, concurrency int, op func(i int, r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, n)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= n {
					return
				}
				t0 := time.Now()
				err := op(i, r)
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
