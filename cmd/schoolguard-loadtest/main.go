// Command schoolguard-loadtest measures the authentication gate under
// concurrency: bearer verification with a revocation lookup, then
// revocation writes. Counters and revocations go through Redis (or an
// embedded miniredis when no address is given).
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

	schoolGuard "github.com/MrEthical07/schoolGuard"
	"github.com/MrEthical07/schoolGuard/revocation"
)

func main() {
	var (
		identities  = flag.Int("identities", 10000, "number of identities to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (authenticate + revoke)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, SCHOOLGUARD_REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *identities <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "identities, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("SCHOOLGUARD_REDIS_ADDR")
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

	engine, tokens, err := seed(client, *identities)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	authStats := runAuthenticatePhase(ctx, engine, tokens, *ops, *concurrency)
	revokeStats := runRevokePhase(ctx, engine, tokens, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("authenticate", authStats)
	printStats("revoke", revokeStats)
}

type seededToken struct {
	token      string
	identityID string
}

func seed(client redis.UniversalClient, n int) (*schoolGuard.Engine, []seededToken, error) {
	cfg := schoolGuard.DefaultConfig()
	cfg.JWT.Secret = []byte("loadtest-secret-loadtest-secret-0")
	cfg.Audit.Enabled = false

	store := schoolGuard.NewMemoryIdentityStore()
	roles := []schoolGuard.Role{schoolGuard.RoleAdmin, schoolGuard.RoleTeacher, schoolGuard.RoleParent}
	for i := 0; i < n; i++ {
		store.Put(schoolGuard.Identity{
			ID:    fmt.Sprintf("u-%d", i),
			Email: fmt.Sprintf("user%d@school.test", i),
			Role:  roles[i%len(roles)],
		})
	}

	engine, err := schoolGuard.New().
		WithConfig(cfg).
		WithRedis(client).
		WithIdentityStore(store).
		Build()
	if err != nil {
		return nil, nil, err
	}

	fmt.Printf("issuing %d tokens...\n", n)
	start := time.Now()
	tokens := make([]seededToken, n)
	for i := 0; i < n; i++ {
		identity, err := store.FindByID(context.Background(), fmt.Sprintf("u-%d", i))
		if err != nil {
			return nil, nil, err
		}
		issued, err := engine.IssueToken(identity)
		if err != nil {
			return nil, nil, err
		}
		tokens[i] = seededToken{token: issued.Token, identityID: identity.ID}
	}
	fmt.Printf("issued in %s\n", time.Since(start).Round(time.Millisecond))
	return engine, tokens, nil
}

func runAuthenticatePhase(ctx context.Context, engine *schoolGuard.Engine, tokens []seededToken, ops, concurrency int) phaseStats {
	return runPhase(ops, concurrency, 7919, func(r *rand.Rand) error {
		t := tokens[r.Intn(len(tokens))]
		if _, err := engine.AuthenticateToken(ctx, t.token); err != nil {
			return err
		}
		return engine.CheckRevoked(ctx, t.token)
	})
}

// runRevokePhase revokes each token at most once; later picks of the same
// token only check it.
func runRevokePhase(ctx context.Context, engine *schoolGuard.Engine, tokens []seededToken, ops, concurrency int) phaseStats {
	revoked := make([]atomic.Bool, len(tokens))
	return runPhase(ops, concurrency, 6151, func(r *rand.Rand) error {
		idx := r.Intn(len(tokens))
		t := tokens[idx]
		if revoked[idx].CompareAndSwap(false, true) {
			return engine.Revoke(ctx, t.token, t.identityID, revocation.ReasonManual, "loadtest")
		}
		_, err := engine.IsRevoked(ctx, t.token)
		return err
	})
}

func runPhase(ops, concurrency int, seedStep int64, op func(*rand.Rand) error) phaseStats {
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
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seedStep))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r)
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
