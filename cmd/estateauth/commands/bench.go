package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/peanechestate/estateauth"
)

var benchAccounts = []string{"user@peanechestate.com", "agent@peanechestate.com", "admin@peanechestate.com"}

func newBenchCommand(a *app) *cobra.Command {
	var (
		ops         int
		concurrency int
		password    string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Drive login/logout cycles against one engine and report latency",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ops <= 0 || concurrency <= 0 {
				return errors.New("ops and concurrency must be > 0")
			}

			engine, _, closeEngine, err := a.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeEngine()

			ctx := cmd.Context()
			cycles := runCyclePhase(ctx, engine, password, ops)
			contended := runContendedPhase(ctx, engine, password, ops, concurrency)

			fmt.Fprintln(a.out, "---- results ----")
			printStats(a.out, "cycle", cycles)
			printStats(a.out, "contended", contended)
			return nil
		},
	}

	cmd.Flags().IntVar(&ops, "ops", 200, "operations per phase")
	cmd.Flags().IntVar(&concurrency, "concurrency", 8, "workers in the contended phase")
	cmd.Flags().StringVar(&password, "password", "password123", "password for the seeded accounts")
	return cmd
}

// runCyclePhase runs login then logout back to back from a single caller.
func runCyclePhase(ctx context.Context, engine *estateauth.Engine, password string, ops int) phaseStats {
	latencies := make([]time.Duration, 0, ops)
	var failures int64

	start := time.Now()
	for i := 0; i < ops; i++ {
		creds := estateauth.LoginCredentials{Email: benchAccounts[i%len(benchAccounts)], Password: password}
		t0 := time.Now()
		err := engine.Login(ctx, creds)
		engine.Logout(ctx)
		latencies = append(latencies, time.Since(t0))
		if err != nil {
			failures++
		}
	}
	return computeStats(time.Since(start), latencies, failures, 0)
}

// runContendedPhase lets concurrent workers race for the engine. Attempts
// that hit a pending operation are counted as rejected, not failed.
func runContendedPhase(ctx context.Context, engine *estateauth.Engine, password string, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		rejected  int64
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
				creds := estateauth.LoginCredentials{Email: benchAccounts[i%len(benchAccounts)], Password: password}
				t0 := time.Now()
				err := engine.Login(ctx, creds)
				d := time.Since(t0)
				switch {
				case errors.Is(err, estateauth.ErrOperationInProgress):
					atomic.AddInt64(&rejected, 1)
				case err != nil:
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	engine.Logout(ctx)
	return computeStats(time.Since(start), latencies, failures, rejected)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	rejected int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures, rejected int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		rejected: rejected,
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

func printStats(w io.Writer, name string, s phaseStats) {
	fmt.Fprintf(w, "%s: ops=%d failures=%d rejected=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.rejected,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
