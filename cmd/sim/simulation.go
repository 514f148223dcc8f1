package main

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joshbohde/semaphore/stats"
)

func msToWait(perSec int64) time.Duration {
	ms := rand.ExpFloat64() / (float64(perSec) / 1000)
	return time.Duration(ms * float64(time.Millisecond))
}

type Simulation struct {
	Method       string
	TimeToRun    time.Duration
	Deadline     time.Duration
	InputPerSec  int64
	OutputPerSec int64
	Completed    atomic.Uint64
	Rejected     atomic.Uint64
	Started      uint64
	Stats        *stats.Stats
	mu           sync.Mutex
}

// Result is the outcome of a finished Simulation.
type Result struct {
	Method       string        `json:"method"`
	Duration     time.Duration `json:"duration"`
	Deadline     time.Duration `json:"deadline"`
	InputPerSec  int64         `json:"input_per_sec"`
	OutputPerSec int64         `json:"output_per_sec"`
	Started      uint64        `json:"started"`
	Completed    uint64        `json:"completed"`
	Rejected     uint64        `json:"rejected"`
	Throughput   float64       `json:"throughput"`
	Wait         stats.Summary `json:"wait"`
}

// Process holds the single downstream server for one exponentially
// distributed service time.
func (sim *Simulation) Process() {
	sim.mu.Lock()
	time.Sleep(msToWait(sim.OutputPerSec))
	sim.mu.Unlock()
}

// Result summarizes the run. Only valid after Run returns.
func (sim *Simulation) Result() Result {
	r := Result{
		Method:       sim.Method,
		Duration:     sim.TimeToRun,
		Deadline:     sim.Deadline,
		InputPerSec:  sim.InputPerSec,
		OutputPerSec: sim.OutputPerSec,
		Started:      sim.Started,
		Completed:    sim.Completed.Load(),
		Rejected:     sim.Rejected.Load(),
		Wait:         sim.Stats.Summary(),
	}

	if r.Started > 0 {
		r.Throughput = float64(sim.InputPerSec) * float64(r.Completed) / float64(r.Started)
	}

	return r
}

func (r Result) String() string {
	var completed, rejected float64
	if r.Started > 0 {
		completed = float64(r.Completed) / float64(r.Started)
		rejected = float64(r.Rejected) / float64(r.Started)
	}

	return fmt.Sprintf("method=%s duration=%s deadline=%s input=%d output=%d throughput=%.2f completed=%.4f rejected=%.4f p50=%s p95=%s p99=%s",
		r.Method, r.Duration, r.Deadline,
		r.InputPerSec, r.OutputPerSec,
		r.Throughput, completed, rejected,
		r.Wait.P50, r.Wait.P95, r.Wait.P99)
}

// Run models input & output as random processes with average throughput. It
// waits for every started request before returning.
func (sim *Simulation) Run(ctx context.Context, lock Locker) error {
	start := time.Now()

	wg := sync.WaitGroup{}

	defer func() {
		wg.Wait()
		sim.Stats.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(msToWait(sim.InputPerSec)):
		}

		if time.Since(start) > sim.TimeToRun {
			return nil
		}

		sim.Started++
		wg.Add(1)

		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, sim.Deadline)

			timer := sim.Stats.Time()

			err := lock.Acquire(ctx)
			cancel()

			if err != nil {
				sim.Rejected.Add(1)
				return
			}

			timer.Mark()
			sim.Process()

			sim.Completed.Add(1)
			lock.Release()
		}()
	}
}
