// Package stats tracks wait-time quantiles for acquires.
package stats

import (
	"time"

	"github.com/bmizerany/perks/quantile"
)

// Summary is a snapshot of the recorded waits.
type Summary struct {
	Count int           `json:"count" yaml:"count"`
	P50   time.Duration `json:"p50" yaml:"p50"`
	P95   time.Duration `json:"p95" yaml:"p95"`
	P99   time.Duration `json:"p99" yaml:"p99"`
}

// Stats streams samples into a targeted quantile estimator from a single
// goroutine, so Mark can be called concurrently.
type Stats struct {
	stream  *quantile.Stream
	samples chan float64
	done    chan struct{}
	count   int
}

// Timer measures one wait, started by Stats.Time.
type Timer struct {
	start   time.Time
	samples chan<- float64
}

// Mark records the time elapsed since the Timer was started.
func (t Timer) Mark() {
	elapsed := time.Since(t.start)
	t.samples <- float64(elapsed.Nanoseconds())
}

func New() *Stats {
	s := &Stats{
		samples: make(chan float64, 10),
		stream:  quantile.NewTargeted(0.5, 0.95, 0.99),
		done:    make(chan struct{}),
	}

	go func() {
		for sample := range s.samples {
			s.stream.Insert(sample)
			s.count++
		}
		close(s.done)
	}()

	return s
}

func (s *Stats) Time() Timer {
	return Timer{
		start:   time.Now(),
		samples: s.samples,
	}
}

// Query returns the estimated quantile. Only valid after Close.
func (s *Stats) Query(quantile float64) time.Duration {
	<-s.done
	if s.count == 0 {
		return 0
	}
	return time.Duration(s.stream.Query(quantile))
}

// Count returns the number of samples. Only valid after Close.
func (s *Stats) Count() int {
	<-s.done
	return s.count
}

// Summary returns the tracked quantiles. Only valid after Close.
func (s *Stats) Summary() Summary {
	return Summary{
		Count: s.Count(),
		P50:   s.Query(0.5),
		P95:   s.Query(0.95),
		P99:   s.Query(0.99),
	}
}

// Close stops accepting samples and waits for pending ones to be recorded.
// No Timer may be marked after Close.
func (s *Stats) Close() {
	close(s.samples)
	<-s.done
}
