package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/joshbohde/codel"
	"github.com/stretchr/testify/require"

	"github.com/joshbohde/semaphore/stats"
)

func TestLockers(t *testing.T) {
	opts := codel.Options{
		MaxPending:     1,
		MaxOutstanding: 2,
		TargetLatency:  5 * time.Millisecond,
	}

	for _, method := range Methods {
		t.Run(method, func(t *testing.T) {
			lock, err := NewLocker(method, opts)
			require.NoError(t, err)
			defer lock.Close()

			ctx := context.Background()
			for i := 0; i < opts.MaxOutstanding; i++ {
				require.NoError(t, lock.Acquire(ctx))
			}
			for i := 0; i < opts.MaxOutstanding; i++ {
				lock.Release()
			}
		})
	}
}

func TestNewLockerUnknown(t *testing.T) {
	_, err := NewLocker("fifo", codel.Options{MaxOutstanding: 1})
	require.Error(t, err)
}

func TestCappedDropsWhenFull(t *testing.T) {
	c, err := NewCapped(codel.Options{MaxOutstanding: 1})
	require.NoError(t, err)

	require.NoError(t, c.Acquire(context.Background()))
	require.ErrorIs(t, c.Acquire(context.Background()), errDropped)

	c.Release()
	require.NoError(t, c.Acquire(context.Background()))
	c.Release()
}

func TestBoundedTimesOutAndDrops(t *testing.T) {
	b, err := NewBounded(codel.Options{MaxPending: 1, MaxOutstanding: 1})
	require.NoError(t, err)

	require.NoError(t, b.Acquire(context.Background()))

	// One pending slot: the first waiter times out, the overflow is dropped.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	waited := make(chan error)
	go func() {
		waited <- b.Acquire(ctx)
	}()

	require.Eventually(t, func() bool { return b.sem.Waiting() == 1 }, time.Second, time.Millisecond)
	require.ErrorIs(t, b.Acquire(context.Background()), errDropped)

	err = <-waited
	require.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)

	b.Release()
	require.Equal(t, 1, b.sem.Available())
}

func TestSimulationRun(t *testing.T) {
	lock, err := NewLocker("bounded", codel.Options{MaxPending: 10, MaxOutstanding: 2})
	require.NoError(t, err)

	sim := &Simulation{
		Method:       "bounded",
		TimeToRun:    50 * time.Millisecond,
		Deadline:     100 * time.Millisecond,
		InputPerSec:  500,
		OutputPerSec: 1000,
		Stats:        stats.New(),
	}

	require.NoError(t, sim.Run(context.Background(), lock))

	r := sim.Result()
	require.Equal(t, "bounded", r.Method)
	require.Equal(t, r.Started, r.Completed+r.Rejected)
	require.Equal(t, int(r.Completed), r.Wait.Count)
	require.Contains(t, r.String(), "method=bounded")
}
