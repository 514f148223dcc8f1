package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/joshbohde/codel"
	"golang.org/x/sync/semaphore"

	bounded "github.com/joshbohde/semaphore"
)

var errDropped = errors.New("dropped")

// Locker is a concurrency limiter under simulation.
type Locker interface {
	Acquire(ctx context.Context) error
	Release()
	Close()
}

// admission rejects acquires once too many are pending or outstanding.
type admission struct {
	mu  sync.Mutex
	cur int64
	cap int64
}

func (a *admission) enter() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Drop if queue is full
	if a.cur >= a.cap {
		return false
	}

	a.cur++
	return true
}

func (a *admission) leave() {
	a.mu.Lock()
	a.cur--
	a.mu.Unlock()
}

// Bounded waits on a bounded semaphore.
type Bounded struct {
	admission
	sem *bounded.Semaphore
}

func NewBounded(opts codel.Options) (*Bounded, error) {
	sem, err := bounded.New(opts.MaxOutstanding, opts.MaxOutstanding)
	if err != nil {
		return nil, err
	}

	return &Bounded{
		admission: admission{cap: int64(opts.MaxPending) + int64(opts.MaxOutstanding)},
		sem:       sem,
	}, nil
}

func (b *Bounded) Acquire(ctx context.Context) error {
	if !b.enter() {
		return errDropped
	}

	if err := b.sem.AcquireContext(ctx); err != nil {
		b.leave()
		return err
	}

	return nil
}

func (b *Bounded) Release() {
	b.leave()

	if err := b.sem.Release(1); err != nil {
		panic(fmt.Sprintf("bounded: bad release: %v", err))
	}
}

func (b *Bounded) Close() {}

// Capped never waits: it takes a permit if one is free and drops otherwise.
type Capped struct {
	sem *bounded.Semaphore
}

func NewCapped(opts codel.Options) (*Capped, error) {
	sem, err := bounded.New(opts.MaxOutstanding, opts.MaxOutstanding)
	if err != nil {
		return nil, err
	}

	return &Capped{sem: sem}, nil
}

func (c *Capped) Acquire(ctx context.Context) error {
	if !c.sem.TryAcquire() {
		return errDropped
	}

	return nil
}

func (c *Capped) Release() {
	if err := c.sem.Release(1); err != nil {
		panic(fmt.Sprintf("capped: bad release: %v", err))
	}
}

func (c *Capped) Close() {}

// Weighted waits on golang.org/x/sync/semaphore.
type Weighted struct {
	admission
	sem *semaphore.Weighted
}

func NewWeighted(opts codel.Options) *Weighted {
	return &Weighted{
		admission: admission{cap: int64(opts.MaxPending) + int64(opts.MaxOutstanding)},
		sem:       semaphore.NewWeighted(int64(opts.MaxOutstanding)),
	}
}

func (s *Weighted) Acquire(ctx context.Context) error {
	if !s.enter() {
		return errDropped
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.leave()
		return err
	}

	return nil
}

func (s *Weighted) Release() {
	s.leave()
	s.sem.Release(1)
}

func (s *Weighted) Close() {}

// Methods lists the lockers that can be simulated.
var Methods = []string{"bounded", "capped", "weighted", "codel"}

// NewLocker builds the named Locker.
func NewLocker(method string, opts codel.Options) (Locker, error) {
	switch method {
	case "bounded":
		return NewBounded(opts)
	case "capped":
		return NewCapped(opts)
	case "weighted":
		return NewWeighted(opts), nil
	case "codel":
		return codel.New(opts), nil
	default:
		return nil, fmt.Errorf("unknown method %q", method)
	}
}
