// Package semaphore implements a bounded counting semaphore: a permit
// counter that never drops below zero and never rises above the maximum
// it was created with.
//
// Acquire blocks until a permit is available. TryAcquire never blocks, and
// TryAcquireFor and TryAcquireUntil block for at most a bounded time.
// Release returns permits and hands them directly to blocked goroutines.
//
// Waiters are not guaranteed to be served in any particular order. Any
// blocked goroutine may be the one that receives a released permit.
//
// A Semaphore must not be dropped while goroutines are still blocked on it;
// they will never be woken.
package semaphore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrInvalidArgument is returned for a negative count or an initial
	// count above the maximum.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrOutOfRange is returned when a release would push the count above
	// the maximum.
	ErrOutOfRange = errors.New("out of range")
)

// Semaphore is a counting semaphore bounded by a fixed maximum. It is safe for
// concurrent use by any number of goroutines.
type Semaphore struct {
	mu    sync.Mutex
	count int
	max   int

	seq     uint64
	waiters waitQueue
}

// New creates a Semaphore holding initial permits out of at most max.
func New(initial, max int) (*Semaphore, error) {
	if max < 0 {
		return nil, fmt.Errorf("semaphore: max count %d: %w", max, ErrInvalidArgument)
	}

	if initial < 0 || initial > max {
		return nil, fmt.Errorf("semaphore: initial count %d not in [0, %d]: %w", initial, max, ErrInvalidArgument)
	}

	return &Semaphore{
		count: initial,
		max:   max,
	}, nil
}

// NewBinary creates a Semaphore whose count is only ever 0 or 1.
func NewBinary(initial int) (*Semaphore, error) {
	return New(initial, 1)
}

// Acquire blocks until a permit is available, then takes it.
func (s *Semaphore) Acquire() {
	// Background is never done, so this cannot fail.
	_ = s.wait(context.Background())
}

// AcquireContext is like Acquire, but gives up when ctx is done. Returns
// ctx.Err() without taking a permit in that case.
func (s *Semaphore) AcquireContext(ctx context.Context) error {
	return s.wait(ctx)
}

// TryAcquire takes a permit if one is available, without blocking.
func (s *Semaphore) TryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.take()
}

// TryAcquireFor waits up to d for a permit. A non-positive d is a single
// TryAcquire.
func (s *Semaphore) TryAcquireFor(d time.Duration) bool {
	if d <= 0 {
		return s.TryAcquire()
	}

	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	return s.wait(ctx) == nil
}

// TryAcquireUntil waits until deadline for a permit. A deadline in the past
// is a single TryAcquire.
func (s *Semaphore) TryAcquireUntil(deadline time.Time) bool {
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	return s.wait(ctx) == nil
}

// Release returns n permits, waking up to n blocked goroutines. The count is
// left untouched if n is negative or the release would exceed the maximum.
func (s *Semaphore) Release(n int) error {
	if n < 0 {
		return fmt.Errorf("semaphore: release %d: %w", n, ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n > s.max-s.count {
		return fmt.Errorf("semaphore: release %d with %d/%d available: %w", n, s.count, s.max, ErrOutOfRange)
	}

	s.count += n

	for s.count > 0 {
		w := s.waiters.Pop()
		if w == nil {
			break
		}

		s.count--
		w.Signal()
	}

	return nil
}

// ReleaseOne returns a single permit.
func (s *Semaphore) ReleaseOne() error {
	return s.Release(1)
}

// Available returns the number of permits that could be taken right now.
func (s *Semaphore) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.count
}

// Max returns the maximum number of permits.
func (s *Semaphore) Max() int {
	return s.max
}

// Waiting returns the number of goroutines blocked waiting for a permit.
func (s *Semaphore) Waiting() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.waiters.Len()
}

func (s *Semaphore) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fmt.Sprintf("Semaphore(%d/%d)", s.count, s.max)
}

// take a permit if the count allows it. Requires s.mu.
func (s *Semaphore) take() bool {
	if s.count <= 0 {
		return false
	}

	s.count--
	return true
}

// wait takes a permit, blocking until one is handed over or ctx is done. A
// ctx that is already done still gets one check of the count.
func (s *Semaphore) wait(ctx context.Context) error {
	s.mu.Lock()

	// Fast path if we are unblocked. A positive count means nobody is queued,
	// since Release hands permits to waiters before keeping any.
	if s.take() {
		s.mu.Unlock()
		return nil
	}

	if err := ctx.Err(); err != nil {
		s.mu.Unlock()
		return err
	}

	w := newWaiter(s.seq)
	s.seq++
	s.waiters.Push(w)

	s.mu.Unlock()

	for {
		select {
		case <-w.ready:
		case <-ctx.Done():
		}

		s.mu.Lock()

		// A grant may race with the deadline; if it got here first the
		// permit is ours.
		if w.granted {
			s.mu.Unlock()
			return nil
		}

		if err := ctx.Err(); err != nil {
			s.waiters.Remove(w)
			s.mu.Unlock()
			return err
		}

		s.mu.Unlock()
	}
}
