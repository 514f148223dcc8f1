package semaphore_test

import (
	"errors"
	"fmt"
	"time"

	"github.com/joshbohde/semaphore"
)

func Example() {
	// At most 2 permits, both available.
	sem, err := semaphore.New(2, 2)
	if err != nil {
		return
	}
	fmt.Println("Created:", sem)

	sem.Acquire()
	fmt.Println("After Acquire:", sem)

	if sem.TryAcquire() {
		fmt.Println("After TryAcquire:", sem)
	}

	// Exhausted, so a bounded wait gives up.
	if !sem.TryAcquireFor(10 * time.Millisecond) {
		fmt.Println("TryAcquireFor timed out:", sem)
	}

	if err := sem.Release(2); err != nil {
		return
	}
	fmt.Println("After Release(2):", sem)

	// Releasing past the maximum fails and leaves the count alone.
	err = sem.Release(1)
	fmt.Println("Over-release is out of range:", errors.Is(err, semaphore.ErrOutOfRange), sem)

	// Output:
	// Created: Semaphore(2/2)
	// After Acquire: Semaphore(1/2)
	// After TryAcquire: Semaphore(0/2)
	// TryAcquireFor timed out: Semaphore(0/2)
	// After Release(2): Semaphore(2/2)
	// Over-release is out of range: true Semaphore(2/2)
}

func ExampleNewBinary() {
	// A binary semaphore starting empty works as a one-shot signal.
	done, err := semaphore.NewBinary(0)
	if err != nil {
		return
	}

	go func() {
		fmt.Println("working")
		_ = done.ReleaseOne()
	}()

	done.Acquire()
	fmt.Println("done")

	// Output:
	// working
	// done
}
