package taskmux

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Runner schedules execution of work function bodies. The default runner
// spawns one goroutine per task.
type Runner interface {
	Run(fn func())
}

type goRunner struct{}

func (goRunner) Run(fn func()) { go fn() }

// BoundedRunner limits how many work bodies execute concurrently.
// Excess tasks queue in their own parked goroutines until a slot frees.
type BoundedRunner struct {
	sem *semaphore.Weighted
}

// NewBoundedRunner returns a Runner allowing at most limit concurrently
// executing work bodies. limit must be positive.
func NewBoundedRunner(limit int64) *BoundedRunner {
	return &BoundedRunner{sem: semaphore.NewWeighted(limit)}
}

func (r *BoundedRunner) Run(fn func()) {
	go func() {
		// Background context: acquisition cannot fail, only wait.
		_ = r.sem.Acquire(context.Background(), 1)
		defer r.sem.Release(1)
		fn()
	}()
}
