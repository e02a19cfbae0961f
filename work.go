package taskmux

import "context"

// Work is one logical unit of asynchronous work. It is invoked at most
// once per task and must eventually call finish with its result, exactly
// once, on any goroutine.
//
// Cancellation is cooperative: taskmux never interrupts a running Work,
// it only calls the task's cancel hook. A Work that is cancelled may
// still call finish; the task ignores it.
type Work[T any] func(finish func(T))

// BlockWork adapts a plain synchronous function into a Work that computes
// fn and finishes with its value.
func BlockWork[T any](fn func() T) Work[T] {
	return func(finish func(T)) {
		finish(fn())
	}
}

// ContextWork adapts a context-aware function into a Work plus a cancel
// function suitable as the task's cancel hook. Cancelling the task
// cancels the context; fn is expected to honor it. Whatever fn returns
// after cancellation is passed to finish and discarded by the task.
func ContextWork[T any](fn func(context.Context) T) (Work[T], func()) {
	ctx, cancel := context.WithCancel(context.Background())
	work := func(finish func(T)) {
		finish(fn(ctx))
	}
	return work, cancel
}
