package taskmux_test

import (
	"sync/atomic"
	"testing"
	"time"

	taskmux "github.com/probablyarth/taskmux-go"
)

func TestBoundedRunnerLimitsConcurrency(t *testing.T) {
	runner := taskmux.NewBoundedRunner(1)
	firstHold := make(chan struct{})
	var secondRan atomic.Bool

	started := make(chan struct{})
	runner.Run(func() {
		close(started)
		<-firstHold
	})
	<-started

	done := make(chan struct{})
	runner.Run(func() {
		secondRan.Store(true)
		close(done)
	})

	time.Sleep(50 * time.Millisecond)
	if secondRan.Load() {
		t.Fatal("second body ran while the first held the only slot")
	}

	close(firstHold)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second body never ran after the slot freed")
	}
}

func TestRegistryWithBoundedRunner(t *testing.T) {
	mux := taskmux.NewRegistry[string, int](
		taskmux.WithRunner(taskmux.NewBoundedRunner(2)),
	)

	const n = 8
	results := make(chan int, n)
	for i := 0; i < n; i++ {
		i := i
		id := string(rune('a' + i))
		mux.Enqueue(taskmux.BlockWork(func() int { return i }), id, nil,
			taskmux.PriorityNormal, func(v int) { results <- v })
	}

	sum := 0
	for _, v := range recvN(t, results, n) {
		sum += v
	}
	if want := n * (n - 1) / 2; sum != want {
		t.Fatalf("result sum %d, want %d", sum, want)
	}
}
