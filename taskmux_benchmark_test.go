package taskmux_test

import (
	"fmt"
	"sync"
	"testing"

	taskmux "github.com/probablyarth/taskmux-go"
)

// syncRunner executes work inline so serial benchmarks measure the full
// enqueue-run-fanout path without goroutine scheduling noise.
type syncRunner struct{}

func (syncRunner) Run(fn func()) { fn() }

// ---------------------------------------------------------------------------
// Single-goroutine benchmarks: measure per-call latency.
// ---------------------------------------------------------------------------

// Full task lifecycle per call: create, register, start, finish, fan out,
// deregister.
func BenchmarkEnqueueFreshKey(b *testing.B) {
	ids := make([]string, b.N)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d", i)
	}

	mux := taskmux.NewRegistry[string, int](taskmux.WithRunner(syncRunner{}))
	work := taskmux.BlockWork(func() int { return 1 })

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mux.Enqueue(work, ids[i], nil, taskmux.PriorityNormal, func(int) {})
	}
}

// Attaching to an already in-flight task: lock, mint token, insert,
// recompute priority.
func BenchmarkAddRequestCoalesced(b *testing.B) {
	release := make(chan struct{})
	task := taskmux.NewTask(gatedWork(release, 1), nil)
	task.Start()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		task.AddRequest(taskmux.PriorityNormal, func(int) {})
	}
	b.StopTimer()
	close(release)
}

// Register then immediately withdraw, leaving one pinned request so the
// task never empties.
func BenchmarkCancelRequest(b *testing.B) {
	release := make(chan struct{})
	task := taskmux.NewTask(gatedWork(release, 1), nil)
	task.AddRequest(taskmux.PriorityNormal, func(int) {})
	task.Start()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		token, _ := task.AddRequest(taskmux.PriorityNormal, func(int) {})
		task.CancelRequest(token)
	}
	b.StopTimer()
	close(release)
}

// ---------------------------------------------------------------------------
// Concurrent benchmarks: measure throughput under contention.
// ---------------------------------------------------------------------------

// 1000 goroutines all enqueue the same key. At most a handful of work
// executions; the rest attach and share the result.
func BenchmarkConcurrent_SameKey(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		mux := taskmux.NewRegistry[string, int]()
		release := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1000)
		for j := 0; j < 1000; j++ {
			go func() {
				mux.Enqueue(gatedWork(release, 1), "k", nil,
					taskmux.PriorityNormal, func(int) { wg.Done() })
			}()
		}
		close(release)
		wg.Wait()
	}
}

// 1000 goroutines each enqueue a unique key. No coalescing, pure
// registry write contention.
func BenchmarkConcurrent_UniqueKeys(b *testing.B) {
	keys := make([]string, 1000)
	for i := range keys {
		keys[i] = fmt.Sprintf("%d", i)
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		mux := taskmux.NewRegistry[string, int]()
		var wg sync.WaitGroup
		wg.Add(1000)
		for j := 0; j < 1000; j++ {
			go func(j int) {
				mux.Enqueue(taskmux.BlockWork(func() int { return j }), keys[j], nil,
					taskmux.PriorityNormal, func(int) { wg.Done() })
			}(j)
		}
		wg.Wait()
	}
}
