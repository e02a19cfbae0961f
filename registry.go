package taskmux

import (
	"fmt"
	"sync"
)

// Registry coalesces work by key: at most one live Task per key at any
// instant. Enqueue either attaches a request to the in-flight task for
// its key or starts a new one; finished and cancelled tasks remove
// themselves. K is any comparable key type, T the result type shared by
// all tasks in the registry.
type Registry[K comparable, T any] struct {
	cfg config

	mu    sync.RWMutex
	tasks map[K]*Task[T]
}

// NewRegistry returns an empty registry. Options apply to every task it
// creates.
func NewRegistry[K comparable, T any](opts ...Option) *Registry[K, T] {
	return &Registry[K, T]{
		cfg:   newConfig(opts),
		tasks: make(map[K]*Task[T]),
	}
}

// Enqueue registers interest in the work identified by id and returns the
// request's Token. If a task for id is already in flight the request
// attaches to it and work and onCancel are discarded; the existing task
// already owns the authoritative pair. Otherwise a new task is created,
// registered, and started with this request as its first.
//
// The returned token cancels or reprioritizes exactly this registration
// via CancelRequest and AdjustPriority.
func (r *Registry[K, T]) Enqueue(work Work[T], id K, onCancel func(), priority Priority, onResult func(T)) Token {
	for {
		r.mu.RLock()
		existing := r.tasks[id]
		r.mu.RUnlock()

		if existing != nil {
			if token, ok := existing.AddRequest(priority, onResult); ok {
				existing.emit(EventCoalesced, existing.size())
				return token
			}
			// Terminal-for-writes but not yet deregistered; drop the
			// stale entry and fall through to create a fresh task.
			r.remove(id, existing)
		}

		task := newTask(work, onCancel, r.cfg, fmt.Sprint(id))
		task.deregister = func() { r.remove(id, task) }
		// First request goes in while the task is still private, so it
		// can neither fail nor expose an empty idle task.
		token, _ := task.AddRequest(priority, onResult)
		if !r.install(id, task) {
			// Lost the race to another Enqueue; retry against the winner.
			continue
		}
		task.Start()
		return token
	}
}

// CancelRequest withdraws the registration identified by token. The
// owning task is not known a priori, so every active task is probed; at
// most one contains the token. Stale tokens are no-ops.
func (r *Registry[K, T]) CancelRequest(token Token) {
	for _, t := range r.snapshot() {
		t.CancelRequest(token)
	}
}

// AdjustPriority changes the declared priority of the registration
// identified by token, probing active tasks the same way CancelRequest
// does. Stale tokens are no-ops.
func (r *Registry[K, T]) AdjustPriority(token Token, priority Priority) {
	for _, t := range r.snapshot() {
		t.AdjustPriority(token, priority)
	}
}

// Task returns the live task for id, if any.
func (r *Registry[K, T]) Task(id K) (*Task[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	return t, ok
}

// Len returns the number of currently active tasks.
func (r *Registry[K, T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// install publishes task under id unless another task got there first.
func (r *Registry[K, T]) install(id K, task *Task[T]) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; ok {
		return false
	}
	r.tasks[id] = task
	return true
}

// remove deletes the id entry only if it still points at task; a later
// task may have already replaced the mapping for the same id.
func (r *Registry[K, T]) remove(id K, task *Task[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tasks[id] == task {
		delete(r.tasks, id)
	}
}

func (r *Registry[K, T]) snapshot() []*Task[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tasks := make([]*Task[T], 0, len(r.tasks))
	for _, t := range r.tasks {
		tasks = append(tasks, t)
	}
	return tasks
}
