package taskmux

import (
	"sync"

	"github.com/sirupsen/logrus"
)

type taskState int

const (
	stateIdle taskState = iota
	stateRunning
	stateCancelling
	stateFinishing
	stateFinished
	stateCancelled
)

func (s taskState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRunning:
		return "running"
	case stateCancelling:
		return "cancelling"
	case stateFinishing:
		return "finishing"
	case stateFinished:
		return "finished"
	case stateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// writable reports whether the request set still accepts mutations.
// Cancelling and Finishing already reject writes: work is mid-teardown
// and a request added now could never be honored.
func (s taskState) writable() bool {
	return s == stateIdle || s == stateRunning
}

// Task multiplexes many callers' interest in one unit of work. The work
// function runs at most once; its single result is fanned out to every
// request still registered when it finishes. The task's work and cancel
// hook are bound at creation and never replaced.
//
// All methods are safe for concurrent use. Most callers never construct
// a Task directly; they go through a Registry, which also coalesces by
// key.
type Task[T any] struct {
	work     Work[T]
	onCancel func()
	cfg      config
	key      string // registry key label; empty for standalone tasks

	// deregister detaches the task from its registry; invoked exactly
	// once, by whichever goroutine drives the terminal transition.
	deregister func()

	mu        sync.Mutex
	state     taskState
	started   bool
	requests  map[Token]*request[T]
	effective Priority
}

// NewTask returns an idle task bound to work and onCancel. onCancel may
// be nil. The task does not run until Start is called.
func NewTask[T any](work Work[T], onCancel func(), opts ...Option) *Task[T] {
	return newTask(work, onCancel, newConfig(opts), "")
}

func newTask[T any](work Work[T], onCancel func(), cfg config, key string) *Task[T] {
	return &Task[T]{
		work:     work,
		onCancel: onCancel,
		cfg:      cfg,
		key:      key,
		requests: make(map[Token]*request[T]),
	}
}

// AddRequest registers interest in the task's result. On success it
// returns a fresh Token, minted before any completion fan-out can be
// observed, so the caller can always correlate the eventual callback to
// this registration. It returns (0, false) if the task is already
// finishing, cancelling, or terminal; no callback will ever arrive for a
// rejected registration.
func (t *Task[T]) AddRequest(priority Priority, onResult func(T)) (Token, bool) {
	t.mu.Lock()
	if !t.state.writable() {
		t.mu.Unlock()
		return 0, false
	}
	token := nextToken()
	t.requests[token] = &request[T]{priority: priority, onResult: onResult}
	t.recomputePriority()
	n := len(t.requests)
	t.mu.Unlock()

	t.logf(logrus.Fields{"token": token, "priority": priority, "requests": n}, "request added")
	return token, true
}

// CancelRequest withdraws one registration. Unknown or stale tokens are
// ignored. If this removes the last request, the task's cancel hook runs
// exactly once and the task finalizes to cancelled; otherwise only the
// effective priority is affected.
func (t *Task[T]) CancelRequest(token Token) {
	t.mu.Lock()
	if !t.state.writable() {
		t.mu.Unlock()
		return
	}
	if _, ok := t.requests[token]; !ok {
		t.mu.Unlock()
		return
	}
	delete(t.requests, token)
	if len(t.requests) > 0 {
		t.recomputePriority()
		n := len(t.requests)
		t.mu.Unlock()
		t.logf(logrus.Fields{"token": token, "requests": n}, "request cancelled")
		return
	}
	// Last one out. Exactly one goroutine can see the set empty while
	// the state is still writable, so the hook fires exactly once.
	t.state = stateCancelling
	t.mu.Unlock()

	t.logf(logrus.Fields{"token": token}, "last request cancelled, cancelling task")
	t.finalizeCancel()
}

// AdjustPriority changes a live request's declared priority and
// recomputes the task's effective priority. Unknown tokens and terminal
// tasks are ignored.
func (t *Task[T]) AdjustPriority(token Token, priority Priority) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.state.writable() {
		return
	}
	r, ok := t.requests[token]
	if !ok {
		return
	}
	r.priority = priority
	t.recomputePriority()
}

// Priority returns the task's effective priority: the maximum declared
// priority over its live requests. Once the request set has emptied the
// value is unspecified.
func (t *Task[T]) Priority() Priority {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.effective
}

// Start hands the work function to the runner, transitioning the task
// from idle to running. Calling Start again, or after cancellation, is a
// no-op.
func (t *Task[T]) Start() {
	t.mu.Lock()
	if t.state != stateIdle {
		t.mu.Unlock()
		return
	}
	t.state = stateRunning
	t.started = true
	n := len(t.requests)
	t.mu.Unlock()

	t.logf(logrus.Fields{"requests": n}, "task started")
	t.emit(EventTaskStarted, n)
	t.cfg.runner.Run(func() {
		t.work(t.finish)
	})
}

// Cancel withdraws every registration at once: no request's callback
// will fire, and the cancel hook runs exactly once. Allowed from idle or
// running; repeated calls, or calls racing completion, are no-ops.
func (t *Task[T]) Cancel() {
	t.mu.Lock()
	if !t.state.writable() {
		t.mu.Unlock()
		return
	}
	t.state = stateCancelling
	clear(t.requests)
	t.mu.Unlock()

	t.logf(nil, "task cancelled externally")
	t.finalizeCancel()
}

// finish is the completion callback supplied to the work function. The
// request set is snapshotted under the lock and the callbacks run outside
// it, so a callback may re-enter the task (or its registry) freely.
// A finish racing cancellation, or a second finish, is dropped.
func (t *Task[T]) finish(result T) {
	t.mu.Lock()
	if t.state != stateRunning {
		t.mu.Unlock()
		return
	}
	t.state = stateFinishing
	callbacks := make([]func(T), 0, len(t.requests))
	for _, r := range t.requests {
		if r.onResult != nil {
			callbacks = append(callbacks, r.onResult)
		}
	}
	n := len(t.requests)
	t.mu.Unlock()

	for _, onResult := range callbacks {
		onResult(result)
	}

	t.mu.Lock()
	t.state = stateFinished
	t.mu.Unlock()

	if t.deregister != nil {
		t.deregister()
	}
	t.logf(logrus.Fields{"requests": n}, "task finished")
	t.emit(EventTaskFinished, n)
}

// finalizeCancel runs the cancel hook and settles the task in the
// cancelled state. Callers must have performed the writable→cancelling
// transition themselves; that transition is what makes the hook fire
// exactly once.
func (t *Task[T]) finalizeCancel() {
	if t.onCancel != nil {
		t.onCancel()
	}

	t.mu.Lock()
	t.state = stateCancelled
	t.mu.Unlock()

	if t.deregister != nil {
		t.deregister()
	}
	t.emit(EventTaskCancelled, 0)
}

// recomputePriority must be called with t.mu held after every mutation
// of the request set. When the set is empty the previous value is
// retained; the task is tearing down and the value no longer matters.
func (t *Task[T]) recomputePriority() {
	if len(t.requests) == 0 {
		return
	}
	first := true
	for _, r := range t.requests {
		if first || r.priority > t.effective {
			t.effective = r.priority
			first = false
		}
	}
}

func (t *Task[T]) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.requests)
}

func (t *Task[T]) emit(event Event, requests int) {
	if t.cfg.observer == nil {
		return
	}
	t.mu.Lock()
	started := t.started
	t.mu.Unlock()
	t.cfg.observer.On(EventData{
		Event:    event,
		Key:      t.key,
		Requests: requests,
		Started:  started,
	})
}

func (t *Task[T]) logf(fields logrus.Fields, msg string) {
	if t.cfg.logger == nil {
		return
	}
	entry := t.cfg.logger.WithField("task", t.key)
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	entry.Debug(msg)
}
