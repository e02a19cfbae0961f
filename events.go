package taskmux

// Observer receives task lifecycle events. Implementations must be safe
// for concurrent use; events for different tasks may arrive from
// different goroutines at once.
type Observer interface {
	On(eventData EventData)
}

// Event represents a task lifecycle event type.
type Event int

const (
	// EventTaskStarted is emitted when a task's work function is handed
	// to the runner.
	EventTaskStarted Event = iota
	// EventCoalesced is emitted when an Enqueue attaches to an already
	// in-flight task instead of starting new work.
	EventCoalesced
	// EventTaskFinished is emitted after a task's result has been fanned
	// out to every surviving request.
	EventTaskFinished
	// EventTaskCancelled is emitted after a task's cancel hook has run,
	// whether triggered by the last request leaving or by Task.Cancel.
	EventTaskCancelled
)

// EventData carries the details of a task lifecycle event.
type EventData struct {
	Event Event
	// Key is the task's registry key rendered as a string; empty for
	// tasks created directly with NewTask.
	Key string
	// Requests is the size of the task's request set when the event was
	// recorded.
	Requests int
	// Started reports whether the task's work function had been handed
	// to the runner by the time of the event. False only for tasks
	// cancelled before they ever ran.
	Started bool
}
