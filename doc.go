// Package taskmux coalesces concurrent requests for the same logical unit
// of asynchronous work, runs the work at most once, and fans the single
// result out to every caller that is still interested.
//
// Callers enqueue work under a key of their choosing. The first caller's
// work function is executed; later callers for the same key attach to the
// in-flight task and their own work functions are discarded. Each caller
// receives a [Token] it can use to cancel its own interest or change its
// declared [Priority] without disturbing the others. When the last caller
// cancels, the task's cancel hook fires exactly once and the task is torn
// down without delivering a result.
//
//	mux := taskmux.NewRegistry[string, []byte]()
//
//	work, cancel := taskmux.ContextWork(func(ctx context.Context) []byte {
//		return download(ctx, url)
//	})
//	token := mux.Enqueue(work, url, cancel, taskmux.PriorityNormal, func(b []byte) {
//		render(b)
//	})
//
//	// Lost interest? Only this caller detaches; the download keeps going
//	// for everyone else, unless this was the last caller.
//	mux.CancelRequest(token)
//
// A task's effective priority is the maximum priority over its live
// requests, recomputed on every membership or priority change; composed
// work functions may observe it via [Task.Priority] to schedule
// accordingly.
//
// Result callbacks run on whatever goroutine the work function calls
// finish from. taskmux does not marshal them anywhere; integrators that
// need delivery on a particular goroutine forward from the callback
// themselves.
//
// Results are never cached: once a task finishes, a new Enqueue for the
// same key starts fresh work. A work function that never calls finish
// leaves its task running forever; that is a contract violation by the
// work's author, and taskmux deliberately ships no watchdog for it.
package taskmux
