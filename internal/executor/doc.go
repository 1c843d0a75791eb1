// Package executor pulls ready tasks from the scheduler and runs them.
//
// The executor polls Queue.ReadyTasks on an interval, admits each task
// through StartTask, and dispatches it to the Runner registered for its
// type on a worker goroutine. Runners report progress through a callback
// and signal completion or failure by their return value; the executor
// translates both into the scheduler's transition calls and always closes
// the admission slot with FinishTask.
//
// Cancellation is cooperative: when a running task leaves processing state
// (user cancel, queue clear), the executor cancels that task's context and
// relies on the runner to stop its work.
package executor
