// Package scheduler owns the authoritative set of background tasks and
// decides which are eligible to run.
//
// The Queue enforces per-(subject, type) deduplication, recomputes every
// task's readiness against the static type graph after each state change,
// and admits pending tasks to the executor FIFO by creation time under a
// fixed concurrency cap. All mutations are linearized behind one mutex;
// queue operations are synchronous in-memory computations and signal no
// errors of their own.
//
// Lifecycle events are published to an events.Hub after the lock is
// released, so sinks may safely call back into the queue.
//
// Snapshot and Restore round-trip the task collection as an
// order-preserving flat list. On restore, any task found still processing
// is treated as an orphan of an unclean shutdown and reset to pending;
// partial progress is never resumed.
package scheduler
