// Package daemon composes the queue, store, executor, and inbox watcher
// into a single supervised process.
//
// The daemon enforces single-instance execution with a lock file, restores
// the queue from the task store on startup (resetting work that was
// interrupted mid-run back to pending), and persists the queue back to the
// store whenever it changes, debounced so bursts of events produce one
// write.
package daemon
