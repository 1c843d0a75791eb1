// Package availability answers whether a subject already possesses the
// artifact a given task type would produce, independent of task history.
//
// The scheduler consults a Provider during readiness recomputation: when a
// prerequisite type has no sibling task in the queue, an existing artifact
// (a local copy, a transcript) satisfies the dependency. A Recorder is the
// write side, invoked when a task completes so future readiness checks see
// the new artifact. Both are implemented by the SQLite store in production;
// Static and Unavailable cover tests and conservative defaults.
package availability
