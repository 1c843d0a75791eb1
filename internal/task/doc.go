// Package task models a single unit of background work bound to a subject
// (a video identifier or a source path) and a work type.
//
// A task owns its mutable status, progress, and timing state, and derives a
// stable natural key from (subject, type) that the scheduler uses for
// deduplication. Status transitions follow a small state machine: completed
// is the only state with no outgoing edge; failed and cancelled tasks return
// to pending through Reset.
//
// Tasks are mutated only by the scheduler; executors interact through the
// scheduler's transition methods so that all state changes stay linearized.
package task
