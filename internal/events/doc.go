// Package events publishes discrete scheduler lifecycle events to sinks and
// subscribers.
//
// The Hub keeps a bounded in-memory buffer so UI layers can catch up after
// connecting late, and fans every event out to registered sinks (used by the
// daemon to persist queue state). It replaces framework-specific reactive
// property bindings: the scheduler emits events, and presentation layers
// subscribe without coupling the scheduler to any UI toolkit.
package events
