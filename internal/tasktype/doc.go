// Package tasktype defines the closed set of background work kinds and the
// static dependency graph between them.
//
// The graph relates kinds of work, not task instances: "translate depends on
// transcribe" means a translate task for a video is only runnable once that
// video has a transcript, whether produced by a sibling task or already
// present in the library. The scheduler translates these type-level edges
// into instance-level readiness.
//
// The graph is fixed at compile time and acyclic by construction; import and
// download are the only roots. Display names, icon tags, and estimated
// durations are advisory metadata for presentation layers.
package tasktype
