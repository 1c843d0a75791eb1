// Package logging assembles structured slog loggers and attribute helpers
// used across reelqueue components.
//
// It centralizes level and output plumbing (console or JSON, stdout plus an
// optional log file) and provides a no-op logger for tests and wiring code
// that cannot fail. Prefer these constructors over hand-rolled slog setup so
// every component emits data with the same shape.
package logging
