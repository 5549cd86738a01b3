// Package logging assembles structured slog loggers used across enchant.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and lets callers tag a context with a request id so every line
// logged for one submission or clip can be correlated. NewNop provides a
// discarding logger for tests and optional wiring.
package logging
