// Package apperr defines the closed set of failure kinds reported by the
// object store, search index, clip planner, and submission paths.
//
// Every component boundary returns an *Error tagged with a Kind so callers can
// branch with errors.Is against the exported sentinels instead of matching
// strings. Encoder failures additionally carry the captured process output.
package apperr
