package preflight

import (
	"context"

	"enchant/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// MinFreeBytes is the free space below which the clip directory check fails.
const MinFreeBytes = 64 << 20

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Repository directory", cfg.Paths.RepoDir),
		CheckDirectoryAccess("Clip directory", cfg.Paths.ClipDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckFreeSpace("Clip disk space", cfg.Paths.ClipDir, MinFreeBytes),
		CheckEncoder(ctx, cfg),
	}
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
