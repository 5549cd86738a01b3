package main

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"enchant/internal/config"
)

// paddingFlags carries --pre/--post; unset flags fall back to the
// configured reserves.
type paddingFlags struct {
	pre  float64
	post float64
}

func (p *paddingFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&p.pre, "pre", 0, "Seconds kept before the start (default clip.pre_reserve_seconds)")
	cmd.Flags().Float64Var(&p.post, "post", 0, "Seconds kept after the end (default clip.post_reserve_seconds)")
}

func (p *paddingFlags) resolve(cmd *cobra.Command, cfg *config.Config) (time.Duration, time.Duration, error) {
	pre, post := cfg.PreReserve(), cfg.PostReserve()
	if cmd.Flags().Changed("pre") {
		d, err := secondsFlag("pre", p.pre)
		if err != nil {
			return 0, 0, err
		}
		pre = d
	}
	if cmd.Flags().Changed("post") {
		d, err := secondsFlag("post", p.post)
		if err != nil {
			return 0, 0, err
		}
		post = d
	}
	return pre, post, nil
}

func secondsFlag(name string, value float64) (time.Duration, error) {
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("--%s must be a non-negative number of seconds", name)
	}
	return time.Duration(value * float64(time.Second)), nil
}
