package clip

import (
	"math"
	"time"
)

// Range is a clip window in whole seconds from the start of the source.
type Range struct {
	Start time.Duration
	End   time.Duration
}

// Duration returns the length of the window.
func (r Range) Duration() time.Duration {
	return r.End - r.Start
}

// Contains reports whether [start, end] lies entirely inside the window.
func (r Range) Contains(start, end time.Duration) bool {
	return r.Start <= start && end <= r.End
}

// AdjustRange pads [start, end] by pre and post and snaps the result
// outward to whole seconds. The start never drops below zero.
func AdjustRange(start, end, pre, post time.Duration) Range {
	s := math.Floor((start - pre).Seconds())
	if s < 0 {
		s = 0
	}
	e := math.Ceil((end + post).Seconds())
	if e < s {
		e = s
	}
	return Range{
		Start: time.Duration(s) * time.Second,
		End:   time.Duration(e) * time.Second,
	}
}
