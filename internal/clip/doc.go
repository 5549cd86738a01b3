// Package clip cuts short video and subtitle excerpts out of stored movies.
//
// A Planner resolves the movie for a video object, pads and rounds the
// requested window to whole seconds, asks an Encoder (ffmpeg by default) for
// the video excerpt and writes the matching subtitle excerpt next to it with
// cue times rebased to the start of the clip.
package clip
