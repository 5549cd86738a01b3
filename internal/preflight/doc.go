// Package preflight provides readiness checks for the directories and
// binaries an enchant repository depends on.
//
// The CLI "enchant doctor" command runs RunAll and prints one row per check.
// Clip commands call CheckEncoder on its own so a missing ffmpeg is reported
// before any work starts.
package preflight
