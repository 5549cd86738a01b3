// Package main hosts the enchant CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration, sets up structured logging
// and opens the repository through internal/library; each subcommand then
// drives one library operation (submit, search, clip, reindex) and renders
// the result as a table or JSON.
package main
