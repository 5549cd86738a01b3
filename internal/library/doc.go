// Package library wires the object store, subtitle index, movie catalog and
// clip planner that together make up an enchant repository.
//
// A repository directory holds three things: objects/ with content-addressed
// video and subtitle files, index/ with the full-text subtitle index, and
// enchant.db with the movie catalog. Library is the only type that knows this
// layout; the CLI drives everything through it.
package library
