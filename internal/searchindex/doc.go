// Package searchindex persists subtitle cues in a full-text index and serves
// paginated, relevance-ranked queries over their dialogue.
//
// The index is an embedded SQLite database (index_subtitles.db) with a fixed
// document schema and an FTS5 external-content table over the content field.
// Each submission is written in a single transaction, so a batch either
// becomes visible as a whole or not at all. Writers are serialized within the
// process by a mutex and across processes by a file lock next to the
// database; readers never block on either.
//
// Free-text queries are translated by ParseQuery into FTS5 syntax, quoting
// every term so user punctuation cannot leak into the match grammar.
package searchindex
