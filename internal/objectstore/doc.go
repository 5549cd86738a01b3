// Package objectstore keeps file content in a content-addressed layout.
//
// An object's identifier is the lowercase hex SHA-1 of its bytes and its path
// is root/objects/<first two hex chars>/<remaining 38>. Writes stream through
// a temp file and are published with a no-replace link, so putting identical
// content twice (even concurrently) leaves exactly one immutable file.
//
// SHA-1 is kept for compatibility with stores created by earlier releases;
// its collision weakness is an accepted risk for a local, single-user store.
package objectstore
