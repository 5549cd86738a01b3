// Package catalog persists movie records in SQLite.
//
// A movie ties a human-readable name to the object ids of its video and
// subtitle content. Both ids are unique across the catalog, which is how
// resubmissions of identical content are detected.
package catalog
