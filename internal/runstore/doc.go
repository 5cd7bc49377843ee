// Package runstore persists the history of generate runs in SQLite.
//
// Each run is inserted as running when it starts and finished exactly once
// with its final status, per-branch frame counts and error text. The schema
// is versioned; a database written by a different version is refused rather
// than migrated.
package runstore
