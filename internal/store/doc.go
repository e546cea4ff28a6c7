// Package store persists result tables.
//
// Two backends implement Store:
//
//   - CSVStore: a delimited text file with a header row. Full writes go to a
//     temporary file that is renamed over the target, so a crash never leaves
//     a half-written table.
//   - SQLiteStore: a SQLite database holding the column layout and one
//     record per row (canonical JSON plus a content hash and the run ID).
//
// Open picks the backend from the path's extension.
//
// CSV cells are untyped, so CSVStore.Load infers each value with
// results.ParseCell: a String "42" written to CSV loads as Int 42. SQLite
// keeps the value types it was given.
//
// # Column Ordering
//
// The store owns the column ordering policy: Write moves the requested front
// columns first, in the order given, followed by every other column in the
// table's natural order.
//
// # Appending
//
// Appender streams rows to the store one at a time and flushes each row
// before returning, so completed rows survive an interrupted run. Loading
// an appended file may yield several rows for the same
// (validation_id, model_id) pair; the last one is the newest.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
package store
