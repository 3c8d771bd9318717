// Package store persists synthesized documents.
//
// The batch pipeline hands every document to a Sink keyed by its access key.
// Writes are idempotent by key: writing the same key twice leaves exactly one
// artifact holding the latest content.
//
// Two sinks are provided:
//   - DirSink: one file per key at <dir>/<accessKey>.xml, written atomically
//     (temp file + rename) so readers never observe a partial document
//   - Store: a SQLite database (documents and run summaries)
//
// MultiSink fans a write out to several sinks and fails if any of them fails.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
