// Package store persists scheduler state in SQLite.
//
// The Store holds two tables: tasks, a flat order-preserving snapshot of the
// scheduler's task collection, and artifacts, the catalogue of work products
// each subject already possesses (local copies, transcripts, thumbnails).
// The scheduler owns task semantics; the store is a durable snapshot sink
// written by the daemon and read back on startup. The artifacts table backs
// the availability.Provider and availability.Recorder contracts.
//
// The database is transient storage for in-flight work rather than a
// long-term archive. Schema changes bump the version in schema.go; users
// clear the database to adopt the new schema.
package store
